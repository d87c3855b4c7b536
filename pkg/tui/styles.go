// Package tui renders live suite progress in the terminal. It is fed by the
// runner's observer events.
package tui

import "github.com/charmbracelet/lipgloss"

// Scenario status glyphs. They carry meaning without relying on color alone.
const (
	GlyphPending = "○"
	GlyphRunning = "◉"
	GlyphPassed  = "✓"
	GlyphFailed  = "✗"
	GlyphError   = "!"
)

var (
	colorGreen  = lipgloss.Color("42")
	colorRed    = lipgloss.Color("196")
	colorYellow = lipgloss.Color("214")
	colorBlue   = lipgloss.Color("39")
	colorCyan   = lipgloss.Color("51")
	colorDim    = lipgloss.Color("240")
)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorCyan).
	Padding(0, 1)

var (
	rowPending = lipgloss.NewStyle().Foreground(colorDim)
	rowRunning = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	rowPassed  = lipgloss.NewStyle().Foreground(colorGreen)
	rowFailed  = lipgloss.NewStyle().Foreground(colorRed)
	rowError   = lipgloss.NewStyle().Foreground(colorRed).Bold(true)

	detailStyle  = lipgloss.NewStyle().Foreground(colorDim)
	stepStyle    = lipgloss.NewStyle().Foreground(colorBlue)
	summaryStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	keyBarStyle  = lipgloss.NewStyle().Foreground(colorDim).Padding(0, 1)
)

var spinnerStyle = lipgloss.NewStyle().
	Foreground(colorYellow)
