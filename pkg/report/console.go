package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/ormasoftchile/zarah/pkg/scenario"
)

// maxListedFailures caps how many non-passed steps are listed per scenario.
const maxListedFailures = 3

const ruleWidth = 70

var (
	colorGreen  = lipgloss.Color("42")
	colorRed    = lipgloss.Color("196")
	colorYellow = lipgloss.Color("214")
	colorCyan   = lipgloss.Color("51")
	colorDim    = lipgloss.Color("240")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	dimStyle   = lipgloss.NewStyle().Foreground(colorDim)
	passStyle  = lipgloss.NewStyle().Foreground(colorGreen)
	failStyle  = lipgloss.NewStyle().Foreground(colorRed)
	errorStyle = lipgloss.NewStyle().Foreground(colorYellow)
)

func statusStyle(s scenario.Status) lipgloss.Style {
	switch s {
	case scenario.StatusPassed:
		return passStyle
	case scenario.StatusFailed:
		return failStyle
	case scenario.StatusError:
		return errorStyle
	}
	return dimStyle
}

// padRight pads s with spaces to width terminal columns.
func padRight(s string, width int) string {
	if w := runewidth.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// WriteConsole prints the human readable summary.
func (d *Document) WriteConsole(w io.Writer) error {
	var b strings.Builder
	heavy := strings.Repeat("=", ruleWidth)
	light := dimStyle.Render(strings.Repeat("-", ruleWidth))
	st := d.Statistics

	b.WriteString("\n" + heavy + "\n")
	b.WriteString("  " + titleStyle.Render("ZARAH - Test Report") + "\n")
	b.WriteString(heavy + "\n\n")
	fmt.Fprintf(&b, "  Suite: %s\n", d.Suite.Name)
	fmt.Fprintf(&b, "  Generated: %s\n\n", d.GeneratedAt.Format("2006-01-02 15:04:05"))

	b.WriteString(light + "\n  SUMMARY\n" + light + "\n")
	row := func(label, value string) {
		fmt.Fprintf(&b, "  %s%s\n", padRight(label, 18), value)
	}
	row("Total Scenarios:", fmt.Sprint(st.TotalScenarios))
	row("Passed:", passStyle.Render(fmt.Sprintf("%d ✓", st.PassedScenarios)))
	row("Failed:", failStyle.Render(fmt.Sprintf("%d ✗", st.FailedScenarios)))
	row("Errors:", errorStyle.Render(fmt.Sprintf("%d !", st.ErrorScenarios)))
	row("Pass Rate:", fmt.Sprintf("%.1f%%", st.PassRate))
	row("Total Duration:", fmt.Sprintf("%.2fs", st.TotalDuration))

	b.WriteString("\n" + light + "\n  RESULTS\n" + light + "\n")
	for i := range d.Results {
		r := &d.Results[i]
		style := statusStyle(r.Status)
		fmt.Fprintf(&b, "\n  %s %s\n", style.Render(r.Status.Glyph()), r.Scenario.Name)
		fmt.Fprintf(&b, "    Status: %s\n", style.Render(strings.ToUpper(string(r.Status))))
		fmt.Fprintf(&b, "    Steps: %d/%d passed\n", r.PassedSteps(), r.TotalSteps())
		fmt.Fprintf(&b, "    Duration: %.2fs\n", r.Duration.Seconds())
		if r.ErrorMessage != "" {
			fmt.Fprintf(&b, "    Error: %s\n", r.ErrorMessage)
		}
		bad := r.NotPassed()
		if len(bad) == 0 {
			continue
		}
		b.WriteString("    Failed Steps:\n")
		if len(bad) > maxListedFailures {
			bad = bad[:maxListedFailures]
		}
		for _, sr := range bad {
			msg := sr.Message
			if msg == "" {
				msg = string(sr.Status)
			}
			fmt.Fprintf(&b, "      - %s: %s\n", sr.Step.Name, msg)
		}
	}

	b.WriteString("\n" + heavy + "\n")
	b.WriteString("  " + dimStyle.Render("Report generated by ZARAH - Browser QA Testing Agent") + "\n")
	b.WriteString(heavy + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}
