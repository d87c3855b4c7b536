package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ormasoftchile/zarah/pkg/runner"
	"github.com/ormasoftchile/zarah/pkg/scenario"
)

// ScenarioState tracks one scenario row.
type ScenarioState struct {
	Name     string
	Status   scenario.Status
	Running  bool
	Steps    int // step results received so far
	Total    int // setup + main + teardown steps declared
	LastStep string
	Duration time.Duration
	Message  string
}

// Glyph is the row glyph for the scenario's current state.
func (s ScenarioState) Glyph() string {
	if s.Running {
		return GlyphRunning
	}
	switch s.Status {
	case scenario.StatusPassed:
		return GlyphPassed
	case scenario.StatusFailed:
		return GlyphFailed
	case scenario.StatusError:
		return GlyphError
	default:
		return GlyphPending
	}
}

// --- Messages ---

type scenarioStartedMsg struct {
	Index    int
	Scenario scenario.Scenario
}

type stepFinishedMsg struct {
	Index  int
	Phase  runner.Phase
	Result scenario.StepResult
}

type scenarioFinishedMsg struct {
	Index  int
	Result scenario.Result
}

// runDoneMsg signals that the suite has returned.
type runDoneMsg struct {
	Results []scenario.Result
}

// Model is the Bubble Tea model for live suite progress.
type Model struct {
	suite     string
	scenarios []ScenarioState
	spinner   spinner.Model
	started   time.Time
	elapsed   time.Duration
	done      bool
	aborted   bool
	results   []scenario.Result
	cancel    func()
	width     int
}

// NewModel creates a model listing every scenario of suite as pending.
// cancel is called when the user quits before the run is done.
func NewModel(suite *scenario.Suite, cancel func()) Model {
	rows := make([]ScenarioState, len(suite.Scenarios))
	for i, sc := range suite.Scenarios {
		rows[i] = ScenarioState{
			Name:   sc.Name,
			Status: scenario.StatusPending,
			Total:  len(sc.SetupSteps) + len(sc.Steps) + len(sc.TeardownSteps),
		}
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	if cancel == nil {
		cancel = func() {}
	}
	return Model{
		suite:     suite.Name,
		scenarios: rows,
		spinner:   sp,
		started:   time.Now(),
		cancel:    cancel,
	}
}

// Scenarios returns the current row states.
func (m Model) Scenarios() []ScenarioState {
	out := make([]ScenarioState, len(m.scenarios))
	copy(out, m.scenarios)
	return out
}

// Done reports whether the run has finished.
func (m Model) Done() bool { return m.done }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.done {
				return m, tea.Quit
			}
			// Teardown still runs; the program exits on runDoneMsg.
			m.aborted = true
			m.cancel()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.elapsed = time.Since(m.started)
		return m, cmd

	case scenarioStartedMsg:
		if row := m.row(msg.Index); row != nil {
			row.Running = true
			row.Name = msg.Scenario.Name
		}

	case stepFinishedMsg:
		if row := m.row(msg.Index); row != nil {
			row.Steps++
			row.LastStep = fmt.Sprintf("%s %s", msg.Result.Status.Glyph(), msg.Result.Step.Name)
		}

	case scenarioFinishedMsg:
		if row := m.row(msg.Index); row != nil {
			row.Running = false
			row.Status = msg.Result.Status
			row.Duration = msg.Result.Duration
			row.Message = msg.Result.ErrorMessage
		}

	case runDoneMsg:
		m.done = true
		m.results = msg.Results
		m.elapsed = time.Since(m.started)
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) row(i int) *ScenarioState {
	if i < 0 || i >= len(m.scenarios) {
		return nil
	}
	return &m.scenarios[i]
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("zarah: " + m.suite))
	b.WriteString("\n\n")

	for _, s := range m.scenarios {
		b.WriteString(renderRow(s))
		b.WriteString("\n")
		if s.Running && s.LastStep != "" {
			b.WriteString("      " + stepStyle.Render(s.LastStep) + "\n")
		}
		if s.Message != "" {
			b.WriteString("      " + detailStyle.Render(s.Message) + "\n")
		}
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(summaryStyle.Render(fmt.Sprintf("%s in %s", runner.Summary(m.results), m.elapsed.Truncate(time.Millisecond))))
	} else {
		status := m.spinner.View() + " running"
		if m.aborted {
			status = m.spinner.View() + " cancelling, running teardown"
		}
		b.WriteString(" " + status + detailStyle.Render(fmt.Sprintf("  %s", m.elapsed.Truncate(time.Second))))
	}
	b.WriteString("\n")
	if !m.done {
		b.WriteString(keyBarStyle.Render("q: cancel"))
		b.WriteString("\n")
	}
	return b.String()
}

func renderRow(s ScenarioState) string {
	style := rowStyle(s)
	line := fmt.Sprintf("  %s %s", s.Glyph(), s.Name)
	progress := fmt.Sprintf("%d/%d", s.Steps, s.Total)
	if s.Duration > 0 {
		progress += "  " + s.Duration.Truncate(time.Millisecond).String()
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, style.Render(line), detailStyle.Render("  "+progress))
}

func rowStyle(s ScenarioState) lipgloss.Style {
	if s.Running {
		return rowRunning
	}
	switch s.Status {
	case scenario.StatusPassed:
		return rowPassed
	case scenario.StatusFailed:
		return rowFailed
	case scenario.StatusError:
		return rowError
	default:
		return rowPending
	}
}
