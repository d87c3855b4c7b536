package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ormasoftchile/zarah/pkg/runner"
	"github.com/ormasoftchile/zarah/pkg/scenario"
)

// Observer forwards runner events to a Bubble Tea program.
type Observer struct {
	send func(tea.Msg)
}

// NewObserver returns an observer delivering events through send, usually
// (*tea.Program).Send.
func NewObserver(send func(tea.Msg)) *Observer {
	return &Observer{send: send}
}

func (o *Observer) ScenarioStarted(i int, sc scenario.Scenario) {
	o.send(scenarioStartedMsg{Index: i, Scenario: sc})
}

func (o *Observer) StepFinished(i int, p runner.Phase, res scenario.StepResult) {
	o.send(stepFinishedMsg{Index: i, Phase: p, Result: res})
}

func (o *Observer) ScenarioFinished(i int, res scenario.Result) {
	o.send(scenarioFinishedMsg{Index: i, Result: res})
}

// RunFunc executes a suite, reporting progress to obs.
type RunFunc func(ctx context.Context, obs runner.Observer) []scenario.Result

// Run shows live progress for suite while run executes. Quitting the view
// cancels the context passed to run; Run still waits for run to return.
func Run(ctx context.Context, suite *scenario.Suite, run RunFunc, opts ...tea.ProgramOption) ([]scenario.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(suite, cancel), opts...)

	resCh := make(chan []scenario.Result, 1)
	go func() {
		results := run(ctx, NewObserver(p.Send))
		resCh <- results
		p.Send(runDoneMsg{Results: results})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-resCh
		return nil, fmt.Errorf("progress view: %w", err)
	}
	return <-resCh, nil
}
