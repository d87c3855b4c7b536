package runner

import (
	"sync"

	"github.com/ormasoftchile/zarah/pkg/scenario"
)

// Phase names the part of a scenario a step belongs to.
type Phase string

const (
	PhaseSetup    Phase = "setup"
	PhaseSteps    Phase = "steps"
	PhaseTeardown Phase = "teardown"
)

// Observer receives lifecycle events. index is the scenario's position in
// its suite. With a parallel suite the callbacks arrive from several
// goroutines.
type Observer interface {
	ScenarioStarted(index int, sc scenario.Scenario)
	StepFinished(index int, phase Phase, res scenario.StepResult)
	ScenarioFinished(index int, res scenario.Result)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) ScenarioStarted(int, scenario.Scenario) {}
func (NopObserver) StepFinished(int, Phase, scenario.StepResult) {}
func (NopObserver) ScenarioFinished(int, scenario.Result) {}

// Observers fans events out to several observers, serializing delivery.
type Observers struct {
	mu   sync.Mutex
	list []Observer
}

// Multi returns an observer that forwards to each of obs.
func Multi(obs ...Observer) *Observers {
	return &Observers{list: obs}
}

func (m *Observers) ScenarioStarted(i int, sc scenario.Scenario) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.list {
		o.ScenarioStarted(i, sc)
	}
}

func (m *Observers) StepFinished(i int, p Phase, res scenario.StepResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.list {
		o.StepFinished(i, p, res)
	}
}

func (m *Observers) ScenarioFinished(i int, res scenario.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.list {
		o.ScenarioFinished(i, res)
	}
}

// ObserverFuncs adapts plain functions into an Observer. Nil fields are
// skipped.
type ObserverFuncs struct {
	OnScenarioStarted  func(int, scenario.Scenario)
	OnStepFinished     func(int, Phase, scenario.StepResult)
	OnScenarioFinished func(int, scenario.Result)
}

func (f ObserverFuncs) ScenarioStarted(i int, sc scenario.Scenario) {
	if f.OnScenarioStarted != nil {
		f.OnScenarioStarted(i, sc)
	}
}

func (f ObserverFuncs) StepFinished(i int, p Phase, res scenario.StepResult) {
	if f.OnStepFinished != nil {
		f.OnStepFinished(i, p, res)
	}
}

func (f ObserverFuncs) ScenarioFinished(i int, res scenario.Result) {
	if f.OnScenarioFinished != nil {
		f.OnScenarioFinished(i, res)
	}
}
