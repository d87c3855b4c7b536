// Package scenario defines the scenario data model: steps, scenarios, suites
// and the results produced by running them.
package scenario

import (
	"encoding/json"
	"time"

	"gopkg.in/yaml.v3"
)

// Action is the kind of a test step.
type Action string

const (
	ActionNavigate      Action = "navigate"
	ActionClick         Action = "click"
	ActionType          Action = "type"
	ActionWait          Action = "wait"
	ActionScroll        Action = "scroll"
	ActionScreenshot    Action = "screenshot"
	ActionAssertText    Action = "assert_text"
	ActionAssertElement Action = "assert_element"
	ActionAssertURL     Action = "assert_url"
	ActionAssertTitle   Action = "assert_title"
)

var knownActions = []Action{
	ActionNavigate, ActionClick, ActionType, ActionWait, ActionScroll,
	ActionScreenshot, ActionAssertText, ActionAssertElement, ActionAssertURL,
	ActionAssertTitle,
}

// Actions returns every action kind the executor understands.
func Actions() []Action {
	out := make([]Action, len(knownActions))
	copy(out, knownActions)
	return out
}

// Valid reports whether a is a recognized action kind.
func (a Action) Valid() bool {
	for _, k := range knownActions {
		if a == k {
			return true
		}
	}
	return false
}

// Status is the outcome of a step or scenario.
type Status string

const (
	StatusPending Status = "pending"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusError   Status = "error"
)

// IsTerminal returns true once the status can no longer change.
func (s Status) IsTerminal() bool {
	return s != StatusPending && s != ""
}

// Glyph returns the console glyph used for s.
func (s Status) Glyph() string {
	switch s {
	case StatusPassed:
		return "✓"
	case StatusFailed:
		return "✗"
	case StatusError:
		return "!"
	default:
		return "○"
	}
}

// Aggregate folds step outcomes into a scenario outcome:
// error dominates failed, failed dominates passed.
func Aggregate(results []StepResult) Status {
	status := StatusPassed
	for _, r := range results {
		switch r.Status {
		case StatusError:
			return StatusError
		case StatusFailed:
			status = StatusFailed
		}
	}
	return status
}

// Step is a single directed browser action or assertion.
type Step struct {
	Name                string `json:"name" yaml:"name" jsonschema:"required,description=Human readable step label"`
	Action              Action `json:"action" yaml:"action" jsonschema:"required,description=Action kind (navigate click type wait scroll screenshot assert_text assert_element assert_url assert_title)"`
	Target              string `json:"target,omitempty" yaml:"target,omitempty" jsonschema:"description=CSS selector or URL or text depending on the action"`
	Value               string `json:"value,omitempty" yaml:"value,omitempty" jsonschema:"description=Input payload such as text to type or scroll direction"`
	Timeout             int    `json:"timeout,omitempty" yaml:"timeout,omitempty" jsonschema:"minimum=0,description=Milliseconds for wait; pixels for scroll"`
	Critical            bool   `json:"critical,omitempty" yaml:"critical,omitempty" jsonschema:"description=A non-passing outcome aborts the rest of the phase"`
	ScreenshotOnFailure bool   `json:"screenshot_on_failure" yaml:"screenshot_on_failure" jsonschema:"default=true"`
	RetryCount          int    `json:"retry_count,omitempty" yaml:"retry_count,omitempty" jsonschema:"minimum=0"`
	Description         string `json:"description,omitempty" yaml:"description,omitempty"`
	Expected            any    `json:"expected,omitempty" yaml:"expected,omitempty"`
}

// NewStep returns a step with the document defaults applied.
func NewStep(name string, action Action, target string) Step {
	return Step{Name: name, Action: action, Target: target, ScreenshotOnFailure: true}
}

// plainStep has the fields of Step without its methods.
type plainStep Step

func (s *Step) UnmarshalJSON(data []byte) error {
	p := plainStep{ScreenshotOnFailure: true}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = Step(p)
	return nil
}

func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	p := plainStep{ScreenshotOnFailure: true}
	if err := node.Decode(&p); err != nil {
		return err
	}
	*s = Step(p)
	return nil
}

// Default scenario settings.
const (
	DefaultPriority        = 5
	DefaultScenarioTimeout = 300000 // ms
)

// Scenario is an ordered test case made of setup, main and teardown steps.
type Scenario struct {
	Name          string         `json:"name" yaml:"name" jsonschema:"required"`
	Description   string         `json:"description,omitempty" yaml:"description,omitempty"`
	Steps         []Step         `json:"steps" yaml:"steps"`
	SetupSteps    []Step         `json:"setup_steps,omitempty" yaml:"setup_steps,omitempty"`
	TeardownSteps []Step         `json:"teardown_steps,omitempty" yaml:"teardown_steps,omitempty"`
	Tags          []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
	Priority      int            `json:"priority" yaml:"priority" jsonschema:"default=5,description=Lower runs first when sorted by a caller"`
	Timeout       int            `json:"timeout" yaml:"timeout" jsonschema:"minimum=0,default=300000,description=Deadline in milliseconds for setup and main steps"`
	Data          map[string]any `json:"data,omitempty" yaml:"data,omitempty" jsonschema:"description=Values available to step templates as {{ .key }}"`
}

// NewScenario returns a scenario with the document defaults applied.
func NewScenario(name, description string) *Scenario {
	return &Scenario{
		Name:        name,
		Description: description,
		Priority:    DefaultPriority,
		Timeout:     DefaultScenarioTimeout,
	}
}

// plainScenario has the fields of Scenario without its methods. A document
// that omits timeout gets the default; an explicit 0 means no deadline.
type plainScenario Scenario

func (s *Scenario) UnmarshalJSON(data []byte) error {
	p := plainScenario{Priority: DefaultPriority, Timeout: DefaultScenarioTimeout}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = Scenario(p)
	return nil
}

func (s *Scenario) UnmarshalYAML(node *yaml.Node) error {
	p := plainScenario{Priority: DefaultPriority, Timeout: DefaultScenarioTimeout}
	if err := node.Decode(&p); err != nil {
		return err
	}
	*s = Scenario(p)
	return nil
}

// AddStep appends a main step.
func (s *Scenario) AddStep(step Step) *Scenario {
	s.Steps = append(s.Steps, step)
	return s
}

// AddSetup appends a setup step.
func (s *Scenario) AddSetup(step Step) *Scenario {
	s.SetupSteps = append(s.SetupSteps, step)
	return s
}

// AddTeardown appends a teardown step.
func (s *Scenario) AddTeardown(step Step) *Scenario {
	s.TeardownSteps = append(s.TeardownSteps, step)
	return s
}

// HasTag reports whether the scenario carries tag.
func (s *Scenario) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Deadline returns the scenario timeout as a duration, zero when unset.
func (s *Scenario) Deadline() time.Duration {
	if s.Timeout <= 0 {
		return 0
	}
	return time.Duration(s.Timeout) * time.Millisecond
}

// Suite is a named, ordered collection of scenarios.
type Suite struct {
	Name          string     `json:"name" yaml:"name" jsonschema:"description=Defaults to Test Suite when omitted"`
	Description   string     `json:"description,omitempty" yaml:"description,omitempty"`
	Scenarios     []Scenario `json:"scenarios" yaml:"scenarios" jsonschema:"required"`
	Parallel      bool       `json:"parallel,omitempty" yaml:"parallel,omitempty" jsonschema:"description=Run scenarios concurrently"`
	StopOnFailure bool       `json:"stop_on_failure,omitempty" yaml:"stop_on_failure,omitempty" jsonschema:"description=Do not start further scenarios after one fails"`
	Tags          []string   `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// AddScenario appends a scenario to the suite.
func (s *Suite) AddScenario(sc Scenario) *Suite {
	s.Scenarios = append(s.Scenarios, sc)
	return s
}

// FilterByTag returns the scenarios carrying tag, in suite order.
func (s *Suite) FilterByTag(tag string) []Scenario {
	var out []Scenario
	for i := range s.Scenarios {
		if s.Scenarios[i].HasTag(tag) {
			out = append(out, s.Scenarios[i])
		}
	}
	return out
}
