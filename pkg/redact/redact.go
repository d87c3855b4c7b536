// Package redact masks secrets in results before they are written to
// reports.
package redact

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ormasoftchile/zarah/pkg/scenario"
)

// Placeholder replaces secret values.
const Placeholder = "<REDACTED>"

// Rule is a configured pattern replacement.
type Rule struct {
	Pattern string `yaml:"pattern"`
	Replace string `yaml:"replace"`
}

type compiledRule struct {
	pattern *regexp.Regexp
	replace string
}

// secretTarget matches type-step selectors naming a secret input.
var secretTarget = regexp.MustCompile(`(?i)pass(word|wd)?|secret|token|api[_-]?key`)

// Redactor applies rules and secret values to report content.
type Redactor struct {
	rules  []compiledRule
	values []string
}

// New compiles rules. secretEnv names environment variables whose values
// are replaced wherever they appear; getenv resolves them.
func New(rules []Rule, secretEnv []string, getenv func(string) string) (*Redactor, error) {
	r := &Redactor{}
	for i, rule := range rules {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("redact rule %d: %w", i, err)
		}
		r.rules = append(r.rules, compiledRule{pattern: re, replace: rule.Replace})
	}
	for _, name := range secretEnv {
		if v := getenv(name); v != "" {
			r.values = append(r.values, v)
		}
	}
	return r, nil
}

// String redacts s.
func (r *Redactor) String(s string) string {
	for _, v := range r.values {
		s = strings.ReplaceAll(s, v, Placeholder)
	}
	for _, rule := range r.rules {
		s = rule.pattern.ReplaceAllString(s, rule.replace)
	}
	return s
}

// Step redacts a step. Text typed into a secret-looking field is masked
// entirely.
func (r *Redactor) Step(s scenario.Step) scenario.Step {
	if s.Action == scenario.ActionType && s.Value != "" && secretTarget.MatchString(s.Target) {
		s.Value = Placeholder
	}
	s.Name = r.String(s.Name)
	s.Target = r.String(s.Target)
	s.Value = r.String(s.Value)
	return s
}

func (r *Redactor) steps(in []scenario.Step) []scenario.Step {
	if in == nil {
		return nil
	}
	out := make([]scenario.Step, len(in))
	for i, s := range in {
		out[i] = r.Step(s)
	}
	return out
}

// Scenario returns a redacted copy of sc.
func (r *Redactor) Scenario(sc scenario.Scenario) scenario.Scenario {
	sc.SetupSteps = r.steps(sc.SetupSteps)
	sc.Steps = r.steps(sc.Steps)
	sc.TeardownSteps = r.steps(sc.TeardownSteps)
	if sc.Data != nil {
		data := make(map[string]any, len(sc.Data))
		for k, v := range sc.Data {
			if s, ok := v.(string); ok {
				v = r.String(s)
			}
			data[k] = v
		}
		sc.Data = data
	}
	return sc
}

// Suite returns a redacted copy of suite.
func (r *Redactor) Suite(suite *scenario.Suite) *scenario.Suite {
	out := *suite
	out.Scenarios = make([]scenario.Scenario, len(suite.Scenarios))
	for i, sc := range suite.Scenarios {
		out.Scenarios[i] = r.Scenario(sc)
	}
	return &out
}

// Results returns redacted copies of results. The inputs are not modified.
func (r *Redactor) Results(in []scenario.Result) []scenario.Result {
	out := make([]scenario.Result, len(in))
	for i, res := range in {
		res.Scenario = r.Scenario(res.Scenario)
		res.ErrorMessage = r.String(res.ErrorMessage)
		if res.StepResults != nil {
			steps := make([]scenario.StepResult, len(res.StepResults))
			for j, sr := range res.StepResults {
				sr.Step = r.Step(sr.Step)
				sr.Message = r.String(sr.Message)
				sr.ErrorTrace = r.String(sr.ErrorTrace)
				if s, ok := sr.ActualValue.(string); ok {
					sr.ActualValue = r.String(s)
				}
				steps[j] = sr
			}
			res.StepResults = steps
		}
		out[i] = res
	}
	return out
}
