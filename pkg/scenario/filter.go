package scenario

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
)

// filterEnv describes the variables visible to a Where expression.
func filterEnv(sc *Scenario) map[string]any {
	tags := sc.Tags
	if tags == nil {
		tags = []string{}
	}
	return map[string]any{
		"name":        sc.Name,
		"description": sc.Description,
		"tags":        tags,
		"priority":    sc.Priority,
		"steps":       len(sc.Steps),
	}
}

// Where returns the scenarios for which the expr-lang expression is true,
// in suite order. Example: priority <= 3 && "smoke" in tags
func (s *Suite) Where(expression string) ([]Scenario, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return s.Scenarios, nil
	}

	program, err := expr.Compile(expression, expr.Env(filterEnv(&Scenario{})), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", expression, err)
	}

	var out []Scenario
	for i := range s.Scenarios {
		output, err := expr.Run(program, filterEnv(&s.Scenarios[i]))
		if err != nil {
			return nil, fmt.Errorf("eval filter %q on %q: %w", expression, s.Scenarios[i].Name, err)
		}
		if ok, _ := output.(bool); ok {
			out = append(out, s.Scenarios[i])
		}
	}
	return out, nil
}

// Select narrows the suite in place to scenarios matching tag (when set)
// and the Where expression (when set).
func (s *Suite) Select(tag, where string) error {
	if tag != "" {
		s.Scenarios = s.FilterByTag(tag)
	}
	if where != "" {
		selected, err := s.Where(where)
		if err != nil {
			return err
		}
		s.Scenarios = selected
	}
	return nil
}
