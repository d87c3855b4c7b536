package scenario

import (
	"encoding/json"
	"fmt"
)

// ToMap converts the step to its document form.
func (s Step) ToMap() (map[string]any, error) {
	return toMap(s)
}

// StepFromMap builds a step from its document form.
func StepFromMap(m map[string]any) (Step, error) {
	var s Step
	if err := fromMap(m, &s); err != nil {
		return Step{}, fmt.Errorf("step: %w", err)
	}
	return s, nil
}

// ToMap converts the scenario to its document form.
func (s Scenario) ToMap() (map[string]any, error) {
	return toMap(s)
}

// ScenarioFromMap builds a scenario from its document form.
func ScenarioFromMap(m map[string]any) (Scenario, error) {
	var s Scenario
	if err := fromMap(m, &s); err != nil {
		return Scenario{}, fmt.Errorf("scenario: %w", err)
	}
	return s, nil
}

func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func fromMap(m map[string]any, v any) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
