package scenario

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Expand returns a copy of the scenario whose step names, targets and
// values have {{ .key }} references resolved against Data. A scenario
// without data is returned unchanged.
func (s Scenario) Expand() (Scenario, error) {
	if len(s.Data) == 0 {
		return s, nil
	}
	out := s
	var err error
	if out.SetupSteps, err = expandSteps(s.SetupSteps, s.Data); err != nil {
		return s, fmt.Errorf("setup: %w", err)
	}
	if out.Steps, err = expandSteps(s.Steps, s.Data); err != nil {
		return s, fmt.Errorf("steps: %w", err)
	}
	if out.TeardownSteps, err = expandSteps(s.TeardownSteps, s.Data); err != nil {
		return s, fmt.Errorf("teardown: %w", err)
	}
	return out, nil
}

func expandSteps(steps []Step, data map[string]any) ([]Step, error) {
	if steps == nil {
		return nil, nil
	}
	out := make([]Step, len(steps))
	for i, st := range steps {
		var err error
		if st.Name, err = resolve(st.Name, data); err != nil {
			return nil, fmt.Errorf("step %d name: %w", i+1, err)
		}
		if st.Target, err = resolve(st.Target, data); err != nil {
			return nil, fmt.Errorf("step %q target: %w", st.Name, err)
		}
		if st.Value, err = resolve(st.Value, data); err != nil {
			return nil, fmt.Errorf("step %q value: %w", st.Name, err)
		}
		out[i] = st
	}
	return out, nil
}

// resolve renders a template string against data.
func resolve(tmpl string, data map[string]any) (string, error) {
	if !strings.Contains(tmpl, "{{") {
		return tmpl, nil
	}
	t, err := template.New("").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("template parse: %w", err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("template eval: %w", err)
	}
	return buf.String(), nil
}
