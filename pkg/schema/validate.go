package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/ormasoftchile/zarah/pkg/assertions"
	"github.com/ormasoftchile/zarah/pkg/scenario"
)

// ValidationError represents a single validation finding with location context.
type ValidationError struct {
	Phase    string `json:"phase"` // structural, semantic, domain
	Path     string `json:"path"`  // e.g. "scenarios[0].steps[2].action"
	Message  string `json:"message"`
	Severity string `json:"severity"` // error, warning
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Phase, e.Path, e.Message)
}

// HasErrors reports whether any finding has error severity.
func HasErrors(errs []*ValidationError) bool {
	for _, e := range errs {
		if e.Severity == "error" {
			return true
		}
	}
	return false
}

// ValidateFile runs the validation pipeline on a scenario or suite file:
// structural (decode), semantic (JSON Schema) and domain (scenario rules).
// The suite is nil only when the file could not be decoded.
func ValidateFile(path string) (*scenario.Suite, []*ValidationError) {
	suite, err := scenario.LoadFile(path)
	if err != nil {
		return nil, []*ValidationError{{Phase: "structural", Message: err.Error(), Severity: "error"}}
	}

	var errs []*ValidationError
	data, err := os.ReadFile(path)
	if err != nil {
		return suite, []*ValidationError{{Phase: "structural", Message: err.Error(), Severity: "error"}}
	}
	errs = append(errs, validateSemantic(data)...)
	errs = append(errs, ValidateDomain(suite)...)
	return suite, errs
}

// validateSemantic checks the raw document against the schema matching its
// shape. YAML is a superset of JSON so one decoder covers both encodings.
func validateSemantic(data []byte) []*ValidationError {
	semantic := func(path, msg string) []*ValidationError {
		return []*ValidationError{{Phase: "semantic", Path: path, Message: msg, Severity: "error"}}
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return semantic("", fmt.Sprintf("decode document: %v", err))
	}
	doc, err := toJSONValue(raw)
	if err != nil {
		return semantic("", err.Error())
	}

	id, generate := ScenarioSchemaID, GenerateScenarioJSONSchema
	if m, ok := doc.(map[string]any); ok {
		if _, isSuite := m["scenarios"]; isSuite {
			id, generate = SuiteSchemaID, GenerateSuiteJSONSchema
		}
	}

	schemaJSON, err := generate()
	if err != nil {
		return semantic("", fmt.Sprintf("generate schema: %v", err))
	}
	var schemaDoc any
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return semantic("", fmt.Sprintf("unmarshal schema: %v", err))
	}

	c := sjsonschema.NewCompiler()
	if err := c.AddResource(id, schemaDoc); err != nil {
		return semantic("", fmt.Sprintf("add schema resource: %v", err))
	}
	sch, err := c.Compile(id)
	if err != nil {
		return semantic("", fmt.Sprintf("compile schema: %v", err))
	}

	if err := sch.Validate(doc); err != nil {
		ve, ok := err.(*sjsonschema.ValidationError)
		if !ok {
			return semantic("", err.Error())
		}
		var errs []*ValidationError
		for _, cause := range flattenValidationErrors(ve) {
			errs = append(errs, &ValidationError{
				Phase:    "semantic",
				Path:     instancePath(cause.InstanceLocation),
				Message:  fmt.Sprintf("%v", cause.ErrorKind),
				Severity: "error",
			})
		}
		return errs
	}
	return nil
}

// toJSONValue normalizes a decoded YAML value to what encoding/json would
// have produced.
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("convert document: %w", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("convert document: %w", err)
	}
	return out, nil
}

// instancePath renders ["scenarios","0","steps","1"] as scenarios[0].steps[1].
func instancePath(loc []string) string {
	var b strings.Builder
	for _, part := range loc {
		if isIndex(part) {
			b.WriteString("[" + part + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// flattenValidationErrors recursively collects all leaf validation errors.
func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}

var templateRef = regexp.MustCompile(`\{\{\s*\.(\w+)\s*\}\}`)

// ValidateDomain applies the scenario rules a schema cannot express.
func ValidateDomain(suite *scenario.Suite) []*ValidationError {
	var errs []*ValidationError
	add := func(path, severity, format string, args ...any) {
		errs = append(errs, &ValidationError{
			Phase:    "domain",
			Path:     path,
			Message:  fmt.Sprintf(format, args...),
			Severity: severity,
		})
	}

	if len(suite.Scenarios) == 0 {
		add("scenarios", "error", "suite has no scenarios")
	}

	seen := map[string]int{}
	for i := range suite.Scenarios {
		sc := &suite.Scenarios[i]
		base := fmt.Sprintf("scenarios[%d]", i)

		if strings.TrimSpace(sc.Name) == "" {
			add(base+".name", "error", "scenario name is empty")
		} else if first, dup := seen[sc.Name]; dup {
			add(base+".name", "error", "duplicate scenario name %q (first at scenarios[%d])", sc.Name, first)
		} else {
			seen[sc.Name] = i
		}
		if len(sc.Steps) == 0 {
			add(base+".steps", "warning", "scenario %q has no main steps", sc.Name)
		}

		phases := []struct {
			key   string
			steps []scenario.Step
		}{
			{"setup_steps", sc.SetupSteps},
			{"steps", sc.Steps},
			{"teardown_steps", sc.TeardownSteps},
		}
		for _, ph := range phases {
			for j, st := range ph.steps {
				path := fmt.Sprintf("%s.%s[%d]", base, ph.key, j)
				validateStep(path, ph.key, st, sc.Data, add)
			}
		}
	}
	return errs
}

func validateStep(path, phase string, st scenario.Step, data map[string]any, add func(path, severity, format string, args ...any)) {
	if strings.TrimSpace(st.Name) == "" {
		add(path+".name", "warning", "step name is empty")
	}
	if !st.Action.Valid() {
		add(path+".action", "warning", "unknown action %q will fail at run time", st.Action)
	}
	if phase == "teardown_steps" && st.Critical {
		add(path+".critical", "warning", "critical has no effect on teardown steps")
	}

	switch st.Action {
	case scenario.ActionClick, scenario.ActionType, scenario.ActionAssertText,
		scenario.ActionAssertElement, scenario.ActionNavigate:
		if st.Target == "" {
			add(path+".target", "error", "%s step requires a target", st.Action)
		}
	}
	if st.Action == scenario.ActionNavigate && !strings.Contains(st.Target, "{{") &&
		(strings.HasPrefix(st.Target, "http://") || strings.HasPrefix(st.Target, "https://")) &&
		!assertions.IsValidURL(st.Target) {
		add(path+".target", "warning", "navigate target %q does not look like a valid URL", st.Target)
	}

	for _, field := range []struct{ name, value string }{{"name", st.Name}, {"target", st.Target}, {"value", st.Value}} {
		for _, m := range templateRef.FindAllStringSubmatch(field.value, -1) {
			if _, ok := data[m[1]]; !ok {
				add(path+"."+field.name, "error", "template references undefined data key %q", m[1])
			}
		}
	}
}
