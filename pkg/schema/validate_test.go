package schema

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ormasoftchile/zarah/pkg/scenario"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func findings(errs []*ValidationError, phase, fragment string) []*ValidationError {
	var out []*ValidationError
	for _, e := range errs {
		if e.Phase == phase && strings.Contains(e.Error(), fragment) {
			out = append(out, e)
		}
	}
	return out
}

const validSuite = `{
  "name": "Smoke",
  "scenarios": [
    {
      "name": "Home",
      "tags": ["smoke"],
      "steps": [
        {"name": "Open", "action": "navigate", "target": "https://example.com", "critical": true},
        {"name": "Check", "action": "assert_text", "target": "Example Domain"}
      ]
    }
  ]
}`

func TestValidateFileValidSuite(t *testing.T) {
	suite, errs := ValidateFile(writeFile(t, "suite.json", validSuite))
	if len(errs) != 0 {
		t.Fatalf("unexpected findings: %v", errs)
	}
	if suite.Name != "Smoke" || len(suite.Scenarios) != 1 {
		t.Errorf("suite = %+v", suite)
	}
}

func TestValidateFileValidYAMLScenario(t *testing.T) {
	doc := `name: Login
data:
  base: https://example.com
steps:
  - name: Open
    action: navigate
    target: "{{ .base }}/login"
  - name: Wait
    action: wait
    timeout: 500
`
	_, errs := ValidateFile(writeFile(t, "login.yaml", doc))
	if len(errs) != 0 {
		t.Fatalf("unexpected findings: %v", errs)
	}
}

func TestValidateFileStructural(t *testing.T) {
	suite, errs := ValidateFile(writeFile(t, "bad.json", `{"name": `))
	if suite != nil {
		t.Error("expected nil suite")
	}
	if len(errs) != 1 || errs[0].Phase != "structural" {
		t.Errorf("findings = %v", errs)
	}
}

func TestValidateFileSemantic(t *testing.T) {
	tests := []struct {
		name, doc string
	}{
		{"missing action", `{"name": "x", "steps": [{"name": "s"}]}`},
		{"unknown field", `{"name": "x", "colour": "red", "steps": []}`},
		{"negative timeout", `{"name": "x", "steps": [{"name": "s", "action": "wait", "timeout": -5}]}`},
		{"nameless setup step", `{"name": "x", "setup_steps": [{"action": "wait"}], "steps": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := ValidateFile(writeFile(t, "doc.json", tt.doc))
			if len(findings(errs, "semantic", "")) == 0 {
				t.Errorf("expected semantic error, got %v", errs)
			}
			if !HasErrors(errs) {
				t.Error("HasErrors = false")
			}
		})
	}
}

func TestValidateUnknownActionIsWarning(t *testing.T) {
	doc := `{"name": "x", "steps": [{"name": "hover", "action": "hover", "target": "#menu"}]}`
	_, errs := ValidateFile(writeFile(t, "doc.json", doc))
	got := findings(errs, "domain", "unknown action")
	if len(got) != 1 || got[0].Severity != "warning" {
		t.Fatalf("findings = %v", errs)
	}
	if HasErrors(errs) {
		t.Errorf("unknown action should not be an error: %v", errs)
	}
}

func TestValidateDomain(t *testing.T) {
	a := scenario.NewScenario("dup", "")
	a.AddStep(scenario.NewStep("go", scenario.ActionNavigate, "https://example.com"))
	b := scenario.NewScenario("dup", "")
	b.AddStep(scenario.NewStep("click", scenario.ActionClick, ""))
	b.AddStep(scenario.NewStep("templ", scenario.ActionType, "{{ .missing }}"))
	b.AddTeardown(func() scenario.Step {
		s := scenario.NewStep("out", scenario.ActionClick, "#logout")
		s.Critical = true
		return s
	}())
	c := scenario.NewScenario("nosteps", "")
	suite := &scenario.Suite{Name: "s", Scenarios: []scenario.Scenario{*a, *b, *c}}

	errs := ValidateDomain(suite)
	checks := []struct {
		fragment, severity string
	}{
		{"duplicate scenario name", "error"},
		{"click step requires a target", "error"},
		{`undefined data key "missing"`, "error"},
		{"critical has no effect", "warning"},
		{"has no main steps", "warning"},
	}
	for _, c := range checks {
		got := findings(errs, "domain", c.fragment)
		if len(got) == 0 {
			t.Errorf("missing %q in %v", c.fragment, errs)
			continue
		}
		if got[0].Severity != c.severity {
			t.Errorf("%q severity = %q, want %q", c.fragment, got[0].Severity, c.severity)
		}
	}
}

func TestValidateDomainPaths(t *testing.T) {
	sc := scenario.NewScenario("x", "")
	sc.AddSetup(scenario.NewStep("", scenario.ActionWait, ""))
	errs := ValidateDomain(&scenario.Suite{Scenarios: []scenario.Scenario{*sc}})
	got := findings(errs, "domain", "step name is empty")
	if len(got) != 1 || got[0].Path != "scenarios[0].setup_steps[0].name" {
		t.Errorf("findings = %v", errs)
	}
}

func TestInstancePath(t *testing.T) {
	if got, want := instancePath([]string{"scenarios", "0", "steps", "12", "action"}), "scenarios[0].steps[12].action"; got != want {
		t.Errorf("instancePath = %q, want %q", got, want)
	}
}

func TestGenerate(t *testing.T) {
	for _, kind := range []string{"suite", "scenario"} {
		data, err := Generate(kind)
		if err != nil {
			t.Fatalf("Generate(%q): %v", kind, err)
		}
		if !strings.Contains(string(data), `"screenshot_on_failure"`) {
			t.Errorf("%s schema missing step fields", kind)
		}
	}
	if _, err := Generate("runbook"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestValidateTestdataSuites(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "testdata", "suites", "*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Fatal("no example suites found")
	}
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			suite, errs := ValidateFile(path)
			if HasErrors(errs) {
				for _, e := range errs {
					t.Errorf("%s", e.Error())
				}
			}
			if suite == nil || len(suite.Scenarios) == 0 {
				t.Error("expected at least one scenario")
			}
		})
	}
}
