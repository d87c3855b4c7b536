package scenario

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseSingleScenarioJSON(t *testing.T) {
	doc := `{
  "name": "Example",
  "description": "loads",
  "steps": [
    {"name": "Navigate", "action": "navigate", "target": "https://example.com", "critical": true},
    {"name": "Check", "action": "assert_text", "target": "Example Domain"}
  ],
  "tags": ["smoke"]
}`
	suite, err := Parse([]byte(doc), FormatJSON)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if suite.Name != "Example" {
		t.Errorf("suite name = %q, want Example", suite.Name)
	}
	if len(suite.Scenarios) != 1 {
		t.Fatalf("scenarios = %d, want 1", len(suite.Scenarios))
	}
	sc := suite.Scenarios[0]
	if len(sc.Steps) != 2 || !sc.Steps[0].Critical {
		t.Errorf("steps = %+v", sc.Steps)
	}
	if !sc.Steps[1].ScreenshotOnFailure {
		t.Error("screenshot_on_failure should default to true")
	}
}

func TestParseSuiteYAML(t *testing.T) {
	doc := `
name: Nightly
parallel: true
stop_on_failure: true
scenarios:
  - name: First
    steps:
      - name: Go
        action: navigate
        target: https://example.com
  - name: Second
    priority: 1
    setup_steps:
      - {name: Open, action: navigate, target: "https://example.com", critical: true}
    steps:
      - {name: Wait, action: wait, timeout: 200}
`
	suite, err := Parse([]byte(doc), FormatYAML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if suite.Name != "Nightly" || !suite.Parallel || !suite.StopOnFailure {
		t.Errorf("suite = %+v", suite)
	}
	if len(suite.Scenarios) != 2 {
		t.Fatalf("scenarios = %d, want 2", len(suite.Scenarios))
	}
	if suite.Scenarios[0].Priority != DefaultPriority {
		t.Errorf("priority = %d, want default", suite.Scenarios[0].Priority)
	}
	second := suite.Scenarios[1]
	if second.Priority != 1 || len(second.SetupSteps) != 1 || second.Steps[0].Timeout != 200 {
		t.Errorf("second = %+v", second)
	}
	if !second.Steps[0].ScreenshotOnFailure {
		t.Error("yaml step should default screenshot_on_failure to true")
	}
}

func TestParseSuiteWithoutName(t *testing.T) {
	suite, err := Parse([]byte(`{"scenarios": [{"name": "a", "steps": []}]}`), FormatJSON)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if suite.Name != DefaultSuiteName {
		t.Errorf("name = %q, want %q", suite.Name, DefaultSuiteName)
	}
}

func TestParseRejectsNamelessScenario(t *testing.T) {
	if _, err := Parse([]byte(`{"steps": []}`), FormatJSON); err == nil {
		t.Error("expected error for scenario without name")
	}
}

func TestLoadFileAndMarshal(t *testing.T) {
	dir := t.TempDir()
	suite := DemoSuite()
	for _, f := range []Format{FormatJSON, FormatYAML} {
		data, err := Marshal(suite, f)
		if err != nil {
			t.Fatalf("Marshal %s: %v", f, err)
		}
		path := filepath.Join(dir, "demo."+string(f))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatal(err)
		}
		got, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile %s: %v", f, err)
		}
		if len(got.Scenarios) != len(suite.Scenarios) {
			t.Errorf("%s: scenarios = %d, want %d", f, len(got.Scenarios), len(suite.Scenarios))
		}
		if got.Scenarios[0].Steps[0].Target != "https://example.com" {
			t.Errorf("%s: first target = %q", f, got.Scenarios[0].Steps[0].Target)
		}
	}
}

func TestFormatOf(t *testing.T) {
	if FormatOf("a.yml") != FormatYAML || FormatOf("a.YAML") != FormatYAML || FormatOf("a.json") != FormatJSON {
		t.Error("FormatOf misdetected extension")
	}
}
