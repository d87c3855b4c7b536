// Package schema exports JSON Schemas for scenario documents and validates
// scenario files against them.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/ormasoftchile/zarah/pkg/scenario"
)

// Schema IDs of the exported documents.
const (
	SuiteSchemaID    = "https://github.com/ormasoftchile/zarah/schemas/suite-v1.json"
	ScenarioSchemaID = "https://github.com/ormasoftchile/zarah/schemas/scenario-v1.json"
)

func reflector() *jsonschema.Reflector {
	r := new(jsonschema.Reflector)
	r.DoNotReference = false
	r.RequiredFromJSONSchemaTags = true
	return r
}

// GenerateSuiteJSONSchema produces a Draft 2020-12 schema for suite
// documents.
func GenerateSuiteJSONSchema() ([]byte, error) {
	s := reflector().Reflect(&scenario.Suite{})
	s.ID = SuiteSchemaID
	s.Title = "Zarah Test Suite v1"
	s.Description = "Schema for zarah suite documents (JSON or YAML)"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal suite schema: %w", err)
	}
	return data, nil
}

// GenerateScenarioJSONSchema produces a Draft 2020-12 schema for single
// scenario documents.
func GenerateScenarioJSONSchema() ([]byte, error) {
	s := reflector().Reflect(&scenario.Scenario{})
	s.ID = ScenarioSchemaID
	s.Title = "Zarah Test Scenario v1"
	s.Description = "Schema for a single zarah scenario document (JSON or YAML)"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal scenario schema: %w", err)
	}
	return data, nil
}

// Generate returns the schema named by kind: "suite" or "scenario".
func Generate(kind string) ([]byte, error) {
	switch kind {
	case "suite", "":
		return GenerateSuiteJSONSchema()
	case "scenario":
		return GenerateScenarioJSONSchema()
	}
	return nil, fmt.Errorf("unknown schema type %q, use 'suite' or 'scenario'", kind)
}
