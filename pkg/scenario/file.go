package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSuiteName names a suite document that does not carry one.
const DefaultSuiteName = "Test Suite"

// Format identifies a scenario document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf infers the document format from a file extension.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// LoadFile reads a scenario or suite document from disk.
func LoadFile(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	suite, err := Parse(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return suite, nil
}

// Parse decodes a document that is either a suite (it has a "scenarios"
// key) or a single scenario. A single scenario is wrapped in a suite named
// after it.
func Parse(data []byte, format Format) (*Suite, error) {
	unmarshal := json.Unmarshal
	if format == FormatYAML {
		unmarshal = yaml.Unmarshal
	}

	var probe map[string]any
	if err := unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parse %s: %w", format, err)
	}
	if probe == nil {
		return nil, fmt.Errorf("empty document")
	}

	if _, ok := probe["scenarios"]; ok {
		var suite Suite
		if err := unmarshal(data, &suite); err != nil {
			return nil, fmt.Errorf("decode suite: %w", err)
		}
		if suite.Name == "" {
			suite.Name = DefaultSuiteName
		}
		return &suite, nil
	}

	var sc Scenario
	if err := unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("scenario has no name")
	}
	return &Suite{Name: sc.Name, Scenarios: []Scenario{sc}}, nil
}

// Marshal encodes a suite in the given format.
func Marshal(suite *Suite, format Format) ([]byte, error) {
	if format == FormatYAML {
		return yaml.Marshal(suite)
	}
	return json.MarshalIndent(suite, "", "  ")
}
