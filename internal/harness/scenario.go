package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a sequence of builds over one project directory.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Files are created before the first build and never recorded.
	Files []string `yaml:"files,omitempty"`

	// Builds run in order, each in a new generation.
	Builds []Build `yaml:"builds"`

	// Assertions validate the final tree and ledger.
	Assertions []Assertion `yaml:"assertions"`
}

// Build is one generation.
type Build struct {
	// OutputRoot is the configured output root. Empty keeps the previous
	// build's root, or "_site" for the first build.
	OutputRoot string `yaml:"output_root,omitempty"`

	// Outputs are written and recorded in order. Paths are relative to the
	// project root.
	Outputs []string `yaml:"outputs"`

	// Incomplete builds start and record but never sweep, like a build that
	// failed part way.
	Incomplete bool `yaml:"incomplete,omitempty"`
}

// Assertion validates the final state of a scenario.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Paths are checked by exists, absent and untracked.
	Paths []string `yaml:"paths,omitempty"`

	// Path and Generation are checked by generation.
	Path       string `yaml:"path,omitempty"`
	Generation int64  `yaml:"generation,omitempty"`

	// Build is the 1-based build index checked by summary.
	Build int `yaml:"build,omitempty"`

	// Equals is the expected summary or recorded root.
	Equals string `yaml:"equals,omitempty"`
}

// Assertion type constants.
const (
	AssertExists       = "exists"
	AssertAbsent       = "absent"
	AssertGeneration   = "generation"
	AssertUntracked    = "untracked"
	AssertSummary      = "summary"
	AssertRecordedRoot = "recorded_root"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if s.Description == "" {
		return errors.New("description is required")
	}
	if len(s.Builds) == 0 {
		return errors.New("builds list is required and must be non-empty")
	}

	for i, a := range s.Assertions {
		switch a.Type {
		case AssertExists, AssertAbsent, AssertUntracked:
			if len(a.Paths) == 0 {
				return fmt.Errorf("assertion %d (%s): paths is required", i, a.Type)
			}
		case AssertGeneration:
			if a.Path == "" {
				return fmt.Errorf("assertion %d (%s): path is required", i, a.Type)
			}
		case AssertSummary:
			if a.Build < 1 || a.Build > len(s.Builds) {
				return fmt.Errorf("assertion %d (%s): build must be between 1 and %d", i, a.Type, len(s.Builds))
			}
		case AssertRecordedRoot:
			if a.Equals == "" {
				return fmt.Errorf("assertion %d (%s): equals is required", i, a.Type)
			}
		default:
			return fmt.Errorf("assertion %d: unknown type %q", i, a.Type)
		}
	}
	return nil
}
