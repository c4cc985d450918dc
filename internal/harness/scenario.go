package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance scenario: a synthetic stream layout and
// the statistics the pipeline must reconstruct from it.
type Scenario struct {
	// Name uniquely identifies the scenario; it is also the golden file
	// name.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description,omitempty"`

	// Entities seeds the registry: entity id → player name.
	Entities map[uint16]string `yaml:"entities"`

	// Records are placed into the stream at their declared offsets, which
	// must be ascending and non-overlapping.
	Records []RecordStep `yaml:"records"`

	// Duration, when non-zero, enables the post-game ceremony filter.
	Duration float32 `yaml:"duration,omitempty"`

	// Pad extends the stream with trailing zeros past the last record.
	Pad int `yaml:"pad,omitempty"`

	Expect Expectation `yaml:"expect"`
}

// RecordStep is one synthetic record placement.
type RecordStep struct {
	// Type is "death", "kill", or "credit".
	Type string `yaml:"type"`

	// Entity is the record's entity id (victim, killer, or beneficiary).
	Entity uint16 `yaml:"entity"`

	// At is the absolute offset of the record marker. Kill and credit
	// records with a timestamp also occupy the 7 tick bytes before At.
	At int `yaml:"at"`

	// Timestamp is the simulation-tick time. Required for death records;
	// optional for kill and credit (omitted means no tick header).
	Timestamp float32 `yaml:"timestamp,omitempty"`

	// Value and Flag apply to credit records only.
	Value float32 `yaml:"value,omitempty"`
	Flag  uint8   `yaml:"flag,omitempty"`
}

// Expectation is the scenario's required outcome.
type Expectation struct {
	// Tallies maps player name to the exact expected counters. Players
	// omitted here are expected to tally all zeros.
	Tallies map[string]ExpectedLine `yaml:"tallies"`

	// Unresolved is the exact expected number of unresolved events.
	Unresolved int `yaml:"unresolved"`
}

// ExpectedLine mirrors the per-entity counters. It carries JSON tags too
// because computed tallies appear in golden trace snapshots.
type ExpectedLine struct {
	Kills   int `yaml:"kills" json:"kills"`
	Deaths  int `yaml:"deaths" json:"deaths"`
	Assists int `yaml:"assists" json:"assists"`
}

// LoadScenario reads and validates a single scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := sc.validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &sc, nil
}

// LoadDir loads every *.yaml scenario in dir, sorted by filename.
func LoadDir(dir string) ([]*Scenario, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	sort.Strings(matches)

	scenarios := make([]*Scenario, 0, len(matches))
	for _, m := range matches {
		sc, loadErr := LoadScenario(m)
		if loadErr != nil {
			return nil, loadErr
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Records) == 0 {
		return fmt.Errorf("at least one record is required")
	}

	cursor := 0
	for i, r := range s.Records {
		switch r.Type {
		case "death", "kill", "credit":
		default:
			return fmt.Errorf("records[%d]: unknown type %q", i, r.Type)
		}
		if r.Type == "death" && r.Timestamp == 0 {
			return fmt.Errorf("records[%d]: death requires a timestamp", i)
		}

		start := r.At
		if r.Type != "death" && r.Timestamp != 0 {
			start -= tickLen // tick header precedes the marker
		}
		if start < cursor {
			return fmt.Errorf("records[%d]: offset %d overlaps previous record", i, r.At)
		}
		cursor = r.At + recordLen(r.Type)
	}

	return nil
}
