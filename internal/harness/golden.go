package harness

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot pins the observable outcome of a scenario execution: the
// decoded event trace in stream order plus the per-player tallies. Struct
// field order and sorted map keys make the JSON deterministic.
type TraceSnapshot struct {
	ScenarioName string                  `json:"scenario_name"`
	Trace        []TraceEvent            `json:"trace"`
	Tally        map[string]ExpectedLine `json:"tally"`
	Unresolved   int                     `json:"unresolved"`
}

// RunWithGolden executes a scenario and compares its trace snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// Regenerate golden files with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	if !result.Pass {
		return fmt.Errorf("scenario %s: %v", scenario.Name, result.Errors)
	}

	snapshot := TraceSnapshot{
		ScenarioName: scenario.Name,
		Trace:        result.Trace,
		Tally:        result.Tally,
		Unresolved:   result.Unresolved,
	}

	data, err := json.MarshalIndent(&snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	data = append(data, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)

	return nil
}
