package harness

import (
	"fmt"
	"sort"

	"github.com/detrik/vgrscope/internal/attrib"
	"github.com/detrik/vgrscope/internal/format"
	"github.com/detrik/vgrscope/internal/record"
	"github.com/detrik/vgrscope/internal/roster"
	"github.com/detrik/vgrscope/internal/stream"
	"github.com/detrik/vgrscope/internal/testutil"
	"github.com/detrik/vgrscope/internal/truth"
)

// tickLen is the size of the tick header preceding a record marker.
const tickLen = 7

// Result is the outcome of executing one scenario.
type Result struct {
	// Pass is true when every expectation held.
	Pass bool `json:"pass"`

	// Trace lists the events the decoders actually recovered, in stream
	// offset order. Used for golden comparison.
	Trace []TraceEvent `json:"trace"`

	// Tally are the computed counters keyed by player name.
	Tally map[string]ExpectedLine `json:"tally"`

	// Unresolved is the number of unresolved events.
	Unresolved int `json:"unresolved"`

	// Errors holds expectation failures. Empty when Pass.
	Errors []string `json:"errors,omitempty"`
}

// TraceEvent is one decoded event in a scenario trace. Float fields are
// rounded so traces serialize cleanly into golden files.
type TraceEvent struct {
	Type      string   `json:"type"`
	Entity    uint16   `json:"entity"`
	Offset    int      `json:"offset"`
	Timestamp *float64 `json:"timestamp,omitempty"`
	Value     *float64 `json:"value,omitempty"`
	Flag      *uint8   `json:"flag,omitempty"`
}

// Run executes a scenario against the real pipeline: it renders the
// declared records into a byte-exact stream, scans and decodes it with the
// default format profile, attributes the events, and evaluates the
// expectations.
func Run(scenario *Scenario) (*Result, error) {
	prof, err := format.Default()
	if err != nil {
		return nil, fmt.Errorf("harness: %w", err)
	}

	s, err := render(scenario)
	if err != nil {
		return nil, err
	}

	seed := roster.DefaultSeed()
	for id, name := range scenario.Entities {
		seed.Entities[id] = name
	}
	reg := roster.Build(nil, seed)

	dec := record.NewDecoder(prof)
	events := dec.Events(s)

	eng := attrib.New(prof, reg, nil)
	res := eng.Attribute(events, attrib.Options{Duration: scenario.Duration})

	result := &Result{
		Pass:       true,
		Trace:      traceOf(events),
		Tally:      tallyByName(res, reg),
		Unresolved: len(res.Unresolved),
	}

	evaluate(scenario, reg, res, result)
	return result, nil
}

// render builds the scenario's synthetic stream.
func render(scenario *Scenario) (s *stream.Stream, err error) {
	defer func() {
		// The builder panics on overlapping placements; scenario
		// validation should have caught that, but a load-time bypass must
		// not crash the test process.
		if r := recover(); r != nil {
			err = fmt.Errorf("render scenario %s: %v", scenario.Name, r)
		}
	}()

	b := testutil.NewStreamBuilder()
	for _, r := range scenario.Records {
		switch r.Type {
		case "death":
			b.PadTo(r.At)
			b.Death(r.Entity, r.Timestamp)
		case "kill":
			if r.Timestamp != 0 {
				b.PadTo(r.At - tickLen)
				b.KillAtTick(r.Entity, r.Timestamp)
			} else {
				b.PadTo(r.At)
				b.Kill(r.Entity)
			}
		case "credit":
			if r.Timestamp != 0 {
				b.PadTo(r.At - tickLen)
				b.Credit(r.Entity, r.Value, r.Flag, r.Timestamp)
			} else {
				b.PadTo(r.At)
				b.CreditNoTick(r.Entity, r.Value, r.Flag)
			}
		}
	}
	if scenario.Pad > 0 {
		b.Pad(scenario.Pad)
	}
	return b.Stream(), nil
}

func recordLen(typ string) int {
	switch typ {
	case "death":
		return 13
	case "kill":
		return 16
	case "credit":
		return 12
	}
	return 0
}

func traceOf(events []record.Event) []TraceEvent {
	trace := make([]TraceEvent, 0, len(events))
	for _, ev := range events {
		switch v := ev.(type) {
		case record.Death:
			trace = append(trace, TraceEvent{
				Type: "death", Entity: uint16(v.Victim), Offset: v.Off,
				Timestamp: roundF(v.Timestamp),
			})
		case record.Kill:
			te := TraceEvent{Type: "kill", Entity: uint16(v.Killer), Offset: v.Off}
			if v.HasHint {
				te.Timestamp = roundF(v.Hint)
			}
			trace = append(trace, te)
		case record.Credit:
			te := TraceEvent{
				Type: "credit", Entity: uint16(v.Beneficiary), Offset: v.Off,
				Value: roundF(v.Value), Flag: &v.Flag,
			}
			if v.HasTimestamp {
				te.Timestamp = roundF(v.Timestamp)
			}
			trace = append(trace, te)
		}
	}
	return trace
}

// roundF converts a decoded f32 to a float64 rounded to 4 decimals so
// values like 3.2 do not serialize with float32 conversion noise.
func roundF(v float32) *float64 {
	r := float64(int64(float64(v)*10000+0.5)) / 10000
	return &r
}

func tallyByName(res *attrib.Result, reg *roster.Registry) map[string]ExpectedLine {
	out := make(map[string]ExpectedLine, len(res.Tally))
	for _, id := range res.Entities() {
		line := res.Line(id)
		ident, ok := reg.Resolve(id)
		if !ok {
			continue
		}
		out[ident.Name] = ExpectedLine{Kills: line.Kills, Deaths: line.Deaths, Assists: line.Assists}
	}
	return out
}

// evaluate checks the scenario's expectations, reusing the ground-truth
// comparator for the tally portion.
func evaluate(scenario *Scenario, reg *roster.Registry, res *attrib.Result, result *Result) {
	expected := &truth.Match{Players: map[string]truth.PlayerTruth{}}
	for name, line := range scenario.Expect.Tallies {
		expected.Players[name] = truth.PlayerTruth{
			Kills: line.Kills, Deaths: line.Deaths, Assists: line.Assists,
		}
	}

	if len(expected.Players) > 0 {
		report := truth.Compare(expected, reg, res)
		for _, d := range report.Deltas {
			result.addError(fmt.Sprintf("%s: expected %d %s, got %d", d.Player, d.Expected, d.Metric, d.Actual))
		}
		for _, name := range report.Missing {
			result.addError(fmt.Sprintf("%s: player not in registry", name))
		}
	}

	// Players tallied but not mentioned in the expectation must be all
	// zeros; a scenario that silently tallies a bystander is a bug.
	var tallied []string
	for name := range result.Tally {
		tallied = append(tallied, name)
	}
	sort.Strings(tallied)
	for _, name := range tallied {
		if _, expectedName := scenario.Expect.Tallies[name]; expectedName {
			continue
		}
		if line := result.Tally[name]; line != (ExpectedLine{}) {
			result.addError(fmt.Sprintf("%s: unexpected tally %+v", name, line))
		}
	}

	if result.Unresolved != scenario.Expect.Unresolved {
		result.addError(fmt.Sprintf("expected %d unresolved events, got %d",
			scenario.Expect.Unresolved, result.Unresolved))
	}
}

func (r *Result) addError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}
