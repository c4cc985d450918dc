package store

import (
	"testing"

	"github.com/detrik/vgrscope/internal/attrib"
	"github.com/detrik/vgrscope/internal/record"
	"github.com/detrik/vgrscope/internal/roster"
)

func TestNewRun(t *testing.T) {
	seed := roster.DefaultSeed()
	seed.Entities[1501] = "Meridian"
	seed.Entities[1505] = "Rakshasa"
	reg := roster.Build(nil, seed)

	res := &attrib.Result{
		Tally: map[record.EntityID]attrib.Line{
			1505: {Kills: 4, Assists: 1},
			1501: {Deaths: 2},
		},
		Unresolved: []attrib.Unresolved{
			{Kind: "kill", Entity: 1505, Offset: 2048, Reason: attrib.ReasonNoCreditGroup},
		},
	}

	run := NewRun("match-0417", "fp-1", 1122.5, reg, res)

	if run.ID == "" {
		t.Error("run has no id")
	}
	if run.Replay != "match-0417" || run.Fingerprint != "fp-1" {
		t.Errorf("run metadata mismatch: %+v", run)
	}
	if run.CreatedAt.IsZero() {
		t.Error("run has no created timestamp")
	}

	if len(run.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(run.Lines))
	}
	// Lines come out in ascending entity order.
	if run.Lines[0].Entity != 1501 || run.Lines[1].Entity != 1505 {
		t.Errorf("lines out of order: %+v", run.Lines)
	}
	if run.Lines[0].Name != "Meridian" || run.Lines[0].Deaths != 2 {
		t.Errorf("line mismatch: %+v", run.Lines[0])
	}
	if run.Lines[1].Kills != 4 || run.Lines[1].Assists != 1 {
		t.Errorf("line mismatch: %+v", run.Lines[1])
	}

	if len(run.Unresolved) != 1 {
		t.Fatalf("expected 1 unresolved row, got %d", len(run.Unresolved))
	}
	if run.Unresolved[0].Reason != "NO_CREDIT_GROUP" || run.Unresolved[0].Offset != 2048 {
		t.Errorf("unresolved mismatch: %+v", run.Unresolved[0])
	}
}

func TestNewRun_DistinctIDs(t *testing.T) {
	reg := roster.Build(nil, nil)
	res := &attrib.Result{Tally: map[record.EntityID]attrib.Line{}}

	a := NewRun("m", "fp", 0, reg, res)
	b := NewRun("m", "fp", 0, reg, res)
	if a.ID == b.ID {
		t.Error("two runs share an id")
	}
}
