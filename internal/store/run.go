package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/detrik/vgrscope/internal/attrib"
	"github.com/detrik/vgrscope/internal/roster"
)

// Run is one persisted attribution result.
type Run struct {
	ID          string    `json:"id"`
	Replay      string    `json:"replay"`
	Fingerprint string    `json:"fingerprint"`
	Duration    float64   `json:"duration"`
	CreatedAt   time.Time `json:"created_at"`

	Lines      []PlayerLine    `json:"lines"`
	Unresolved []UnresolvedRow `json:"unresolved,omitempty"`
}

// PlayerLine is one player's stat line within a run.
type PlayerLine struct {
	Entity  uint16 `json:"entity"`
	Name    string `json:"name"`
	Hero    string `json:"hero,omitempty"`
	Team    string `json:"team"`
	Kills   int    `json:"kills"`
	Deaths  int    `json:"deaths"`
	Assists int    `json:"assists"`
}

// UnresolvedRow is one decoded but unattributed event within a run.
type UnresolvedRow struct {
	Kind   string `json:"kind"`
	Entity uint16 `json:"entity"`
	Offset int    `json:"offset"`
	Reason string `json:"reason"`
}

// NewRun assembles a persistable run from an attribution result. The run
// gets a fresh UUID; entity ids resolve through the registry and lines come
// out in ascending entity order, so the same result always serializes the
// same way apart from id and timestamp.
func NewRun(replay, fingerprint string, duration float32, reg *roster.Registry, res *attrib.Result) Run {
	run := Run{
		ID:          uuid.NewString(),
		Replay:      replay,
		Fingerprint: fingerprint,
		Duration:    float64(duration),
		CreatedAt:   time.Now().UTC(),
	}

	for _, id := range res.Entities() {
		ident, ok := reg.Resolve(id)
		if !ok {
			continue
		}
		line := res.Line(id)
		run.Lines = append(run.Lines, PlayerLine{
			Entity:  uint16(id),
			Name:    ident.Name,
			Hero:    ident.Hero,
			Team:    string(ident.Team),
			Kills:   line.Kills,
			Deaths:  line.Deaths,
			Assists: line.Assists,
		})
	}

	for _, u := range res.Unresolved {
		run.Unresolved = append(run.Unresolved, UnresolvedRow{
			Kind:   u.Kind,
			Entity: uint16(u.Entity),
			Offset: u.Offset,
			Reason: string(u.Reason),
		})
	}

	return run
}
