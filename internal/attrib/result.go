package attrib

import (
	"sort"

	"github.com/detrik/vgrscope/internal/record"
)

// Line is the per-entity counter set.
type Line struct {
	Kills   int `json:"kills"`
	Deaths  int `json:"deaths"`
	Assists int `json:"assists"`
}

// UnresolvedReason categorizes why an event could not be attributed.
type UnresolvedReason string

const (
	// ReasonNoCreditGroup: a kill record had no credit group within the
	// proximity window, so no timestamp could be borrowed for it.
	ReasonNoCreditGroup UnresolvedReason = "NO_CREDIT_GROUP"

	// ReasonUnknownEntity: the event's entity id is not in the registry.
	ReasonUnknownEntity UnresolvedReason = "UNKNOWN_ENTITY"
)

// Unresolved is an event that completed decoding but could not be
// attributed. Recorded rather than dropped so partial or unusual captures
// still produce reviewable output.
type Unresolved struct {
	Kind   string           `json:"kind"` // "kill" or "death"
	Entity record.EntityID  `json:"entity"`
	Offset int              `json:"offset"`
	Reason UnresolvedReason `json:"reason"`
}

// Result is the outcome of one attribution run over a replay.
type Result struct {
	// Tally holds the per-entity counters. Only registered entities appear.
	Tally map[record.EntityID]Line

	// Unresolved lists events that were decoded but not attributed,
	// in ascending stream offset order.
	Unresolved []Unresolved
}

// Line returns the counters for an entity, zero-valued if the entity never
// appeared in an attributable event.
func (r *Result) Line(id record.EntityID) Line {
	return r.Tally[id]
}

// Entities returns the tallied entity ids in ascending order.
func (r *Result) Entities() []record.EntityID {
	ids := make([]record.EntityID, 0, len(r.Tally))
	for id := range r.Tally {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
