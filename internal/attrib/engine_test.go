package attrib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/detrik/vgrscope/internal/format"
	"github.com/detrik/vgrscope/internal/record"
	"github.com/detrik/vgrscope/internal/roster"
	"github.com/detrik/vgrscope/internal/testutil"
)

const (
	eidVictim = 0x05DD
	eidKiller = 0x05E1
	eidAssist = 0x05E5
	eidFourth = 0x05E9
)

func testRegistry() *roster.Registry {
	seed := roster.DefaultSeed()
	seed.Entities[eidVictim] = "victim"
	seed.Entities[eidKiller] = "killer"
	seed.Entities[eidAssist] = "assist"
	seed.Entities[eidFourth] = "fourth"
	return roster.Build(nil, seed)
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	return New(format.MustDefault(), testRegistry(), nil)
}

func decodeAll(t *testing.T, b *testutil.StreamBuilder) []record.Event {
	t.Helper()
	return record.NewDecoder(format.MustDefault()).Events(b.Stream())
}

// Scenario: a synthetic stream containing one death record and nothing
// else. The death tallies; no kills are fabricated.
func TestAttribute_LoneDeath(t *testing.T) {
	b := testutil.NewStreamBuilder()
	b.Death(eidVictim, 120.5)
	b.PadTo(60)

	res := newEngine(t).Attribute(decodeAll(t, b), Options{})

	assert.Equal(t, Line{Deaths: 1}, res.Line(eidVictim))
	assert.Zero(t, res.Line(eidKiller).Kills)

	unattributedKills := 0
	for _, u := range res.Unresolved {
		if u.Kind == "kill" {
			unattributedKills++
		}
	}
	assert.Zero(t, unattributedKills)
}

// Scenario: a kill followed within 50 bytes by three credits at one
// timestamp: killer confirmation, a bounty assist, and a duplicate
// sub-flag for the same beneficiary. Exactly one assist is credited.
func TestAttribute_KillWithCreditGroup(t *testing.T) {
	b := testutil.NewStreamBuilder()
	b.Pad(9)
	b.KillAtTick(eidKiller, 300.0)
	b.Credit(eidKiller, 1.0, 0x06, 300.0)
	b.Credit(eidAssist, 3.2, 0x06, 300.0)
	b.Credit(eidAssist, 0.5, 0x0C, 300.0)

	res := newEngine(t).Attribute(decodeAll(t, b), Options{})

	assert.Equal(t, 1, res.Line(eidKiller).Kills)
	assert.Equal(t, 1, res.Line(eidAssist).Assists, "duplicate sub-flag must not double count")
	assert.Zero(t, res.Line(eidKiller).Assists, "killer never assists own kill")
	assert.Empty(t, res.Unresolved)
}

// Scenario: a kill with no credit group within the proximity window is
// surfaced, never fabricated.
func TestAttribute_UnattributableKill(t *testing.T) {
	b := testutil.NewStreamBuilder()
	b.Pad(9)
	b.Kill(eidKiller)
	// Credit group far outside the ±200 byte window.
	b.PadTo(600)
	b.Credit(eidAssist, 1.0, 0x06, 500.0)

	res := newEngine(t).Attribute(decodeAll(t, b), Options{})

	assert.Zero(t, res.Line(eidKiller).Kills)
	require.Len(t, res.Unresolved, 1)
	assert.Equal(t, "kill", res.Unresolved[0].Kind)
	assert.Equal(t, ReasonNoCreditGroup, res.Unresolved[0].Reason)
	assert.Equal(t, record.EntityID(eidKiller), res.Unresolved[0].Entity)
}

// Scenario: two deaths sharing a timestamp tally independently.
func TestAttribute_SimultaneousDeaths(t *testing.T) {
	b := testutil.NewStreamBuilder()
	b.Death(eidVictim, 450.0)
	b.Pad(20)
	b.Death(eidFourth, 450.0)

	res := newEngine(t).Attribute(decodeAll(t, b), Options{})

	assert.Equal(t, 1, res.Line(eidVictim).Deaths)
	assert.Equal(t, 1, res.Line(eidFourth).Deaths)
}

// Two fights resolving on the same simulation tick, far apart in the
// stream, must stay separate combat events: each death attaches to the
// nearest group by stream proximity, not by timestamp alone.
func TestAttribute_SimultaneousDeathsDisambiguatedByProximity(t *testing.T) {
	b := testutil.NewStreamBuilder()

	// Fight 1 near the stream start: killer kills victim, assist helps.
	b.Pad(9)
	b.KillAtTick(eidKiller, 450.0)
	b.Death(eidVictim, 450.0)
	b.Credit(eidKiller, 1.0, 0x06, 450.0)
	b.Credit(eidAssist, 3.2, 0x06, 450.0)

	// Fight 2, same tick, over a kilobyte away: assist kills fourth solo.
	b.PadTo(1500)
	b.KillAtTick(eidAssist, 450.0)
	b.Death(eidFourth, 450.0)
	b.Credit(eidAssist, 1.0, 0x06, 450.0)

	res := newEngine(t).Attribute(decodeAll(t, b), Options{})

	assert.Equal(t, 1, res.Line(eidKiller).Kills)
	assert.Equal(t, 1, res.Line(eidAssist).Kills)
	assert.Equal(t, 1, res.Line(eidAssist).Assists,
		"assist on fight 1 still counts; fight 2 is a separate combat event")
	assert.Equal(t, 1, res.Line(eidVictim).Deaths)
	assert.Equal(t, 1, res.Line(eidFourth).Deaths)
	assert.Empty(t, res.Unresolved)
}

func TestAttribute_Idempotent(t *testing.T) {
	b := testutil.NewStreamBuilder()
	b.Pad(9)
	b.KillAtTick(eidKiller, 300.0)
	b.Credit(eidKiller, 1.0, 0x06, 300.0)
	b.Credit(eidAssist, 3.2, 0x06, 300.0)
	b.Death(eidVictim, 300.0)

	eng := newEngine(t)
	events := decodeAll(t, b)

	first := eng.Attribute(events, Options{})
	second := eng.Attribute(events, Options{})

	assert.Equal(t, first.Tally, second.Tally)
	assert.Equal(t, first.Unresolved, second.Unresolved)
}

func TestAttribute_UnknownEntitiesExcluded(t *testing.T) {
	b := testutil.NewStreamBuilder()
	b.Death(0x0BAD, 120.5) // not in registry
	b.Pad(20)
	b.Death(eidVictim, 130.5)

	res := newEngine(t).Attribute(decodeAll(t, b), Options{})

	assert.Equal(t, 1, res.Line(eidVictim).Deaths)
	_, tallied := res.Tally[record.EntityID(0x0BAD)]
	assert.False(t, tallied, "unknown entity never tallies")

	found := false
	for _, u := range res.Unresolved {
		if u.Reason == ReasonUnknownEntity && u.Entity == 0x0BAD {
			found = true
		}
	}
	assert.True(t, found, "unknown-entity death surfaced for review")
}

func TestAttribute_VictimExcludedFromAssists(t *testing.T) {
	b := testutil.NewStreamBuilder()
	b.Pad(9)
	b.KillAtTick(eidKiller, 300.0)
	b.Death(eidVictim, 300.0)
	b.Credit(eidKiller, 1.0, 0x06, 300.0)
	b.Credit(eidVictim, 3.2, 0x06, 300.0) // victim's own bounty row
	b.Credit(eidAssist, 1.0, 0x0B, 300.0)

	res := newEngine(t).Attribute(decodeAll(t, b), Options{})

	assert.Zero(t, res.Line(eidVictim).Assists, "victim never assists own death")
	assert.Equal(t, 1, res.Line(eidAssist).Assists, "repeat full-value credit is an assist confirmation")
	assert.Equal(t, 1, res.Line(eidVictim).Deaths)
}

func TestAttribute_PostGameCeremonyFiltered(t *testing.T) {
	b := testutil.NewStreamBuilder()
	b.Death(eidVictim, 900.0) // in-game
	b.Pad(20)
	b.Death(eidVictim, 1050.0) // after duration + buffer

	res := newEngine(t).Attribute(decodeAll(t, b), Options{Duration: 1000})

	assert.Equal(t, 1, res.Line(eidVictim).Deaths, "ceremony death excluded")
}

func TestAttribute_NoDurationMeansNoFilter(t *testing.T) {
	b := testutil.NewStreamBuilder()
	b.Death(eidVictim, 1050.0)

	res := newEngine(t).Attribute(decodeAll(t, b), Options{})
	assert.Equal(t, 1, res.Line(eidVictim).Deaths)
}

func TestAttribute_CreditWithoutTimestampJoinsNearbyGroup(t *testing.T) {
	b := testutil.NewStreamBuilder()
	b.Pad(9)
	b.KillAtTick(eidKiller, 300.0)
	b.Credit(eidKiller, 1.0, 0x06, 300.0)
	// Sub-flag record whose tick probe is unusable; it must still join the
	// group by proximity.
	b.CreditNoTick(eidAssist, 3.2, 0x06)

	res := newEngine(t).Attribute(decodeAll(t, b), Options{})

	assert.Equal(t, 1, res.Line(eidKiller).Kills)
	assert.Equal(t, 1, res.Line(eidAssist).Assists)
}

func TestAttribute_EmptyEventSequence(t *testing.T) {
	res := newEngine(t).Attribute(nil, Options{})

	assert.Empty(t, res.Tally)
	assert.Empty(t, res.Unresolved)
	assert.Empty(t, res.Entities())
}

// Determinism: tallies key by entity id, so the registry's iteration order
// (or any other map order) cannot change results across runs.
func TestAttribute_DeterministicAcrossRuns(t *testing.T) {
	b := testutil.NewStreamBuilder()
	b.Pad(9)
	b.KillAtTick(eidKiller, 200.0)
	b.Credit(eidKiller, 1.0, 0x06, 200.0)
	b.Credit(eidAssist, 3.2, 0x06, 200.0)
	b.Credit(eidFourth, 0.5, 0x0C, 200.0)
	b.Death(eidVictim, 200.0)
	b.PadTo(800)
	b.KillAtTick(eidAssist, 600.0)
	b.Credit(eidAssist, 1.0, 0x06, 600.0)
	b.Death(eidKiller, 600.0)

	events := decodeAll(t, b)

	baseline := newEngine(t).Attribute(events, Options{})
	for i := 0; i < 10; i++ {
		res := newEngine(t).Attribute(events, Options{})
		require.Equal(t, baseline.Tally, res.Tally, "run %d diverged", i)
		require.Equal(t, baseline.Unresolved, res.Unresolved, "run %d diverged", i)
	}
}
