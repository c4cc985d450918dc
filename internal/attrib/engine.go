package attrib

import (
	"io"
	"log/slog"
	"sort"

	"github.com/detrik/vgrscope/internal/format"
	"github.com/detrik/vgrscope/internal/record"
	"github.com/detrik/vgrscope/internal/roster"
)

// Engine correlates decoded events into per-entity statistics.
type Engine struct {
	prof   *format.Profile
	reg    *roster.Registry
	logger *slog.Logger
}

// Options control one attribution run.
type Options struct {
	// Duration is the known match length in seconds, when available.
	// Events past Duration plus the profile's post-game buffer are victory
	// ceremony noise and excluded. Zero disables the filter.
	Duration float32
}

// New creates an engine over the given format profile and entity registry.
// logger may be nil.
func New(prof *format.Profile, reg *roster.Registry, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{prof: prof, reg: reg, logger: logger}
}

// creditGroup is one combat event: the credit records sharing a
// simulation-tick timestamp, plus the kill and death records attached to
// it during correlation.
type creditGroup struct {
	ts      float32
	credits []record.Credit
	minOff  int
	maxOff  int

	killers []record.EntityID
	victims map[record.EntityID]bool
}

// add extends the group with a credit record and widens its span.
func (g *creditGroup) add(c record.Credit) {
	g.credits = append(g.credits, c)
	if c.Off < g.minOff {
		g.minOff = c.Off
	}
	if c.Off > g.maxOff {
		g.maxOff = c.Off
	}
}

// distance returns the group's distance to a stream offset: zero when the
// offset falls inside the group's record span, otherwise the gap to the
// nearest member.
func (g *creditGroup) distance(off int) int {
	if off < g.minOff {
		return g.minOff - off
	}
	if off > g.maxOff {
		return off - g.maxOff
	}
	return 0
}

// Attribute runs the correlation algorithm over events, which must be in
// ascending stream offset order (as produced by record.Decoder.Events).
//
// The engine is a pure function of its inputs: it never mutates events and
// two runs over the same sequence produce identical results. Tallies are
// keyed by entity id, so registry iteration order cannot affect them.
func (e *Engine) Attribute(events []record.Event, opts Options) *Result {
	res := &Result{Tally: make(map[record.EntityID]Line)}

	cutoff := float32(0)
	if opts.Duration > 0 {
		cutoff = opts.Duration + e.prof.PostGameBuffer
	}

	deaths, kills, credits := e.partition(events, cutoff, res)

	groups := groupCredits(credits, e.prof.Window)
	e.attachDeaths(groups, deaths, res)
	e.attachKills(groups, kills, res)
	e.creditAssists(groups, res)

	sort.SliceStable(res.Unresolved, func(i, j int) bool {
		return res.Unresolved[i].Offset < res.Unresolved[j].Offset
	})

	e.logger.Debug("attribution complete",
		"events", len(events),
		"groups", len(groups),
		"entities", len(res.Tally),
		"unresolved", len(res.Unresolved))

	return res
}

// partition splits the event sequence by type, dropping events for
// unregistered entities and post-game ceremony noise. Unknown kills and
// deaths are surfaced as unresolved; unknown credits are dropped silently
// because the format pays credits to non-player entities constantly.
func (e *Engine) partition(events []record.Event, cutoff float32, res *Result) ([]record.Death, []record.Kill, []record.Credit) {
	var (
		deaths  []record.Death
		kills   []record.Kill
		credits []record.Credit
	)

	for _, ev := range events {
		switch v := ev.(type) {
		case record.Death:
			if cutoff > 0 && v.Timestamp > cutoff {
				continue
			}
			if !e.reg.Known(v.Victim) {
				res.Unresolved = append(res.Unresolved, Unresolved{
					Kind: "death", Entity: v.Victim, Offset: v.Off, Reason: ReasonUnknownEntity,
				})
				continue
			}
			deaths = append(deaths, v)
		case record.Kill:
			if cutoff > 0 && v.HasHint && v.Hint > cutoff {
				continue
			}
			if !e.reg.Known(v.Killer) {
				res.Unresolved = append(res.Unresolved, Unresolved{
					Kind: "kill", Entity: v.Killer, Offset: v.Off, Reason: ReasonUnknownEntity,
				})
				continue
			}
			kills = append(kills, v)
		case record.Credit:
			if cutoff > 0 && v.HasTimestamp && v.Timestamp > cutoff {
				continue
			}
			if !e.reg.Known(v.Beneficiary) {
				continue
			}
			credits = append(credits, v)
		}
	}

	return deaths, kills, credits
}

// groupCredits clusters credit records into combat events. Records of one
// combat event share a simulation-tick timestamp, so grouping compares the
// decoded f32 values bit for bit; no epsilon is needed. Timestamp equality
// alone is not sufficient: two fights can resolve on the same tick in
// different parts of the stream, so a credit only joins a same-timestamp
// group when it also lies within the proximity window of that group's
// span. Credits lacking a usable timestamp attach to the nearest existing
// group within the window, or are dropped.
func groupCredits(credits []record.Credit, window int) []*creditGroup {
	var groups []*creditGroup
	byTS := make(map[float32][]*creditGroup)

	var orphans []record.Credit
	for _, c := range credits {
		if !c.HasTimestamp {
			orphans = append(orphans, c)
			continue
		}
		g := nearestGroup(byTS[c.Timestamp], c.Off, window)
		if g == nil {
			g = &creditGroup{
				ts:      c.Timestamp,
				minOff:  c.Off,
				maxOff:  c.Off,
				victims: make(map[record.EntityID]bool),
			}
			groups = append(groups, g)
			byTS[c.Timestamp] = append(byTS[c.Timestamp], g)
		}
		g.add(c)
	}

	for _, c := range orphans {
		if g := nearestGroup(groups, c.Off, window); g != nil {
			g.add(c)
		}
	}

	// Keep each group's credits in stream order; the first credit of a
	// combat event is the killer confirmation.
	for _, g := range groups {
		sortCreditsByOffset(g.credits)
	}

	return groups
}

// nearestGroup returns the group closest to off by stream proximity,
// or nil when none lies within the window. Ties go to the earlier group.
func nearestGroup(groups []*creditGroup, off, window int) *creditGroup {
	var best *creditGroup
	bestDist := window + 1
	for _, g := range groups {
		if d := g.distance(off); d < bestDist {
			best = g
			bestDist = d
		}
	}
	return best
}

// attachDeaths tallies every valid death and assigns each to a combat
// group so assist crediting can exclude the victim. Deaths match a group
// by exact timestamp; simultaneous deaths (same timestamp, different
// victims) are disambiguated by stream proximity, since timestamp alone
// cannot tell them apart.
func (e *Engine) attachDeaths(groups []*creditGroup, deaths []record.Death, res *Result) {
	for _, d := range deaths {
		line := res.Tally[d.Victim]
		line.Deaths++
		res.Tally[d.Victim] = line

		var candidates []*creditGroup
		for _, g := range groups {
			if g.ts == d.Timestamp {
				candidates = append(candidates, g)
			}
		}
		switch len(candidates) {
		case 0:
			// A death with no credit payout (executed by a turret, for
			// example) still counts, but is surfaced for review since no
			// combat event can be tied to it.
			res.Unresolved = append(res.Unresolved, Unresolved{
				Kind: "death", Entity: d.Victim, Offset: d.Off, Reason: ReasonNoCreditGroup,
			})
		case 1:
			candidates[0].victims[d.Victim] = true
		default:
			if g := nearestGroup(candidates, d.Off, e.prof.Window); g != nil {
				g.victims[d.Victim] = true
			}
		}
	}
}

// attachKills borrows each kill's timestamp from the nearest credit group
// within the proximity window and tallies the kill. A kill with no group
// in range is counted toward no one and surfaced for review.
func (e *Engine) attachKills(groups []*creditGroup, kills []record.Kill, res *Result) {
	for _, k := range kills {
		g := nearestGroup(groups, k.Off, e.prof.Window)
		if g == nil {
			res.Unresolved = append(res.Unresolved, Unresolved{
				Kind: "kill", Entity: k.Killer, Offset: k.Off, Reason: ReasonNoCreditGroup,
			})
			e.logger.Debug("unattributed kill", "entity", k.Killer, "offset", k.Off)
			continue
		}
		g.killers = append(g.killers, k.Killer)

		line := res.Tally[k.Killer]
		line.Kills++
		res.Tally[k.Killer] = line
	}
}

// creditAssists walks each combat group that confirmed at least one kill
// and credits assists from its value pattern: the first credit is the
// killer's full-value confirmation; later credits above the bounty
// threshold are gold-bounty assists, repeats of the full value are assist
// confirmations, and the sub-flag value is an assist sub-flag. A
// beneficiary earns at most one assist per combat event no matter how many
// qualifying sub-records it generated, and killers and victims never
// assist on their own combat event.
func (e *Engine) creditAssists(groups []*creditGroup, res *Result) {
	th := e.prof.Credit

	for _, g := range groups {
		if len(g.killers) == 0 || len(g.credits) == 0 {
			continue
		}

		excluded := make(map[record.EntityID]bool, len(g.killers)+len(g.victims))
		for _, k := range g.killers {
			excluded[k] = true
		}
		for v := range g.victims {
			excluded[v] = true
		}

		seen := make(map[record.EntityID]bool)
		for i, c := range g.credits {
			if i == 0 {
				// Killer confirmation.
				continue
			}
			qualifies := c.Value > th.BountyMin ||
				c.Value == th.KillerValue ||
				c.Value == th.SubFlag
			if !qualifies {
				continue
			}
			if excluded[c.Beneficiary] || seen[c.Beneficiary] {
				continue
			}
			seen[c.Beneficiary] = true

			line := res.Tally[c.Beneficiary]
			line.Assists++
			res.Tally[c.Beneficiary] = line
		}
	}
}

func sortCreditsByOffset(credits []record.Credit) {
	sort.SliceStable(credits, func(i, j int) bool { return credits[i].Off < credits[j].Off })
}
