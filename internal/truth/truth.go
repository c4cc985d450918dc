// Package truth loads externally known match statistics and compares
// computed tallies against them.
//
// Ground truth comes from outside the replay format entirely (scoreboard
// screenshots, tournament records), which is what makes it authoritative:
// decoder and correlation changes are regression-tested against numbers the
// decoder could not have produced itself. The package is a consumer of
// attribution results, never a producer of core state.
package truth

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/detrik/vgrscope/internal/attrib"
	"github.com/detrik/vgrscope/internal/roster"
)

// PlayerTruth is the expected stat line for one player.
type PlayerTruth struct {
	Kills   int `yaml:"kills" json:"kills"`
	Deaths  int `yaml:"deaths" json:"deaths"`
	Assists int `yaml:"assists" json:"assists"`
}

// Match is the externally supplied expected outcome of one replay.
type Match struct {
	// Replay names the capture this truth belongs to.
	Replay string `yaml:"replay" json:"replay"`

	// DurationSeconds is the known match length, used to filter post-game
	// ceremony events. Zero when unknown.
	DurationSeconds float32 `yaml:"duration_seconds" json:"duration_seconds"`

	// Players maps player name to expected counters.
	Players map[string]PlayerTruth `yaml:"players" json:"players"`
}

// Load reads a ground-truth file. YAML and JSON are both accepted; JSON
// documents parse as a YAML subset.
func Load(path string) (*Match, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load ground truth: %w", err)
	}

	var m Match
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse ground truth: %w", err)
	}
	if len(m.Players) == 0 {
		return nil, fmt.Errorf("ground truth %s lists no players", path)
	}
	return &m, nil
}

// Delta is one per-player, per-metric disagreement between truth and the
// computed tally.
type Delta struct {
	Player   string `json:"player"`
	Metric   string `json:"metric"` // "kills" | "deaths" | "assists"
	Expected int    `json:"expected"`
	Actual   int    `json:"actual"`
}

// Report is the outcome of comparing a computed tally against truth.
type Report struct {
	// Deltas lists every disagreement, ordered by player then metric.
	Deltas []Delta `json:"deltas,omitempty"`

	// Missing lists truth players whose name resolved to no registry
	// entry; their stats could not be checked at all.
	Missing []string `json:"missing,omitempty"`

	// Checked is the number of players whose stats were compared.
	Checked int `json:"checked"`
}

// Pass reports whether every truth player resolved and matched exactly.
func (r *Report) Pass() bool {
	return len(r.Deltas) == 0 && len(r.Missing) == 0
}

// Compare evaluates a computed attribution result against truth. Players
// are resolved through the registry by name; iteration is sorted so the
// report is deterministic.
func Compare(m *Match, reg *roster.Registry, res *attrib.Result) *Report {
	report := &Report{}

	names := make([]string, 0, len(m.Players))
	for name := range m.Players {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		want := m.Players[name]

		id, ok := reg.Lookup(name)
		if !ok {
			report.Missing = append(report.Missing, name)
			continue
		}
		report.Checked++

		got := res.Line(id)
		if got.Kills != want.Kills {
			report.Deltas = append(report.Deltas, Delta{Player: name, Metric: "kills", Expected: want.Kills, Actual: got.Kills})
		}
		if got.Deaths != want.Deaths {
			report.Deltas = append(report.Deltas, Delta{Player: name, Metric: "deaths", Expected: want.Deaths, Actual: got.Deaths})
		}
		if got.Assists != want.Assists {
			report.Deltas = append(report.Deltas, Delta{Player: name, Metric: "assists", Expected: want.Assists, Actual: got.Assists})
		}
	}

	return report
}
