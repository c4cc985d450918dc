// Package roster maintains the entity registry: the bidirectional mapping
// between raw numeric entity identifiers and player identities for one
// replay.
//
// The registry is populated by decoding roster blocks out of the stream,
// optionally supplemented by a static seed table for replays whose entity
// numbering is already known. It is built once per replay and read-only
// afterwards. Ids that never resolve are simply absent; downstream
// attribution drops events for unknown ids rather than failing, reflecting
// the heuristic nature of the format.
package roster

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/detrik/vgrscope/internal/record"
)

//go:embed heroes.yaml
var heroesYAML []byte

// Identity is the resolved player behind an entity id.
type Identity struct {
	Name string
	Hero string
	Team record.Team
}

// SeedTable supplies static associations for a replay: entity id → player
// name for known fixed identifiers, and hero id → hero name.
type SeedTable struct {
	Entities map[uint16]string `yaml:"entities"`
	Heroes   map[uint16]string `yaml:"heroes"`
}

// LoadSeed reads a seed table from a YAML file and merges it over the
// embedded hero table, so callers only state what differs.
func LoadSeed(path string) (*SeedTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load seed table: %w", err)
	}

	seed := DefaultSeed()
	if err := yaml.Unmarshal(data, seed); err != nil {
		return nil, fmt.Errorf("parse seed table: %w", err)
	}
	return seed, nil
}

// DefaultSeed returns the embedded hero table with no entity entries.
func DefaultSeed() *SeedTable {
	var seed SeedTable
	// The embedded table is validated by tests; a parse failure here is a
	// build defect.
	if err := yaml.Unmarshal(heroesYAML, &seed); err != nil {
		panic(fmt.Sprintf("roster: embedded hero table: %v", err))
	}
	if seed.Entities == nil {
		seed.Entities = map[uint16]string{}
	}
	return &seed
}

// Registry maps entity ids to player identities and back. Read-only after
// Build.
type Registry struct {
	byID   map[record.EntityID]Identity
	byName map[string]record.EntityID
}

// Build constructs a registry from decoded roster blocks, supplemented by
// the seed table. Scanned players win over seed entries for the same id;
// the seed fills gaps, it does not override observations.
//
// Names are NFC-normalized so lookups behave identically regardless of how
// a name was composed in the capture or the seed file.
func Build(players []record.Player, seed *SeedTable) *Registry {
	if seed == nil {
		seed = DefaultSeed()
	}

	r := &Registry{
		byID:   make(map[record.EntityID]Identity),
		byName: make(map[string]record.EntityID),
	}

	for _, p := range players {
		if p.Entity == 0 {
			continue
		}
		if _, dup := r.byID[p.Entity]; dup {
			continue
		}
		name := norm.NFC.String(p.Name)
		// Roster blocks repeat throughout a capture; the first block wins
		// and later blocks reusing the name are ignored.
		if _, dup := r.byName[name]; dup {
			continue
		}
		r.byID[p.Entity] = Identity{
			Name: name,
			Hero: seed.Heroes[p.Hero],
			Team: p.Team,
		}
		r.byName[name] = p.Entity
	}

	for eid, name := range seed.Entities {
		key := record.EntityID(eid)
		if _, known := r.byID[key]; known {
			continue
		}
		normName := norm.NFC.String(name)
		if _, dup := r.byName[normName]; dup {
			continue
		}
		r.byID[key] = Identity{Name: normName, Team: record.TeamUnknown}
		r.byName[normName] = key
	}

	return r
}

// Resolve returns the identity for an entity id.
func (r *Registry) Resolve(id record.EntityID) (Identity, bool) {
	ident, ok := r.byID[id]
	return ident, ok
}

// Known reports whether the entity id belongs to a registered player.
func (r *Registry) Known(id record.EntityID) bool {
	_, ok := r.byID[id]
	return ok
}

// Lookup returns the entity id for a (normalized) player name.
func (r *Registry) Lookup(name string) (record.EntityID, bool) {
	id, ok := r.byName[norm.NFC.String(name)]
	return id, ok
}

// IDs returns all registered entity ids in ascending order.
func (r *Registry) IDs() []record.EntityID {
	ids := make([]record.EntityID, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of registered entities.
func (r *Registry) Len() int {
	return len(r.byID)
}
