package roster

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/detrik/vgrscope/internal/record"
)

func TestDefaultSeed_EmbeddedHeroTable(t *testing.T) {
	seed := DefaultSeed()

	assert.Equal(t, "Baron", seed.Heroes[27])
	assert.Equal(t, "Yates", seed.Heroes[44])
	assert.Equal(t, "Amael", seed.Heroes[57])
	assert.Empty(t, seed.Entities)
}

func TestBuild_FromScannedPlayers(t *testing.T) {
	players := []record.Player{
		{Name: "2930_ALWAYSCRY", Entity: 0xE105, Hero: 27, Team: record.TeamLeft},
		{Name: "2930_FL", Entity: 0xDE05, Hero: 47, Team: record.TeamRight},
	}

	r := Build(players, DefaultSeed())
	require.Equal(t, 2, r.Len())

	ident, ok := r.Resolve(0xE105)
	require.True(t, ok)
	assert.Equal(t, "2930_ALWAYSCRY", ident.Name)
	assert.Equal(t, "Baron", ident.Hero)
	assert.Equal(t, record.TeamLeft, ident.Team)

	id, ok := r.Lookup("2930_FL")
	require.True(t, ok)
	assert.Equal(t, record.EntityID(0xDE05), id)
}

func TestBuild_ScannedPlayersWinOverSeed(t *testing.T) {
	seed := DefaultSeed()
	seed.Entities[0xE105] = "seed-name"

	players := []record.Player{
		{Name: "observed-name", Entity: 0xE105, Team: record.TeamLeft},
	}

	r := Build(players, seed)
	ident, ok := r.Resolve(0xE105)
	require.True(t, ok)
	assert.Equal(t, "observed-name", ident.Name)
}

func TestBuild_SeedFillsGaps(t *testing.T) {
	seed := DefaultSeed()
	seed.Entities[0x05DD] = "KnownMid"

	r := Build(nil, seed)
	ident, ok := r.Resolve(0x05DD)
	require.True(t, ok)
	assert.Equal(t, "KnownMid", ident.Name)
	assert.Equal(t, record.TeamUnknown, ident.Team)
}

func TestBuild_SkipsZeroAndDuplicateIDs(t *testing.T) {
	players := []record.Player{
		{Name: "ghost", Entity: 0},
		{Name: "first", Entity: 0x0101},
		{Name: "second", Entity: 0x0101},
	}

	r := Build(players, nil)
	require.Equal(t, 1, r.Len())

	ident, _ := r.Resolve(0x0101)
	assert.Equal(t, "first", ident.Name, "first occurrence wins")
}

func TestBuild_DedupsByName(t *testing.T) {
	// Later roster blocks repeating a name under a different id are noise;
	// registering them would make junk ids resolve to real players.
	players := []record.Player{
		{Name: "2930_ALWAYSCRY", Entity: 0xE105, Team: record.TeamLeft},
		{Name: "2930_ALWAYSCRY", Entity: 0x7F32, Team: record.TeamRight},
	}

	r := Build(players, nil)
	require.Equal(t, 1, r.Len())

	assert.True(t, r.Known(0xE105))
	assert.False(t, r.Known(0x7F32))

	id, ok := r.Lookup("2930_ALWAYSCRY")
	require.True(t, ok)
	assert.Equal(t, record.EntityID(0xE105), id)
}

func TestBuild_NormalizesNames(t *testing.T) {
	// "é" composed (U+00E9) vs decomposed (U+0065 U+0301) must resolve to
	// the same registry entry.
	composed := "Réza"
	decomposed := "Réza"

	r := Build([]record.Player{{Name: decomposed, Entity: 0x0202}}, nil)

	id, ok := r.Lookup(composed)
	require.True(t, ok)
	assert.Equal(t, record.EntityID(0x0202), id)
}

func TestLoadSeed_MergesOverDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("entities:\n  1501: Baron-player\n"), 0o644))

	seed, err := LoadSeed(path)
	require.NoError(t, err)

	assert.Equal(t, "Baron-player", seed.Entities[1501])
	assert.Equal(t, "Adagio", seed.Heroes[1], "embedded hero table preserved")
}

func TestLoadSeed_MissingFile(t *testing.T) {
	_, err := LoadSeed(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestIDs_Sorted(t *testing.T) {
	r := Build([]record.Player{
		{Name: "b", Entity: 0x0300},
		{Name: "a", Entity: 0x0100},
		{Name: "c", Entity: 0x0200},
	}, nil)

	assert.Equal(t, []record.EntityID{0x0100, 0x0200, 0x0300}, r.IDs())
}
