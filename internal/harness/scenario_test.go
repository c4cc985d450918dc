package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadScenario(t *testing.T) {
	path := writeScenario(t, "basic.yaml", `
name: basic
entities:
  1501: Meridian
records:
  - type: death
    entity: 1501
    at: 40
    timestamp: 120.5
expect:
  tallies:
    Meridian: {deaths: 1}
  unresolved: 1
`)

	sc, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "basic", sc.Name)
	assert.Equal(t, "Meridian", sc.Entities[1501])
	require.Len(t, sc.Records, 1)
	assert.Equal(t, float32(120.5), sc.Records[0].Timestamp)
	assert.Equal(t, ExpectedLine{Deaths: 1}, sc.Expect.Tallies["Meridian"])
	assert.Equal(t, 1, sc.Expect.Unresolved)
}

func TestLoadScenario_Invalid(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing name",
			body: "records: [{type: death, entity: 1, at: 40, timestamp: 1.5}]",
			want: "name is required",
		},
		{
			name: "no records",
			body: "name: empty",
			want: "at least one record",
		},
		{
			name: "unknown type",
			body: "name: x\nrecords: [{type: heal, entity: 1, at: 40}]",
			want: "unknown type",
		},
		{
			name: "death without timestamp",
			body: "name: x\nrecords: [{type: death, entity: 1, at: 40}]",
			want: "requires a timestamp",
		},
		{
			name: "overlapping records",
			body: "name: x\nrecords: [{type: death, entity: 1, at: 40, timestamp: 1.5}, {type: death, entity: 2, at: 44, timestamp: 1.5}]",
			want: "overlaps",
		},
		{
			name: "tick header overlaps previous record",
			body: "name: x\nrecords: [{type: death, entity: 1, at: 40, timestamp: 1.5}, {type: credit, entity: 2, at: 56, timestamp: 1.5}]",
			want: "overlaps",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeScenario(t, "bad.yaml", tc.body)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.yaml"} {
		body := "name: " + name + "\nrecords: [{type: kill, entity: 1, at: 40}]"
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}

	scenarios, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "a.yaml", scenarios[0].Name)
	assert.Equal(t, "b.yaml", scenarios[1].Name)
}

func TestLoadDir_PropagatesInvalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("name: ''"), 0o644))

	_, err := LoadDir(dir)
	require.Error(t, err)
}
