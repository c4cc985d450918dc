package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, sc := range scenarios {
		t.Run(sc.Name, func(t *testing.T) {
			require.NoError(t, RunWithGolden(t, sc))
		})
	}
}

func TestRun_ExpectationMismatch(t *testing.T) {
	sc := &Scenario{
		Name: "wrong-expectation",
		Entities: map[uint16]string{
			1501: "Meridian",
			1505: "Rakshasa",
		},
		Records: []RecordStep{
			{Type: "kill", Entity: 1505, At: 40, Timestamp: 305.25},
			{Type: "death", Entity: 1501, At: 80, Timestamp: 305.25},
			{Type: "credit", Entity: 1505, At: 120, Timestamp: 305.25, Value: 1.0, Flag: 6},
		},
		Expect: Expectation{
			Tallies: map[string]ExpectedLine{
				"Rakshasa": {Kills: 3},
			},
		},
	}

	result, err := Run(sc)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "Rakshasa")

	// The actual pipeline output is still reported.
	assert.Equal(t, ExpectedLine{Kills: 1}, result.Tally["Rakshasa"])
	assert.Equal(t, ExpectedLine{Deaths: 1}, result.Tally["Meridian"])
}

func TestRun_UnexpectedTallyFails(t *testing.T) {
	sc := &Scenario{
		Name: "bystander-tally",
		Entities: map[uint16]string{
			1501: "Meridian",
			1505: "Rakshasa",
		},
		Records: []RecordStep{
			{Type: "kill", Entity: 1505, At: 40, Timestamp: 305.25},
			{Type: "death", Entity: 1501, At: 80, Timestamp: 305.25},
			{Type: "credit", Entity: 1505, At: 120, Timestamp: 305.25, Value: 1.0, Flag: 6},
		},
		// Meridian's death is deliberately unmentioned: omitted players must
		// tally all zeros, so the scenario fails.
		Expect: Expectation{
			Tallies: map[string]ExpectedLine{
				"Rakshasa": {Kills: 1},
			},
		},
	}

	result, err := Run(sc)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "Meridian")
}

func TestRun_OrphanCreditStillAssists(t *testing.T) {
	// The assist credit carries no tick header; it must join the combat
	// group by stream proximity alone.
	sc := &Scenario{
		Name: "orphan-assist",
		Entities: map[uint16]string{
			1501: "Meridian",
			1505: "Rakshasa",
			1509: "Willowstep",
		},
		Records: []RecordStep{
			{Type: "kill", Entity: 1505, At: 40, Timestamp: 500.0},
			{Type: "death", Entity: 1501, At: 80, Timestamp: 500.0},
			{Type: "credit", Entity: 1505, At: 120, Timestamp: 500.0, Value: 1.0, Flag: 6},
			{Type: "credit", Entity: 1509, At: 160, Value: 1.0, Flag: 6},
		},
		Expect: Expectation{
			Tallies: map[string]ExpectedLine{
				"Meridian":   {Deaths: 1},
				"Rakshasa":   {Kills: 1},
				"Willowstep": {Assists: 1},
			},
		},
	}

	result, err := Run(sc)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_OverlappingRecordsError(t *testing.T) {
	// Bypasses LoadScenario validation; the renderer must surface the
	// builder panic as an error rather than crash the test process.
	sc := &Scenario{
		Name:     "overlap",
		Entities: map[uint16]string{1501: "Meridian"},
		Records: []RecordStep{
			{Type: "death", Entity: 1501, At: 40, Timestamp: 100.0},
			{Type: "death", Entity: 1501, At: 44, Timestamp: 100.0},
		},
	}

	_, err := Run(sc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overlap")
}

func TestRun_TraceIsStreamOrdered(t *testing.T) {
	sc := &Scenario{
		Name: "ordering",
		Entities: map[uint16]string{
			1501: "Meridian",
			1505: "Rakshasa",
		},
		Records: []RecordStep{
			{Type: "kill", Entity: 1505, At: 40, Timestamp: 305.25},
			{Type: "death", Entity: 1501, At: 80, Timestamp: 305.25},
			{Type: "credit", Entity: 1505, At: 120, Timestamp: 305.25, Value: 1.0, Flag: 6},
		},
		Expect: Expectation{
			Tallies: map[string]ExpectedLine{
				"Meridian": {Deaths: 1},
				"Rakshasa": {Kills: 1},
			},
		},
	}

	result, err := Run(sc)
	require.NoError(t, err)
	require.Len(t, result.Trace, 3)

	for i := 1; i < len(result.Trace); i++ {
		assert.Less(t, result.Trace[i-1].Offset, result.Trace[i].Offset)
	}
	assert.Equal(t, "kill", result.Trace[0].Type)
	assert.Equal(t, "death", result.Trace[1].Type)
	assert.Equal(t, "credit", result.Trace[2].Type)
}
