package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jaboteur/Pmetrics/internal/testutil"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestRun_Scenarios(t *testing.T) {
	scenarios, err := LoadScenarios(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_ScenarioAMatchesFixture(t *testing.T) {
	result, err := Run(loadTestScenario(t, "scenario_a_npag"))
	require.NoError(t, err)
	require.NotNil(t, result.Summary)

	// The run document and the shared fixture describe the same run.
	fixture := testutil.NPAGThreePoints()
	assert.Equal(t, fixture.SubjectIDs, result.Summary.PostMean.IDs)
	assert.Equal(t, fixture.BMean, result.Summary.PostMean.Values)
}

func TestRun_ExpectedErrorRecorded(t *testing.T) {
	result, err := Run(loadTestScenario(t, "scenario_e_invalid_shape"))
	require.NoError(t, err)
	assert.True(t, result.Pass)
	assert.Equal(t, "E010", result.ErrorCode)
	assert.Nil(t, result.Summary)
}

func TestRun_WrongExpectedError(t *testing.T) {
	s := loadTestScenario(t, "scenario_e_invalid_shape")
	s.ExpectError = "E006"

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected error E006, got E010")
}

func TestRun_ExpectedErrorButSucceeded(t *testing.T) {
	s := loadTestScenario(t, "scenario_b_it2b")
	s.ExpectError = "INVALID_INPUT"

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "summarize succeeded")
}

func TestRun_UnexpectedErrorFails(t *testing.T) {
	s := loadTestScenario(t, "scenario_e_invalid_shape")
	s.ExpectError = ""

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario_e_invalid_shape")
}

func TestRun_FailedAssertionsReported(t *testing.T) {
	s := loadTestScenario(t, "scenario_b_it2b")
	wrong := 0.5
	s.Assertions = []Assertion{
		{Type: AssertMethod, Method: "NPAG"},
		{Type: AssertVector, Field: "pop_mean", Values: []float64{1.1, 0.12}},
		{Type: AssertPresent, Field: "pop_points"},
		{Type: AssertShrinkage, Parameter: "ka", Value: &wrong},
		{Type: AssertSubject, Field: "post_mean", Subject: "s9", Values: []float64{1, 2}},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Len(t, result.Errors, 5)
	assert.Contains(t, result.Errors[1], "Diff (-want +got)")
}

func TestHarness_LogsScenarioCompletion(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	h := New(WithLogger(zap.New(core)))

	_, err := h.Run(loadTestScenario(t, "scenario_b_it2b"))
	require.NoError(t, err)

	entries := logs.FilterMessage("scenario finished").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "scenario_b_it2b", entries[0].ContextMap()["scenario"])
	assert.Equal(t, true, entries[0].ContextMap()["pass"])
}
