package harness

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaboteur/Pmetrics/internal/summary"
	"github.com/jaboteur/Pmetrics/internal/testutil"
)

func TestApproxEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b float64
		tol  float64
		want bool
	}{
		{"exact", 1, 1, 0, true},
		{"within absolute", 0.1, 0.1 + 1e-10, 1e-9, true},
		{"outside absolute", 0.1, 0.1 + 1e-8, 1e-9, false},
		{"relative for large values", 1e6, 1e6 + 1e-4, 1e-9, true},
		{"nan equals nan", math.NaN(), math.NaN(), 1e-9, true},
		{"nan differs from number", math.NaN(), 0, 1e-9, false},
		{"same infinity", math.Inf(1), math.Inf(1), 1e-9, true},
		{"opposite infinity", math.Inf(1), math.Inf(-1), 1e-9, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cmp.Equal(tt.a, tt.b, approxEqual(tt.tol)))
			assert.Equal(t, tt.want, cmp.Equal(tt.b, tt.a, approxEqual(tt.tol)), "symmetric")
		})
	}
}

func npagSummary(t *testing.T) *summary.FinalCycleSummary {
	t.Helper()
	s, err := summary.Summarize(testutil.NPAGThreePoints())
	require.NoError(t, err)
	return s
}

func TestEvaluateAssertions_Pass(t *testing.T) {
	s := npagSummary(t)
	gridpts := 2129.0
	zero := 0.0

	assertions := []Assertion{
		{Type: AssertMethod, Method: "npag"},
		{Type: AssertScalar, Field: "gridpts", Value: &gridpts},
		{Type: AssertVector, Field: "pop_median", Values: s.PopMedian},
		{Type: AssertMatrix, Field: "pop_cov", Matrix: s.PopCov.Rows()},
		{Type: AssertSubject, Field: "post_sd", Subject: "102", Values: []float64{0, 0}},
		{Type: AssertShrinkage, Parameter: "ke", Field: "pop_var", Value: &s.PopVar[1]},
		{Type: AssertPresent, Field: "wparvol"},
		{Type: AssertAbsent, Field: "pop_ran_fix"},
		{Type: AssertMatrix, Field: "post_cov", Subject: "102", Matrix: [][]float64{{zero, zero}, {zero, zero}}},
	}

	assert.Empty(t, EvaluateAssertions(s, assertions, DefaultTolerance))
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	s := npagSummary(t)

	tests := []struct {
		name      string
		assertion Assertion
		want      string
	}{
		{"method", Assertion{Type: AssertMethod, Method: "IT2B"}, "Expected: IT2B"},
		{"absent", Assertion{Type: AssertAbsent, Field: "post_points"}, "Actual: present"},
		{"unknown subject", Assertion{Type: AssertSubject, Field: "post_mean", Subject: "999", Values: []float64{1}}, "subject 999"},
		{"unknown post_cov subject", Assertion{Type: AssertMatrix, Field: "post_cov", Subject: "999", Matrix: [][]float64{{1}}}, "unknown subject 999"},
		{"vector length", Assertion{Type: AssertVector, Field: "pop_mean", Values: []float64{1}}, "pop_mean"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(s, []Assertion{tt.assertion}, DefaultTolerance)
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.want)
		})
	}
}

func TestEvaluateAssertions_IT2BScalarsAbsent(t *testing.T) {
	s, err := summary.Summarize(testutil.IT2BTenCycles())
	require.NoError(t, err)
	v := 1.0

	errs := EvaluateAssertions(s, []Assertion{{Type: AssertScalar, Field: "wparvol", Value: &v}}, DefaultTolerance)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Actual: absent")
}
