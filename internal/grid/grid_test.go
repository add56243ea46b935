package grid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaboteur/Pmetrics/internal/run"
)

func TestGridPoints_Table(t *testing.T) {
	tests := []struct {
		indpts int
		want   int
	}{
		{1, 2129},
		{2, 5003},
		{3, 10007},
		{4, 20011},
		{5, 40009},
		{6, 80021},
		{101, 80021},
		{102, 160042},
		{110, 800210},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GridPoints(tt.indpts), "indpts=%d", tt.indpts)
	}
}

func TestCellVolume(t *testing.T) {
	ab := []run.Bound{{Lower: 0, Upper: 10}, {Lower: 0, Upper: 5}}
	assert.InDelta(t, 50.0/2129.0, CellVolume(ab, 2129), 1e-15)

	shifted := []run.Bound{{Lower: 2, Upper: 4}, {Lower: -1, Upper: 1}}
	assert.InDelta(t, 4.0/5003.0, CellVolume(shifted, 5003), 1e-15)
}

// scenarioA is three support points over two parameters with weights summing to 1.
func scenarioA() Input {
	return Input{
		Par:    []string{"ka", "ke"},
		AB:     []run.Bound{{Lower: 0, Upper: 10}, {Lower: 0, Upper: 5}},
		IndPts: 1,
		Corden: [][]float64{
			{1, 1, 0.5},
			{5, 2, 0.3},
			{9, 4, 0.2},
		},
	}
}

func TestAggregate_ScenarioA(t *testing.T) {
	m := Aggregate(scenarioA())

	vol := 50.0 / 2129.0
	assert.Equal(t, 2129, m.GridPts)
	assert.InDelta(t, vol, m.WParVol, 1e-15)
	assert.InDelta(t, 0.02349, m.WParVol, 1e-5)

	require.Len(t, m.Mean, 2)
	assert.InDelta(t, 3.8*vol, m.Mean[0], 1e-12)
	assert.InDelta(t, 0.0893, m.Mean[0], 1e-4)
	assert.InDelta(t, 1.9*vol, m.Mean[1], 1e-12)

	// prob column sums to the cell volume because the raw weights sum to 1
	assert.InDelta(t, vol, m.Points.TotalProb(), 1e-12)
	assert.Equal(t, []string{"ka", "ke"}, m.Points.Par)
	assert.Equal(t, [][]float64{{1, 1}, {5, 2}, {9, 4}}, m.Points.Values)

	// covariance follows sum(x_i x_k p) - mean_i mean_k
	wantVar0 := (1*0.5+25*0.3+81*0.2)*vol - m.Mean[0]*m.Mean[0]
	wantCov01 := (1*0.5+10*0.3+36*0.2)*vol - m.Mean[0]*m.Mean[1]
	assert.InDelta(t, wantVar0, m.Cov.At(0, 0), 1e-12)
	assert.InDelta(t, wantCov01, m.Cov.At(0, 1), 1e-12)
	assert.InDelta(t, wantVar0, m.Var[0], 1e-12)
	assert.InDelta(t, math.Sqrt(wantVar0), m.SD[0], 1e-12)
	assert.InDelta(t, 100*math.Sqrt(wantVar0)/m.Mean[0], m.CV[0], 1e-9)
}

func TestAggregate_NegativeCellVolume(t *testing.T) {
	in := scenarioA()
	in.IndPts = 50

	var m Moments
	require.NotPanics(t, func() { m = Aggregate(in) })

	vol := 50.0 / float64(-50*80021)
	assert.Equal(t, -50*80021, m.GridPts)
	assert.InDelta(t, vol, m.WParVol, 1e-18)

	// second moment is the plain weighted sum, so the sign of p carries through
	wantVar0 := (1*0.5+25*0.3+81*0.2)*vol - m.Mean[0]*m.Mean[0]
	wantCov01 := (1*0.5+10*0.3+36*0.2)*vol - m.Mean[0]*m.Mean[1]
	assert.InDelta(t, wantVar0, m.Var[0], 1e-15)
	assert.InDelta(t, wantCov01, m.Cov.At(0, 1), 1e-15)
	assert.False(t, math.IsNaN(m.Var[1]))

	// a quantile over negative weights is undefined
	assert.True(t, math.IsNaN(m.Median[0]))
	assert.True(t, math.IsNaN(m.Median[1]))
}

func TestAggregate_ProbabilitiesSumToOne(t *testing.T) {
	in := scenarioA()
	vol := CellVolume(in.AB, GridPoints(in.IndPts))
	for _, row := range in.Corden {
		row[2] /= vol
	}

	m := Aggregate(in)
	assert.InDelta(t, 1.0, m.Points.TotalProb(), 1e-6)
	assert.InDelta(t, 3.8, m.Mean[0], 1e-9)
	assert.InDelta(t, 1.9, m.Mean[1], 1e-9)

	assert.Equal(t, 1.0, m.Cor.At(0, 0))
	assert.Equal(t, 1.0, m.Cor.At(1, 1))
	assert.Greater(t, m.Cor.At(0, 1), 0.9)
}

func TestAggregate_WeightedMedian(t *testing.T) {
	in := Input{
		Par:    []string{"ka", "ke"},
		AB:     []run.Bound{{Lower: 0, Upper: 10}, {Lower: 0, Upper: 5}},
		IndPts: 1,
		Corden: [][]float64{
			{1, 4, 0.2},
			{5, 1, 0.4},
			{9, 2, 0.4},
		},
	}
	m := Aggregate(in)
	assert.Equal(t, []float64{5, 2}, m.Median)
}

func TestAggregate_CovarianceIsSymmetric(t *testing.T) {
	ab := []run.Bound{{Lower: 0, Upper: 1}, {Lower: 0, Upper: 2}, {Lower: 0, Upper: 3}}
	vol := CellVolume(ab, GridPoints(3))
	in := Input{
		Par:    []string{"a", "b", "c"},
		AB:     ab,
		IndPts: 3,
		Corden: [][]float64{
			{0.1, 1.7, 2.2, 0.1 / vol},
			{0.4, 0.3, 0.9, 0.3 / vol},
			{0.8, 1.1, 2.9, 0.2 / vol},
			{0.6, 1.9, 0.4, 0.4 / vol},
		},
	}
	m := Aggregate(in)
	for i := 0; i < 3; i++ {
		for k := 0; k < 3; k++ {
			assert.Equal(t, m.Cov.At(i, k), m.Cov.At(k, i))
			assert.Equal(t, m.Cor.At(i, k), m.Cor.At(k, i))
		}
		assert.Equal(t, 1.0, m.Cor.At(i, i))
	}
}

func TestAggregate_SinglePoint(t *testing.T) {
	in := Input{
		Par:    []string{"cl", "v"},
		AB:     []run.Bound{{Lower: 0, Upper: 10}, {Lower: 0, Upper: 5}},
		IndPts: 1,
		Corden: [][]float64{{2, 3, 2129.0 / 50.0}},
	}
	m := Aggregate(in)

	assert.InDelta(t, 2.0, m.Mean[0], 1e-12)
	assert.InDelta(t, 3.0, m.Mean[1], 1e-12)
	for i := 0; i < 2; i++ {
		for k := 0; k < 2; k++ {
			assert.Equal(t, 0.0, m.Cov.At(i, k))
		}
	}
	assert.Equal(t, 1.0, m.Cor.At(0, 0))
	assert.Equal(t, 1.0, m.Cor.At(1, 1))
	assert.True(t, math.IsNaN(m.Cor.At(0, 1)))
	assert.Equal(t, []float64{0, 0}, m.SD)
	assert.Equal(t, []float64{0, 0}, m.CV)
	assert.Equal(t, []float64{2, 3}, m.Median)
}

func TestAggregate_ZeroVarianceCorrelationMissing(t *testing.T) {
	in := Input{
		Par:    []string{"cl", "v"},
		AB:     []run.Bound{{Lower: 0, Upper: 1}, {Lower: 0, Upper: 4}},
		IndPts: 2,
		Corden: [][]float64{
			{0, 1, 1},
			{0, 3, 1},
		},
	}
	m := Aggregate(in)

	assert.Equal(t, 0.0, m.Var[0])
	assert.True(t, m.Cor.AllMissing())
	// mean of cl is zero so its CV is undefined, not an error
	assert.True(t, math.IsNaN(m.CV[0]))
}

func TestAggregate_ZeroMeanNonZeroSD(t *testing.T) {
	in := Input{
		Par:    []string{"eta"},
		AB:     []run.Bound{{Lower: -1, Upper: 1}},
		IndPts: 1,
		Corden: [][]float64{
			{-1, 1},
			{1, 1},
		},
	}
	m := Aggregate(in)
	assert.Equal(t, 0.0, m.Mean[0])
	assert.True(t, math.IsInf(m.CV[0], 1))
}
