// Package grid aggregates an NPAG support-point grid into population moments.
//
// Support-point weights are discrete densities; multiplying by the grid cell
// volume (wParVol) turns them into probabilities. The grid size behind the
// cell volume is the initial resolution requested from the engine, never the
// number of support points that survived condensation.
package grid

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/jaboteur/Pmetrics/internal/run"
	"github.com/jaboteur/Pmetrics/internal/wstat"
)

// gridSizes maps indpts to the number of initial grid points.
var gridSizes = map[int]int{
	1: 2129,
	2: 5003,
	3: 10007,
	4: 20011,
	5: 40009,
	6: 80021,
}

// largeGridBase is the multiplier for indpts values beyond the table.
const largeGridBase = 80021

// GridPoints resolves indpts to the initial grid point count.
// Values outside the table use (indpts-100)*80021.
func GridPoints(indpts int) int {
	if n, ok := gridSizes[indpts]; ok {
		return n
	}
	return (indpts - 100) * largeGridBase
}

// CellVolume returns the parameter-space volume of one grid cell:
// the product of the parameter ranges divided by gridpts.
func CellVolume(ab []run.Bound, gridpts int) float64 {
	vol := 1.0
	for _, b := range ab {
		vol *= b.Width()
	}
	return vol / float64(gridpts)
}

// Input is the slice of an NPAG result the aggregator reads.
type Input struct {
	Par    []string
	AB     []run.Bound
	IndPts int
	Corden [][]float64
}

// InputFromNPAG extracts the aggregator input from a result.
func InputFromNPAG(r *run.NPAGResult) Input {
	return Input{
		Par:    r.Par,
		AB:     r.AB,
		IndPts: r.IndPts,
		Corden: r.Corden,
	}
}

// PointTable is the support-point table with weights rescaled to probabilities.
type PointTable struct {
	Par []string

	// Values has one row per support point and one column per parameter.
	Values [][]float64

	// Prob is the weight column multiplied by the cell volume.
	Prob []float64
}

// Column returns the values of parameter j across all points.
func (t PointTable) Column(j int) []float64 {
	col := make([]float64, len(t.Values))
	for i, row := range t.Values {
		col[i] = row[j]
	}
	return col
}

// TotalProb sums the probability column.
func (t PointTable) TotalProb() float64 {
	var sum float64
	for _, p := range t.Prob {
		sum += p
	}
	return sum
}

// Moments are the population statistics of the final-cycle grid.
type Moments struct {
	GridPts int
	WParVol float64

	Mean   []float64
	SD     []float64
	Var    []float64
	CV     []float64
	Median []float64
	Cov    wstat.Matrix
	Cor    wstat.Matrix
	Points PointTable
}

// Aggregate computes population moments from the support-point grid.
func Aggregate(in Input) Moments {
	nvar := len(in.Par)
	gridpts := GridPoints(in.IndPts)
	vol := CellVolume(in.AB, gridpts)
	points := pointTable(in, vol)

	m := Moments{
		GridPts: gridpts,
		WParVol: vol,
		Points:  points,
	}

	var cov, cor *mat.SymDense
	if len(points.Values) == 1 {
		row := points.Values[0]
		m.Mean = make([]float64, nvar)
		for j := range m.Mean {
			m.Mean[j] = row[j] * points.Prob[0]
		}
		cov = mat.NewSymDense(nvar, nil)
		cor = singlePointCor(nvar)
	} else {
		x := mat.NewDense(len(points.Values), nvar, nil)
		for i, row := range points.Values {
			x.SetRow(i, row)
		}
		m.Mean = weightedMoment(x, points.Prob)
		cov = secondMoment(x, points.Prob)
		cov.SymRankOne(cov, -1, mat.NewVecDense(nvar, m.Mean))
		cor = wstat.Cov2Cor(cov)
	}
	m.Cov = wstat.NewMatrix(in.Par, cov)
	m.Cor = wstat.NewMatrix(in.Par, cor)

	m.Var = make([]float64, nvar)
	m.SD = make([]float64, nvar)
	m.CV = make([]float64, nvar)
	m.Median = make([]float64, nvar)
	for j := 0; j < nvar; j++ {
		m.Var[j] = cov.At(j, j)
		m.SD[j] = math.Sqrt(m.Var[j])
		m.CV[j] = 100 * math.Abs(m.SD[j]/m.Mean[j])
		m.Median[j] = wstat.Median(points.Column(j), points.Prob)
	}
	return m
}

func pointTable(in Input, vol float64) PointTable {
	nvar := len(in.Par)
	t := PointTable{
		Par:    in.Par,
		Values: make([][]float64, len(in.Corden)),
		Prob:   make([]float64, len(in.Corden)),
	}
	for i, row := range in.Corden {
		t.Values[i] = append([]float64(nil), row[:nvar]...)
		t.Prob[i] = row[nvar] * vol
	}
	return t
}

// weightedMoment returns sum_i x[i,j]*p[i] per column.
func weightedMoment(x *mat.Dense, p []float64) []float64 {
	var mean mat.VecDense
	mean.MulVec(x.T(), mat.NewVecDense(len(p), p))
	return mat.Col(nil, 0, &mean)
}

// secondMoment returns sum_i p[i] * x[i,:]' x[i,:].
// Each point is added as a weighted rank-one update so p may carry any sign.
func secondMoment(x *mat.Dense, p []float64) *mat.SymDense {
	_, nvar := x.Dims()
	s := mat.NewSymDense(nvar, nil)
	for i, pi := range p {
		s.SymRankOne(s, pi, x.RowView(i))
	}
	return s
}

// singlePointCor is the correlation reported for a one-point grid:
// 1 on the diagonal, missing elsewhere.
func singlePointCor(nvar int) *mat.SymDense {
	cor := wstat.Missing(nvar)
	for i := 0; i < nvar; i++ {
		cor.SetSym(i, i, 1)
	}
	return cor
}
