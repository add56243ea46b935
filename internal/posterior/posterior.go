// Package posterior aggregates per-subject Bayesian posteriors.
//
// NPAG runs may carry full posterior point clouds (postden); IT2B runs only
// carry per-subject point estimates. Both produce one row per subject of
// posterior mean, SD and variance. Per-subject covariance and correlation
// exist only for NPAG runs with posterior densities.
package posterior

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/jaboteur/Pmetrics/internal/run"
	"github.com/jaboteur/Pmetrics/internal/wstat"
)

// MaxCovSubjects caps how many subjects get a posterior covariance matrix.
const MaxCovSubjects = 100

// SubjectTable has one row per subject and one column per parameter.
type SubjectTable struct {
	IDs    []string
	Par    []string
	Values [][]float64
}

// Column returns the values of parameter j across subjects.
func (t SubjectTable) Column(j int) []float64 {
	col := make([]float64, len(t.Values))
	for i, row := range t.Values {
		col[i] = row[j]
	}
	return col
}

// Point is one active posterior point of one subject.
type Point struct {
	// Subject is the 1-based subject index.
	Subject   int
	SubjectID string
	Index     int
	Values    []float64
	Prob      float64
}

// PointTable holds every retained posterior point, grouped by subject in
// subject order.
type PointTable struct {
	Par    []string
	Points []Point
}

// SubjectMatrix is a covariance or correlation matrix for one subject.
type SubjectMatrix struct {
	SubjectID string
	Matrix    wstat.Matrix
}

// Result is the posterior aggregation for every subject.
type Result struct {
	Mean SubjectTable
	SD   SubjectTable
	Var  SubjectTable

	Points run.Optional[PointTable]
	Cov    run.Optional[[]SubjectMatrix]
	Cor    run.Optional[[]SubjectMatrix]
}

// NPAGInput is the slice of an NPAG result the posterior aggregator reads.
type NPAGInput struct {
	Par        []string
	SubjectIDs []string
	PostDen    run.Optional[[]run.PostDenRow]
	BMean      [][]float64
	BSD        [][]float64

	// WParVol rescales posterior densities to probabilities.
	WParVol float64
}

// AggregateNPAG summarises NPAG posteriors.
// Without posterior densities, Points, Cov and Cor are absent.
func AggregateNPAG(in NPAGInput) Result {
	res := Result{
		Mean:   SubjectTable{IDs: in.SubjectIDs, Par: in.Par, Values: in.BMean},
		SD:     SubjectTable{IDs: in.SubjectIDs, Par: in.Par, Values: in.BSD},
		Var:    SubjectTable{IDs: in.SubjectIDs, Par: in.Par, Values: squared(in.BSD)},
		Points: run.None[PointTable](),
		Cov:    run.None[[]SubjectMatrix](),
		Cor:    run.None[[]SubjectMatrix](),
	}

	rows, ok := in.PostDen.Get()
	if !ok {
		return res
	}

	table := reshape(in.Par, in.SubjectIDs, rows, in.WParVol)
	res.Points = run.Some(table)

	covs, cors := subjectMatrices(table, in.SubjectIDs)
	res.Cov = run.Some(covs)
	res.Cor = run.Some(cors)
	return res
}

// AggregateIT2B takes IT2B per-subject point estimates as posterior moments.
func AggregateIT2B(r *run.IT2BResult) Result {
	return Result{
		Mean:   SubjectTable{IDs: r.SubjectIDs, Par: r.Par, Values: r.LPar},
		SD:     SubjectTable{IDs: r.SubjectIDs, Par: r.Par, Values: r.LSD},
		Var:    SubjectTable{IDs: r.SubjectIDs, Par: r.Par, Values: squared(r.LSD)},
		Points: run.None[PointTable](),
		Cov:    run.None[[]SubjectMatrix](),
		Cor:    run.None[[]SubjectMatrix](),
	}
}

// reshape drops points with missing probability, rescales the rest by the
// cell volume and maps subject indices to external ids.
func reshape(par, ids []string, rows []run.PostDenRow, vol float64) PointTable {
	kept := make([]run.PostDenRow, 0, len(rows))
	for _, row := range rows {
		if row.Prob == nil || math.IsNaN(*row.Prob) {
			continue
		}
		kept = append(kept, row)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Subject != kept[j].Subject {
			return kept[i].Subject < kept[j].Subject
		}
		return kept[i].Point < kept[j].Point
	})

	table := PointTable{Par: par, Points: make([]Point, len(kept))}
	for i, row := range kept {
		table.Points[i] = Point{
			Subject:   row.Subject,
			SubjectID: ids[row.Subject-1],
			Index:     row.Point,
			Values:    append([]float64(nil), row.Values...),
			Prob:      *row.Prob * vol,
		}
	}
	return table
}

// subjectMatrices computes weighted covariance and correlation for the
// first MaxCovSubjects subjects.
func subjectMatrices(table PointTable, ids []string) ([]SubjectMatrix, []SubjectMatrix) {
	n := len(ids)
	if n > MaxCovSubjects {
		n = MaxCovSubjects
	}
	nvar := len(table.Par)

	bySubject := make(map[int][]Point, n)
	for _, p := range table.Points {
		bySubject[p.Subject] = append(bySubject[p.Subject], p)
	}

	covs := make([]SubjectMatrix, 0, n)
	cors := make([]SubjectMatrix, 0, n)
	for s, id := range ids[:n] {
		points := bySubject[s+1]
		var cov *mat.SymDense
		if len(points) == 0 {
			cov = wstat.Missing(nvar)
		} else {
			x := mat.NewDense(len(points), nvar, nil)
			w := make([]float64, len(points))
			for i, p := range points {
				x.SetRow(i, p.Values)
				w[i] = p.Prob
			}
			cov = wstat.CovML(x, w)
		}
		covs = append(covs, SubjectMatrix{SubjectID: id, Matrix: wstat.NewMatrix(table.Par, cov)})
		cors = append(cors, SubjectMatrix{SubjectID: id, Matrix: wstat.NewMatrix(table.Par, wstat.Cov2Cor(cov))})
	}
	return covs, cors
}

func squared(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = v * v
		}
	}
	return out
}
