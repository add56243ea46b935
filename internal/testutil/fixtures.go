package testutil

import (
	"github.com/jaboteur/Pmetrics/internal/run"
)

// Prob returns a pointer to v for PostDenRow.Prob literals.
func Prob(v float64) *float64 {
	return &v
}

// NPAGThreePoints is a two-parameter NPAG run with three support points
// whose raw weights sum to 1, three subjects and posterior densities.
func NPAGThreePoints() *run.NPAGResult {
	return &run.NPAGResult{
		NVar:   2,
		Par:    []string{"ka", "ke"},
		AB:     []run.Bound{{Lower: 0, Upper: 10}, {Lower: 0, Upper: 5}},
		IndPts: 1,
		Corden: [][]float64{
			{1, 1, 0.5},
			{5, 2, 0.3},
			{9, 4, 0.2},
		},
		PostDen: run.Some([]run.PostDenRow{
			{Subject: 1, Point: 1, Values: []float64{1, 1}, Prob: Prob(20)},
			{Subject: 1, Point: 2, Values: []float64{5, 2}, Prob: Prob(22.58)},
			{Subject: 2, Point: 1, Values: []float64{5, 2}, Prob: Prob(42.58)},
			{Subject: 3, Point: 1, Values: []float64{5, 2}, Prob: Prob(10)},
			{Subject: 3, Point: 2, Values: []float64{9, 4}, Prob: Prob(32.58)},
			{Subject: 3, Point: 3, Values: []float64{1, 1}, Prob: nil},
		}),
		SubjectIDs: []string{"101", "102", "103"},
		BMean: [][]float64{
			{2.9, 1.5},
			{5, 2},
			{8.1, 3.5},
		},
		BSD: [][]float64{
			{2, 0.5},
			{0, 0},
			{1.5, 0.75},
		},
		NSub: 3,
	}
}

// NPAGWithoutPosterior is NPAGThreePoints with no posterior densities.
func NPAGWithoutPosterior() *run.NPAGResult {
	r := NPAGThreePoints()
	r.PostDen = run.None[[]run.PostDenRow]()
	return r
}

// NPAGWithFixed is NPAGThreePoints carrying two fixed parameters.
func NPAGWithFixed() *run.NPAGResult {
	r := NPAGThreePoints()
	r.ParRanFix = []string{"tlag", "f"}
	r.ValRanFix = []float64{0.5, 0.8}
	r.NRanFix = 2
	return r
}

// NPAGFullyInformative has one subject whose posterior variance is zero
// for every parameter.
func NPAGFullyInformative() *run.NPAGResult {
	return &run.NPAGResult{
		NVar:       2,
		Par:        []string{"cl", "v"},
		AB:         []run.Bound{{Lower: 0, Upper: 10}, {Lower: 0, Upper: 100}},
		IndPts:     2,
		Corden:     [][]float64{{2, 40, 2.5}, {6, 60, 2.5}},
		PostDen:    run.None[[]run.PostDenRow](),
		SubjectIDs: []string{"only"},
		BMean:      [][]float64{{4, 50}},
		BSD:        [][]float64{{0, 0}},
		NSub:       1,
	}
}

// IT2BTenCycles is a two-parameter IT2B run whose final cycle is cycle 10.
// Row c-1 of each per-cycle table holds values derived from c.
func IT2BTenCycles() *run.IT2BResult {
	const cycles = 10
	r := &run.IT2BResult{
		NVar:       2,
		Par:        []string{"ka", "ke"},
		AB:         []run.Bound{{Lower: 0.1, Upper: 3}, {Lower: 0.01, Upper: 1}},
		ICycTot:    cycles,
		SubjectIDs: []string{"s1", "s2"},
		NSub:       2,
		LPar:       [][]float64{{0.2, -1.5}, {0.4, -1.1}},
		LSD:        [][]float64{{0.3, 0.1}, {0.5, 0.2}},
	}
	for c := 1; c <= cycles; c++ {
		f := float64(c)
		r.IMean = append(r.IMean, []float64{1 + f/100, 0.1 + f/1000})
		r.ISD = append(r.ISD, []float64{0.5 + f/100, 0.05 + f/1000})
		r.IMed = append(r.IMed, []float64{0.9 + f/100, 0.09 + f/1000})
		r.ICV = append(r.ICV, []float64{40 + f, 30 + f})
	}
	return r
}
