package wstat

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Quantile returns the weighted p-quantile of x.
// A nil w weights every value equally. Pairs with a NaN value or NaN
// weight are ignored. Returns NaN when p is outside [0, 1], when nothing
// remains, when any remaining weight is negative, or when the remaining
// weights sum to zero.
func Quantile(p float64, x, w []float64) float64 {
	if !(p >= 0 && p <= 1) {
		return math.NaN()
	}
	xs, ws := sortedPairs(x, w)
	if len(xs) == 0 || floats.Sum(ws) == 0 || floats.Min(ws) < 0 {
		return math.NaN()
	}
	return stat.Quantile(p, stat.Empirical, xs, ws)
}

// Median is Quantile(0.5, x, w).
func Median(x, w []float64) float64 {
	return Quantile(0.5, x, w)
}

// IQR returns the weighted interquartile range Q(0.75) - Q(0.25).
func IQR(x, w []float64) float64 {
	return Quantile(0.75, x, w) - Quantile(0.25, x, w)
}

// Mean returns the weighted mean of x, ignoring NaN pairs.
func Mean(x, w []float64) float64 {
	xs, ws := sortedPairs(x, w)
	if len(xs) == 0 || floats.Sum(ws) == 0 {
		return math.NaN()
	}
	return stat.Mean(xs, ws)
}

// sortedPairs copies the usable (value, weight) pairs and sorts them by value.
func sortedPairs(x, w []float64) ([]float64, []float64) {
	if w != nil && len(w) != len(x) {
		return nil, nil
	}
	xs := make([]float64, 0, len(x))
	ws := make([]float64, 0, len(x))
	for i, v := range x {
		wt := 1.0
		if w != nil {
			wt = w[i]
		}
		if math.IsNaN(v) || math.IsNaN(wt) {
			continue
		}
		xs = append(xs, v)
		ws = append(ws, wt)
	}

	inds := make([]int, len(xs))
	floats.Argsort(xs, inds)
	sorted := make([]float64, len(ws))
	for i, idx := range inds {
		sorted[i] = ws[idx]
	}
	return xs, sorted
}
