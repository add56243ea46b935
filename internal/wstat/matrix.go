package wstat

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Matrix is a symmetric parameter-by-parameter matrix with row/column names.
// NaN entries are missing.
type Matrix struct {
	Names []string
	Sym   *mat.SymDense
}

// NewMatrix pairs names with a symmetric matrix of matching dimension.
func NewMatrix(names []string, sym *mat.SymDense) Matrix {
	return Matrix{Names: names, Sym: sym}
}

// Dim returns the number of rows (and columns).
func (m Matrix) Dim() int {
	if m.Sym == nil {
		return 0
	}
	return m.Sym.SymmetricDim()
}

// At returns entry (i, j).
func (m Matrix) At(i, j int) float64 {
	return m.Sym.At(i, j)
}

// Rows copies the matrix into a dense row-major slice.
func (m Matrix) Rows() [][]float64 {
	n := m.Dim()
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, n)
		for j := range rows[i] {
			rows[i][j] = m.Sym.At(i, j)
		}
	}
	return rows
}

// AllMissing reports whether every entry is NaN.
func (m Matrix) AllMissing() bool {
	n := m.Dim()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if !math.IsNaN(m.Sym.At(i, j)) {
				return false
			}
		}
	}
	return true
}

// Missing returns an n×n matrix with every entry NaN.
func Missing(n int) *mat.SymDense {
	data := make([]float64, n*n)
	for i := range data {
		data[i] = math.NaN()
	}
	return mat.NewSymDense(n, data)
}

// Diagonal returns an n×n matrix with d on the diagonal and zeros elsewhere.
func Diagonal(d []float64) *mat.SymDense {
	s := mat.NewSymDense(len(d), nil)
	for i, v := range d {
		s.SetSym(i, i, v)
	}
	return s
}

// Cov2Cor scales a covariance matrix into a correlation matrix.
// The diagonal is exactly 1. If any variance is exactly zero (or missing)
// the correlation is undefined and every entry is NaN.
func Cov2Cor(cov *mat.SymDense) *mat.SymDense {
	n := cov.SymmetricDim()
	sd := make([]float64, n)
	for i := range sd {
		v := cov.At(i, i)
		if v == 0 || math.IsNaN(v) {
			return Missing(n)
		}
		sd[i] = math.Sqrt(v)
	}

	cor := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		cor.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			cor.SetSym(i, j, cov.At(i, j)/(sd[i]*sd[j]))
		}
	}
	return cor
}

// CovML returns the weighted covariance of the columns of x (rows are
// observations) using weights w, normalised by the sum of weights.
// The result is all-NaN when x has no rows or the weights sum to zero.
func CovML(x mat.Matrix, w []float64) *mat.SymDense {
	n, p := x.Dims()
	sumW := floats.Sum(w)
	if n == 0 || len(w) != n || sumW == 0 {
		return Missing(p)
	}
	if n == 1 {
		// A lone observation has exactly zero spread.
		return mat.NewSymDense(p, nil)
	}

	mean := make([]float64, p)
	for j := range mean {
		mean[j] = stat.Mean(mat.Col(nil, j, x), w)
	}

	cov := mat.NewSymDense(p, nil)
	d := mat.NewVecDense(p, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			d.SetVec(j, x.At(i, j)-mean[j])
		}
		cov.SymRankOne(cov, w[i]/sumW, d)
	}
	return cov
}

// CorML is Cov2Cor(CovML(x, w)).
func CorML(x mat.Matrix, w []float64) *mat.SymDense {
	return Cov2Cor(CovML(x, w))
}
