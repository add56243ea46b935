// Package shrinkage splits population variance into its empirical-Bayes parts.
//
// varEBD is the mean posterior variance across subjects; shrinkage is
// varEBD / popVar. Values are reported unclamped, and a zero population
// variance yields the IEEE result of the division (Inf or NaN).
package shrinkage

import (
	"gonum.org/v1/gonum/stat"
)

// Row is the shrinkage of one parameter.
type Row struct {
	Parameter string
	Shrinkage float64
	VarEBD    float64
	PopVar    float64
}

// Compute returns one row per parameter.
// postVar has one row per subject and one column per parameter.
func Compute(par []string, popVar []float64, postVar [][]float64) []Row {
	rows := make([]Row, len(par))
	col := make([]float64, len(postVar))
	for j, name := range par {
		for s, subject := range postVar {
			col[s] = subject[j]
		}
		varEBD := stat.Mean(col, nil)
		rows[j] = Row{
			Parameter: name,
			Shrinkage: varEBD / popVar[j],
			VarEBD:    varEBD,
			PopVar:    popVar[j],
		}
	}
	return rows
}
