// Package summary turns a parsed NPAG or IT2B run into a FinalCycleSummary.
//
// Summarize dispatches on the result variant:
//
//	NPAG: grid.Aggregate -> posterior.AggregateNPAG -> shrinkage.Compute
//	IT2B: final-cycle lookup -> posterior.AggregateIT2B -> shrinkage.Compute
//
// The computation is a pure function of its input. Nothing is cached and
// inputs are never mutated. The only side effect is optional logging of
// data-quality warnings (probabilities that do not sum to 1).
//
// Absent data stays absent: an NPAG run without posterior densities yields
// absent PostPoints, PostCov and PostCor, and an IT2B run never carries
// PopPoints, PostPoints, PostCov, PostCor or GridPts.
package summary
