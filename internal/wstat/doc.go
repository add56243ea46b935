// Package wstat provides weighted statistics shared by the aggregators.
//
// Weighted quantiles use the empirical CDF: after sorting by value, the
// quantile p is the first value whose cumulative normalised weight reaches p.
// A cumulative weight landing exactly on p selects the lower value; there is
// no interpolation between neighbours.
//
// Weighted covariance uses the maximum-likelihood convention (divide by the
// sum of weights, not sum-1). Missing entries in matrices are NaN.
package wstat
