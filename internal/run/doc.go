// Package run defines the parsed run-result types consumed by the summarizer.
//
// This package contains type definitions and shape validation only. The
// aggregation packages import run; run imports nothing internal.
//
// A Result is a sealed tagged union of exactly two variants:
//   - *NPAGResult: non-parametric adaptive grid output (support points + densities)
//   - *IT2BResult: iterative two-stage Bayesian output (per-cycle moments + point estimates)
//
// Key design constraints:
//   - Values are immutable once constructed; nothing downstream mutates them
//   - Optional data uses Optional[T], never nil-or-zero sentinels
//   - Subject indices inside posterior densities are 1-based, matching engine output
//   - All JSON/YAML keys use snake_case
package run
