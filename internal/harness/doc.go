// Package harness runs summary scenarios: a run document plus numeric
// expectations on the FinalCycleSummary computed from it.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	run: ../runs/npag.json      # relative to the scenario file
//	tolerance: 1e-6             # optional, default 1e-9
//	golden: true                # optional, compare a snapshot
//	expect_error: INVALID_INPUT # optional, scenario must fail with this code
//	assertions:
//	  - type: vector
//	    field: pop_mean
//	    values: [0.0892, 0.0376]
//	  - type: matrix
//	    field: pop_cor
//	    matrix: [[1, .nan], [.nan, 1]]
//	  - type: subject
//	    field: post_mean
//	    subject: "101"
//	    values: [2.9, 1.5]
//	  - type: shrinkage
//	    parameter: ka
//	    value: 0.25
//	  - type: absent
//	    field: post_points
//
// # Assertion Types
//
//   - method: the summary method equals Method
//   - scalar: gridpts, wparvol or nsub equals Value
//   - vector: a population vector (pop_mean, pop_sd, pop_var, pop_cv, pop_median)
//   - matrix: pop_cov, pop_cor, or post_cov/post_cor of Subject
//   - subject: a row of post_mean, post_sd or post_var
//   - shrinkage: the shrinkage, var_ebd or pop_var of Parameter
//   - absent / present: an optional part (pop_points, post_points,
//     post_cov, post_cor, gridpts, wparvol, pop_ran_fix)
//
// Numbers compare within the scenario tolerance, scaled by max(1, |want|).
// YAML .nan matches a missing value and .inf / -.inf match infinities.
//
// # Golden Snapshots
//
// RunWithGolden renders the summary as a text snapshot (six significant
// digits, values below 1e-12 in magnitude flushed to 0) and compares it with
// testdata/golden/<name>.golden using goldie. Regenerate with:
//
//	go test ./internal/harness -update
package harness
