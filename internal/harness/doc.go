// Package harness runs decomposition scenarios as executable contract tests.
//
// A scenario names a query, the pipeline options to run it with, and the
// assertions the result must satisfy.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: square_free_a
//	description: "Square with chord decomposes with A free"
//	query:
//	  free: [A]
//	  edges:
//	    - {source: A, label: r1, target: B}
//	    - {source: B, label: r2, target: C}
//	options:
//	  diameter_cap: 4
//	assertions:
//	  - type: subset_rules
//	    edges: [2, 3, 4]
//	    expr: "((r3 . r4) & r5^-)"
//	    source: C
//	    target: A
//	  - type: valid_partitions_min
//	    count: 1
//
// Omitted options keep pipeline.DefaultOptions. Expressions are compared
// structurally, so the ASCII operators ".", "&" and "^-" are accepted
// alongside the printed ones.
//
// # Assertion Types
//
//   - rules_include: a rule with the expression (and optional endpoints and
//     edges) appears in the catalogue or the global catalogue
//   - subset_rules: synthesizing the given edge subset yields the rule
//   - final_expression: the chosen whole-query expression matches
//   - valid_partitions_min: at least count partitions validated
//   - no_valid_partitions: no partition validated
//   - diagnostic_reason: some diagnostic carries the reason
//   - counts: the partition funnel equals total/filtered/valid
//   - termination: the run stopped for the reason ("completed" when it ran out)
//
// # Deterministic Testing
//
// The pipeline runs on a frozen testutil.ManualClock, so elapsed times are
// zero and golden snapshots are byte-stable across runs.
package harness
