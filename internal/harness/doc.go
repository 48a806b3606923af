// Package harness runs scripted filter-building scenarios.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: or_group
//	description: "A=1 AND (B=2 OR C=3)"
//	steps:
//	  - {op: where, column: A, value: 1}
//	  - {op: open}
//	  - {op: where, column: B, value: 2}
//	  - {op: add_or, column: C, value: 3}
//	  - {op: close}
//	expect: "A=1 AND (B=2 OR C=3)"
//	expect_sql: "A = ? AND (B = ? OR C = ?)"
//	expect_params: [1, 2, 3]
//
// Unknown fields are rejected so that typos fail loudly.
//
// # Steps
//
//   - where: add a condition with the current operator
//   - add_and / add_or: add a condition with an explicit operator
//   - raw: add a raw SQL fragment with "?" placeholders
//   - and / or: one-shot operator for the next add
//   - set / once: sticky or one-shot operator token
//   - reset: restore the previous sticky operator
//   - open / close: open a group (optionally with an inner operator), close it
//   - use / end_use: build a sub-query and merge it back
//
// # Deterministic Testing
//
// Every step adds a trace event numbered by testutil.DeterministicClock and
// carrying the filter text after the step. Run results are compared against
// golden files in testdata/golden with AssertGolden.
package harness
