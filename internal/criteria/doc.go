// Package criteria is the query-builder layer on top of the filter engine.
//
// It names the engine's operations the way query code reads: Where adds with
// the current operator, AddAnd and AddOr force a conjunction, And and Or set
// a one-shot operator, and CombineFilters / EndCombineFilters bracket a
// parenthesized group. UseSubQuery / EndUse collect filters for a related
// table and merge them back as one unit.
package criteria
