// Package compiler turns CUE scenario definitions into harness.Scenario
// values.
//
// CUE gives scenarios what YAML lacks: shared definitions, defaults and
// unification across files. Compilation uses the CUE Go API directly and
// reports problems as *CompileError with the source position.
package compiler
