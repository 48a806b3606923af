// Package predicate provides the boolean condition algebra consumed by the
// filter engine.
//
// Predicate is a sealed interface: only Condition, Raw and Composite
// implement it. Backends (querysql) can therefore switch exhaustively on the
// concrete type.
//
// # Closed Algebra
//
// Combining two predicates always produces a new binary Composite:
//
//	a.And(b)          -> (a AND b)
//	a.And(b).And(c)   -> ((a AND b) AND c)
//	a.And(b.Or(c))    -> (a AND (b OR c))
//
// Predicates are immutable once built. Combining never changes an operand,
// so a chain slot is always replaced by the returned value and copies of a
// filter may share predicate nodes safely.
//
// # Rendering
//
// Render produces display text with literals inlined:
//
//	Condition{Column: "A", Comparator: "=", Value: ir.IRInt(1)}  -> A=1
//	Condition{Column: "name", Comparator: "LIKE", Value: ...}    -> name LIKE 'a%'
//	Condition{Column: "email", Comparator: "IS NULL"}            -> email IS NULL
//
// Parameterized SQL is produced by the querysql package, never by Render.
package predicate
