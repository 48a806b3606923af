// Package filter implements the stateful engine that assembles a WHERE
// expression one call at a time.
//
// Three types cooperate:
//
//   - OperatorContext tracks the operator for the next append. Sticky
//     operators persist; one-shot operators apply to a single read.
//   - Chain is the AND-joined list of top-level predicates with the
//     column-merge rule for implicit AND.
//   - Combiner wraps a Chain and an OperatorContext and adds nested groups.
//
// # Example
//
//	c := filter.NewCombiner(predicate.OpAnd)
//	c.Add(a)
//	c.OpenGroup()
//	c.Add(b)
//	c.Append(d, predicate.OpOr, true)
//	c.CloseGroup()
//	c.Render() // "A=1 AND (B=2 OR D=4)"
//
// # Permissive State Machine
//
// No operation fails. Closing a group that is not open returns false,
// resetting an empty operator history falls back to the default, and an
// unclosed group is still rendered (with a trailing " ... )" marker) and
// still compiled through Flatten.
package filter
