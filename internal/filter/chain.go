package filter

import (
	"strings"

	"github.com/roach88/wherekit/internal/predicate"
)

// Chain is an ordered list of top-level predicates, implicitly joined by AND.
//
// Insertion order is the join order. The chain only changes by appending a
// node or by replacing a node in place with a combination of itself and a
// new predicate.
type Chain struct {
	nodes []predicate.Predicate
}

// Append adds p under op.
//
//   - OR combines p with the last node (last OR p). On an empty chain p
//     becomes the first node.
//   - AND, and any custom token, appends p. When preferColumnMerge is set
//     and a node is already anchored on p's column, that node is replaced
//     in place by (node AND p) instead.
//
// Custom tokens behave like AND here. The token itself is only meaningful to
// callers.
func (c *Chain) Append(p predicate.Predicate, op predicate.Operator, preferColumnMerge bool) {
	if p == nil {
		return
	}

	if op == predicate.OpOr {
		if n := len(c.nodes); n > 0 {
			c.nodes[n-1] = c.nodes[n-1].Or(p)
			return
		}
		c.nodes = append(c.nodes, p)
		return
	}

	if preferColumnMerge {
		if i := c.indexByColumn(predicate.Anchor(p)); i >= 0 {
			c.nodes[i] = c.nodes[i].And(p)
			return
		}
	}
	c.nodes = append(c.nodes, p)
}

// FindByColumn returns the first top-level node anchored on name, or nil.
func (c *Chain) FindByColumn(name string) predicate.Predicate {
	if i := c.indexByColumn(name); i >= 0 {
		return c.nodes[i]
	}
	return nil
}

func (c *Chain) indexByColumn(name string) int {
	if name == "" {
		return -1
	}
	for i, node := range c.nodes {
		if node.MatchesColumn(name) {
			return i
		}
	}
	return -1
}

// Flatten returns a copy of the top-level nodes in join order.
func (c *Chain) Flatten() []predicate.Predicate {
	return append([]predicate.Predicate(nil), c.nodes...)
}

func (c *Chain) IsEmpty() bool { return len(c.nodes) == 0 }

func (c *Chain) Count() int { return len(c.nodes) }

// Render joins the rendered nodes with " AND ". An empty chain renders as "".
func (c *Chain) Render() string {
	return renderNodes(c.nodes)
}

func renderNodes(nodes []predicate.Predicate) string {
	parts := make([]string, len(nodes))
	for i, node := range nodes {
		parts[i] = node.Render()
	}
	return strings.Join(parts, " AND ")
}

// Equal reports whether both chains hold structurally equal nodes in the
// same order.
func (c *Chain) Equal(other *Chain) bool {
	if other == nil {
		return false
	}
	return nodesEqual(c.nodes, other.nodes)
}

func nodesEqual(a, b []predicate.Predicate) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !predicate.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Clone copies the node list. Predicates are immutable, so nodes are shared.
func (c *Chain) Clone() *Chain {
	return &Chain{nodes: c.Flatten()}
}

func (c *Chain) Clear() { c.nodes = nil }

// Columns returns every column referenced by the chain in first-seen order.
func (c *Chain) Columns() []string {
	seen := make(map[string]bool)
	var out []string
	for _, node := range c.nodes {
		for _, col := range predicate.Columns(node) {
			if !seen[col] {
				seen[col] = true
				out = append(out, col)
			}
		}
	}
	return out
}

// ByColumn maps each anchor column to its top-level node. Unanchored nodes
// are omitted; the first node wins for a repeated anchor.
func (c *Chain) ByColumn() map[string]predicate.Predicate {
	out := make(map[string]predicate.Predicate, len(c.nodes))
	for _, node := range c.nodes {
		col := predicate.Anchor(node)
		if col == "" {
			continue
		}
		if _, ok := out[col]; !ok {
			out[col] = node
		}
	}
	return out
}

// Fold left-folds nodes with AND. A single node is returned unchanged and an
// empty list yields nil.
func Fold(nodes []predicate.Predicate) predicate.Predicate {
	if len(nodes) == 0 {
		return nil
	}
	out := nodes[0]
	for _, node := range nodes[1:] {
		out = out.And(node)
	}
	return out
}
