package filter

import (
	"log/slog"

	"github.com/roach88/wherekit/internal/predicate"
)

// scope is one level of grouping. The root scope has no entry operator.
// A scope owns at most one open child; deeper nesting is a chain of
// children, one level each.
type scope struct {
	chain Chain

	// entry is the operator read from the context when this scope was
	// opened. It attaches the folded scope to its parent on close.
	entry predicate.Operator

	// pushed is set when opening the scope made an operator sticky, so the
	// matching close must reset the context.
	pushed bool

	child *scope
}

func (s *scope) clone() *scope {
	out := &scope{
		chain:  Chain{nodes: s.chain.Flatten()},
		entry:  s.entry,
		pushed: s.pushed,
	}
	if s.child != nil {
		out.child = s.child.clone()
	}
	return out
}

// Combiner builds a filter incrementally with nested groups.
//
// Every chain operation goes to the innermost open group. CloseGroup folds
// the innermost group into a single predicate and attaches it to its parent
// using the operator that was in effect when the group was opened.
//
// The zero value is an empty combiner with AND as the default operator.
// A Combiner is not safe for concurrent use; Clone it to branch.
type Combiner struct {
	ops  OperatorContext
	root scope
}

// NewCombiner returns an empty combiner whose operator context falls back
// to def.
func NewCombiner(def predicate.Operator) *Combiner {
	return &Combiner{ops: *NewOperatorContext(def)}
}

func (c *Combiner) innermost() *scope {
	s := &c.root
	for s.child != nil {
		s = s.child
	}
	return s
}

// Add appends p to the innermost open group using the context operator,
// consuming a pending one-shot value. AND-like adds prefer merging into an
// existing node on the same column.
func (c *Combiner) Add(p predicate.Predicate) {
	op := c.ops.Read()
	c.innermost().chain.Append(p, op, true)
}

// Append adds p to the innermost open group with an explicit operator. The
// operator context is not consulted.
func (c *Combiner) Append(p predicate.Predicate, op predicate.Operator, preferColumnMerge bool) {
	c.innermost().chain.Append(p, op, preferColumnMerge)
}

// SetOperatorSticky makes tok the operator for all following appends.
func (c *Combiner) SetOperatorSticky(tok predicate.Operator) { c.ops.SetSticky(tok) }

// SetOperatorOnce makes tok the operator for the next structural operation
// only (an Add or an OpenGroup).
func (c *Combiner) SetOperatorOnce(tok predicate.Operator) { c.ops.SetOnce(tok) }

// ResetOperator restores the previous permanent operator.
func (c *Combiner) ResetOperator() { c.ops.Reset() }

// Operator reads the context operator, consuming a pending one-shot value.
func (c *Combiner) Operator() predicate.Operator { return c.ops.Read() }

// PeekPermanentOperator returns the operator in effect once a pending
// one-shot value is gone, without consuming it.
func (c *Combiner) PeekPermanentOperator() predicate.Operator { return c.ops.PeekPermanent() }

// DefaultOperator returns the context's fallback operator.
func (c *Combiner) DefaultOperator() predicate.Operator { return c.ops.Default() }

// OpenGroup opens a group inside the innermost open group.
//
// The group's entry operator is read from the context exactly like Add
// would, so a preceding one-shot OR attaches the whole group with OR. When
// inner is given, inner[0] becomes the sticky operator inside the group and
// the matching CloseGroup restores the previous one.
func (c *Combiner) OpenGroup(inner ...predicate.Operator) {
	child := &scope{entry: c.ops.Read()}
	if len(inner) > 0 && inner[0] != "" {
		c.ops.SetSticky(inner[0])
		child.pushed = true
	}
	c.innermost().child = child
}

// CloseGroup closes the innermost open group and reports whether one was
// open. N nested OpenGroup calls need N CloseGroup calls.
//
// An empty group is discarded. Otherwise its nodes are left-folded with AND
// (a single node stays as is) and the result is appended to the parent with
// the group's entry operator and without column merging.
func (c *Combiner) CloseGroup() bool {
	if c.root.child == nil {
		slog.Debug("close group ignored: no open group")
		return false
	}

	parent := &c.root
	for parent.child.child != nil {
		parent = parent.child
	}
	closed := parent.child
	parent.child = nil

	if folded := Fold(closed.chain.nodes); folded != nil {
		parent.chain.Append(folded, closed.entry, false)
	}
	if closed.pushed {
		// A one-shot left unused inside the group sits on top of the
		// group's operator.
		if c.ops.Pending() {
			c.ops.Reset()
		}
		c.ops.Reset()
	}
	return true
}

// Depth returns the number of open groups.
func (c *Combiner) Depth() int {
	n := 0
	for s := c.root.child; s != nil; s = s.child {
		n++
	}
	return n
}

// Render returns the AND-joined filter text. An open group is surfaced as
// " AND (<group> ... )" after the resolved part; this marker is a debugging
// aid only and is never compiled.
func (c *Combiner) Render() string {
	return renderScope(&c.root)
}

func renderScope(s *scope) string {
	own := s.chain.Render()
	if s.child == nil {
		return own
	}
	return own + " AND (" + renderScope(s.child) + " ... )"
}

// Flatten returns the top-level nodes with any open groups folded in as if
// they had been closed. The combiner is not modified.
func (c *Combiner) Flatten() []predicate.Predicate {
	return flattenScope(&c.root)
}

func flattenScope(s *scope) []predicate.Predicate {
	nodes := s.chain.Flatten()
	if s.child == nil {
		return nodes
	}
	folded := Fold(flattenScope(s.child))
	if folded == nil {
		return nodes
	}
	virtual := Chain{nodes: nodes}
	virtual.Append(folded, s.child.entry, false)
	return virtual.nodes
}

// FindByColumn searches the resolved chain first, then open groups.
func (c *Combiner) FindByColumn(name string) predicate.Predicate {
	for s := &c.root; s != nil; s = s.child {
		if p := s.chain.FindByColumn(name); p != nil {
			return p
		}
	}
	return nil
}

// Count returns the number of top-level nodes across all scopes.
func (c *Combiner) Count() int {
	n := 0
	for s := &c.root; s != nil; s = s.child {
		n += s.chain.Count()
	}
	return n
}

func (c *Combiner) IsEmpty() bool {
	for s := &c.root; s != nil; s = s.child {
		if !s.chain.IsEmpty() {
			return false
		}
	}
	return true
}

// Equal reports structural equality, including any open groups and the
// operators they were opened with. Operator context state is not compared.
func (c *Combiner) Equal(other *Combiner) bool {
	if other == nil {
		return false
	}
	a, b := &c.root, &other.root
	for a != nil && b != nil {
		if a.entry != b.entry || !a.chain.Equal(&b.chain) {
			return false
		}
		a, b = a.child, b.child
	}
	return a == nil && b == nil
}

// Columns returns every referenced column across all scopes, first-seen
// order.
func (c *Combiner) Columns() []string {
	seen := make(map[string]bool)
	var out []string
	for s := &c.root; s != nil; s = s.child {
		for _, col := range s.chain.Columns() {
			if !seen[col] {
				seen[col] = true
				out = append(out, col)
			}
		}
	}
	return out
}

// ByColumn maps anchor columns to top-level nodes. Nodes of an open group
// replace same-column nodes of its parents.
func (c *Combiner) ByColumn() map[string]predicate.Predicate {
	out := make(map[string]predicate.Predicate)
	for s := &c.root; s != nil; s = s.child {
		for col, node := range s.chain.ByColumn() {
			out[col] = node
		}
	}
	return out
}

// Clone deep-copies the scopes and the operator context. Predicate nodes
// are immutable and therefore shared.
func (c *Combiner) Clone() *Combiner {
	return &Combiner{
		ops:  *c.ops.Clone(),
		root: *c.root.clone(),
	}
}

// Clear drops all filters and open groups and returns the operator context
// to its default.
func (c *Combiner) Clear() {
	c.root = scope{}
	c.ops = *NewOperatorContext(c.ops.Default())
}
