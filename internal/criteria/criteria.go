package criteria

import (
	"fmt"
	"log/slog"

	"github.com/roach88/wherekit/internal/filter"
	"github.com/roach88/wherekit/internal/ir"
	"github.com/roach88/wherekit/internal/predicate"
	"github.com/roach88/wherekit/internal/querysql"
)

// Criteria is a fluent query builder over a filter.Combiner.
//
// Every method returns the receiver so calls can be chained:
//
//	criteria.New().
//		Where("A", ir.IRInt(1)).
//		CombineFilters().
//		Where("B", ir.IRInt(2)).
//		AddOr("C", ir.IRInt(3)).
//		EndCombineFilters()
//
// renders "A=1 AND (B=2 OR C=3)".
type Criteria struct {
	combiner *filter.Combiner

	// primary is set on a sub-query created by UseSubQuery.
	primary *Criteria
}

// New returns an empty Criteria with AND as its default operator.
func New() *Criteria {
	return &Criteria{combiner: filter.NewCombiner(predicate.OpAnd)}
}

// Combiner exposes the underlying filter engine.
func (c *Criteria) Combiner() *filter.Combiner { return c.combiner }

// Where adds column = value using the current operator.
func (c *Criteria) Where(column string, value ir.IRValue) *Criteria {
	return c.Add(predicate.Eq(column, value))
}

// Filter adds "column comparator value" using the current operator.
func (c *Criteria) Filter(column, comparator string, value ir.IRValue) *Criteria {
	return c.Add(predicate.NewCondition(column, comparator, value))
}

// WhereRaw adds a raw SQL fragment with "?" placeholders using the current
// operator.
func (c *Criteria) WhereRaw(sql string, args ...ir.IRValue) *Criteria {
	return c.Add(predicate.NewRaw(sql, args...))
}

// Add adds p using the current operator, consuming a pending one-shot
// operator.
func (c *Criteria) Add(p predicate.Predicate) *Criteria {
	c.combiner.Add(p)
	return c
}

// AddAnd adds column = value with AND regardless of the current operator.
// A node already anchored on column absorbs it.
func (c *Criteria) AddAnd(column string, value ir.IRValue) *Criteria {
	c.combiner.Append(predicate.Eq(column, value), predicate.OpAnd, true)
	return c
}

// AddOr combines column = value with the last node using OR regardless of
// the current operator.
func (c *Criteria) AddOr(column string, value ir.IRValue) *Criteria {
	c.combiner.Append(predicate.Eq(column, value), predicate.OpOr, true)
	return c
}

// And makes AND the operator for the next add or group only.
func (c *Criteria) And() *Criteria {
	c.combiner.SetOperatorOnce(predicate.OpAnd)
	return c
}

// Or makes OR the operator for the next add or group only.
func (c *Criteria) Or() *Criteria {
	c.combiner.SetOperatorOnce(predicate.OpOr)
	return c
}

// SetOperator makes tok the operator for all following adds until reset.
func (c *Criteria) SetOperator(tok predicate.Operator) *Criteria {
	c.combiner.SetOperatorSticky(tok)
	return c
}

// ResetOperator restores the previous permanent operator.
func (c *Criteria) ResetOperator() *Criteria {
	c.combiner.ResetOperator()
	return c
}

// CombineFilters opens a group. The group attaches to its surroundings with
// the current operator; inside it, andOr (AND when omitted) is the sticky
// operator until EndCombineFilters.
func (c *Criteria) CombineFilters(andOr ...predicate.Operator) *Criteria {
	inner := predicate.OpAnd
	if len(andOr) > 0 && andOr[0] != "" {
		inner = andOr[0]
	}
	c.combiner.OpenGroup(inner)
	return c
}

// EndCombineFilters closes the innermost open group. Without an open group
// it does nothing.
func (c *Criteria) EndCombineFilters() *Criteria {
	c.combiner.CloseGroup()
	return c
}

// UseSubQuery starts a secondary Criteria that inherits this one's permanent
// operator. EndUse merges it back.
func (c *Criteria) UseSubQuery() *Criteria {
	sub := &Criteria{
		combiner: filter.NewCombiner(c.combiner.DefaultOperator()),
		primary:  c,
	}
	if op := c.combiner.PeekPermanentOperator(); op != sub.combiner.DefaultOperator() {
		sub.combiner.SetOperatorSticky(op)
	}
	return sub
}

// EndUse merges the sub-query's filters into the primary Criteria with the
// primary's current operator and returns the primary. Under OR the
// sub-query is folded into one node and ORed with the primary's last node;
// otherwise its top-level nodes are added one by one.
//
// Calling EndUse on a Criteria that is not a sub-query returns it unchanged.
func (c *Criteria) EndUse() *Criteria {
	primary := c.primary
	if primary == nil {
		slog.Debug("end use ignored: not a sub-query")
		return c
	}
	c.primary = nil

	nodes := c.combiner.Flatten()
	if len(nodes) == 0 {
		return primary
	}
	op := primary.combiner.Operator()
	if op == predicate.OpOr {
		primary.combiner.Append(filter.Fold(nodes), op, false)
		return primary
	}
	for _, node := range nodes {
		primary.combiner.Append(node, op, true)
	}
	return primary
}

// String renders the filter, including the marker for unclosed groups.
func (c *Criteria) String() string {
	return c.combiner.Render()
}

// WhereSQL compiles the filter to a parameterized WHERE body. Unclosed
// groups are compiled as if they were closed.
func (c *Criteria) WhereSQL() (string, []any, error) {
	sql, params, err := querysql.NewSQLCompiler().Where(c.combiner.Flatten())
	if err != nil {
		return "", nil, fmt.Errorf("compile criteria: %w", err)
	}
	return sql, params, nil
}

// SelectSQL compiles a full ordered SELECT against table.
func (c *Criteria) SelectSQL(table string, bindings map[string]string) (string, []any, error) {
	sql, params, err := querysql.NewSQLCompiler().Compile(querysql.Select{
		From:     table,
		Bindings: bindings,
		Filter:   c.combiner.Flatten(),
	})
	if err != nil {
		return "", nil, fmt.Errorf("compile criteria: %w", err)
	}
	return sql, params, nil
}

// Clone returns an independent deep copy.
func (c *Criteria) Clone() *Criteria {
	return &Criteria{combiner: c.combiner.Clone(), primary: c.primary}
}

// Equals reports structural equality of the accumulated filters.
func (c *Criteria) Equals(other *Criteria) bool {
	if other == nil {
		return false
	}
	return c.combiner.Equal(other.combiner)
}

// Count returns the number of top-level filter nodes, open groups included.
func (c *Criteria) Count() int { return c.combiner.Count() }

func (c *Criteria) IsEmpty() bool { return c.combiner.IsEmpty() }

// FindByColumn returns the top-level node anchored on column, or nil.
func (c *Criteria) FindByColumn(column string) predicate.Predicate {
	return c.combiner.FindByColumn(column)
}

// Clear removes every filter and open group.
func (c *Criteria) Clear() *Criteria {
	c.combiner.Clear()
	return c
}
