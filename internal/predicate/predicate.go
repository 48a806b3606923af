package predicate

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/wherekit/internal/ir"
)

// Operator is a logical combination token. AND and OR carry structural
// meaning; any other value is an opaque tag (e.g. "XOR") that the filter
// engine treats as AND.
type Operator string

const (
	OpAnd Operator = "AND"
	OpOr  Operator = "OR"
)

// Comparators understood by Render and the SQL compiler.
const (
	CmpEqual        = "="
	CmpNotEqual     = "<>"
	CmpGreater      = ">"
	CmpGreaterEqual = ">="
	CmpLess         = "<"
	CmpLessEqual    = "<="
	CmpLike         = "LIKE"
	CmpNotLike      = "NOT LIKE"
	CmpIn           = "IN"
	CmpNotIn        = "NOT IN"
	CmpIsNull       = "IS NULL"
	CmpIsNotNull    = "IS NOT NULL"
)

// Predicate is a boolean condition that can combine with another predicate
// and render itself.
//
// This is a sealed interface. The marker method keeps implementations inside
// this package.
type Predicate interface {
	// And returns a predicate representing (self AND other).
	And(other Predicate) Predicate
	// Or returns a predicate representing (self OR other).
	Or(other Predicate) Predicate
	// Render returns the display text of the predicate.
	Render() string
	// MatchesColumn reports whether the predicate is anchored on column name.
	MatchesColumn(name string) bool

	predicateNode()
}

// Condition is a leaf comparison of a column against a literal value.
//
// Value is ignored for IS NULL / IS NOT NULL. IN and NOT IN expect an
// ir.IRArray.
type Condition struct {
	Column     string
	Comparator string
	Value      ir.IRValue
}

// NewCondition creates a leaf condition. An empty comparator means "=".
func NewCondition(column, comparator string, value ir.IRValue) *Condition {
	if comparator == "" {
		comparator = CmpEqual
	}
	return &Condition{Column: column, Comparator: strings.ToUpper(comparator), Value: value}
}

// Eq is shorthand for NewCondition(column, "=", value).
func Eq(column string, value ir.IRValue) *Condition {
	return NewCondition(column, CmpEqual, value)
}

func (c *Condition) And(other Predicate) Predicate { return combine(OpAnd, c, other) }
func (c *Condition) Or(other Predicate) Predicate  { return combine(OpOr, c, other) }

// Render returns "A=1" for symbolic comparators and "name LIKE 'a%'" for
// keyword comparators.
func (c *Condition) Render() string {
	switch {
	case c.Comparator == CmpIsNull || c.Comparator == CmpIsNotNull:
		return c.Column + " " + c.Comparator
	case isSymbolic(c.Comparator):
		return c.Column + c.Comparator + ir.Literal(c.Value)
	default:
		return c.Column + " " + c.Comparator + " " + ir.Literal(c.Value)
	}
}

func (c *Condition) MatchesColumn(name string) bool { return sameColumn(c.Column, name) }

func (*Condition) predicateNode() {}

// Raw is an opaque SQL fragment with positional "?" placeholders.
// Column optionally anchors the fragment for column grouping.
type Raw struct {
	SQL    string
	Args   []ir.IRValue
	Column string
}

// NewRaw creates a raw fragment without an anchor column.
func NewRaw(sql string, args ...ir.IRValue) *Raw {
	return &Raw{SQL: sql, Args: args}
}

func (r *Raw) And(other Predicate) Predicate { return combine(OpAnd, r, other) }
func (r *Raw) Or(other Predicate) Predicate  { return combine(OpOr, r, other) }

// Render substitutes placeholders with literal text, in order. Surplus
// placeholders are left as "?".
func (r *Raw) Render() string {
	if len(r.Args) == 0 {
		return r.SQL
	}
	var b strings.Builder
	next := 0
	for _, ch := range r.SQL {
		if ch == '?' && next < len(r.Args) {
			b.WriteString(ir.Literal(r.Args[next]))
			next++
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func (r *Raw) MatchesColumn(name string) bool {
	return r.Column != "" && sameColumn(r.Column, name)
}

func (*Raw) predicateNode() {}

// Composite joins child predicates with a single operator.
// Composites built through And/Or always have exactly two children.
type Composite struct {
	Op       Operator
	Children []Predicate
}

func (c *Composite) And(other Predicate) Predicate { return combine(OpAnd, c, other) }
func (c *Composite) Or(other Predicate) Predicate  { return combine(OpOr, c, other) }

// Render parenthesizes the joined children: "(A=1 OR B=2)".
func (c *Composite) Render() string {
	parts := make([]string, len(c.Children))
	for i, child := range c.Children {
		parts[i] = child.Render()
	}
	return "(" + strings.Join(parts, " "+string(c.Op)+" ") + ")"
}

// MatchesColumn follows the anchor (first) child.
func (c *Composite) MatchesColumn(name string) bool {
	return len(c.Children) > 0 && c.Children[0].MatchesColumn(name)
}

func (*Composite) predicateNode() {}

func combine(op Operator, left, right Predicate) Predicate {
	if right == nil {
		return left
	}
	return &Composite{Op: op, Children: []Predicate{left, right}}
}

// sameColumn compares column names after NFC normalization so that
// differently composed identifiers still group together.
func sameColumn(a, b string) bool {
	if a == b {
		return true
	}
	return norm.NFC.String(a) == norm.NFC.String(b)
}

func isSymbolic(comparator string) bool {
	for _, r := range comparator {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
			return false
		}
	}
	return comparator != ""
}
