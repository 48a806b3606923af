package predicate

import (
	"errors"
	"fmt"

	"github.com/roach88/wherekit/internal/ir"
)

// Equal reports structural equality of two predicate trees.
func Equal(a, b Predicate) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch av := a.(type) {
	case *Condition:
		bv, ok := b.(*Condition)
		return ok && av.Column == bv.Column && av.Comparator == bv.Comparator && ir.Equal(av.Value, bv.Value)
	case *Raw:
		bv, ok := b.(*Raw)
		if !ok || av.SQL != bv.SQL || av.Column != bv.Column || len(av.Args) != len(bv.Args) {
			return false
		}
		for i := range av.Args {
			if !ir.Equal(av.Args[i], bv.Args[i]) {
				return false
			}
		}
		return true
	case *Composite:
		bv, ok := b.(*Composite)
		if !ok || av.Op != bv.Op || len(av.Children) != len(bv.Children) {
			return false
		}
		for i := range av.Children {
			if !Equal(av.Children[i], bv.Children[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Anchor returns the column a predicate groups under, or "" when it has none
// (an unanchored Raw fragment, for example).
func Anchor(p Predicate) string {
	switch node := p.(type) {
	case *Condition:
		return node.Column
	case *Raw:
		return node.Column
	case *Composite:
		if len(node.Children) == 0 {
			return ""
		}
		return Anchor(node.Children[0])
	default:
		return ""
	}
}

// Columns returns every column referenced in the tree, in first-seen order
// without duplicates.
func Columns(p Predicate) []string {
	seen := make(map[string]bool)
	var out []string
	var walk func(Predicate)
	walk = func(node Predicate) {
		switch n := node.(type) {
		case *Condition:
			if !seen[n.Column] {
				seen[n.Column] = true
				out = append(out, n.Column)
			}
		case *Raw:
			if n.Column != "" && !seen[n.Column] {
				seen[n.Column] = true
				out = append(out, n.Column)
			}
		case *Composite:
			for _, child := range n.Children {
				walk(child)
			}
		}
	}
	walk(p)
	return out
}

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid predicate")

// Validate checks a tree for structural defects that would otherwise only
// surface as malformed SQL: empty columns, nil children, composites with
// fewer than two operands, IN without a list.
func Validate(p Predicate) error {
	return validate(p, "$")
}

func validate(p Predicate, path string) error {
	switch n := p.(type) {
	case nil:
		return fmt.Errorf("%w: %s is nil", ErrInvalid, path)
	case *Condition:
		if n.Column == "" {
			return fmt.Errorf("%w: %s has empty column", ErrInvalid, path)
		}
		if n.Comparator == CmpIn || n.Comparator == CmpNotIn {
			if _, ok := n.Value.(ir.IRArray); !ok {
				return fmt.Errorf("%w: %s uses %s without a list value", ErrInvalid, path, n.Comparator)
			}
		}
	case *Raw:
		if n.SQL == "" {
			return fmt.Errorf("%w: %s has empty SQL", ErrInvalid, path)
		}
	case *Composite:
		if n.Op == "" {
			return fmt.Errorf("%w: %s has no operator", ErrInvalid, path)
		}
		if len(n.Children) < 2 {
			return fmt.Errorf("%w: %s has %d operand(s), need at least 2", ErrInvalid, path, len(n.Children))
		}
		for i, child := range n.Children {
			if err := validate(child, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	}
	return nil
}
