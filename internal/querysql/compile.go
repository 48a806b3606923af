package querysql

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/roach88/wherekit/internal/ir"
	"github.com/roach88/wherekit/internal/predicate"
)

// Select is a single-table query filtered by AND-joined top-level nodes,
// typically filter.Combiner.Flatten().
type Select struct {
	From string

	// Bindings maps source column to output alias. Empty selects "*".
	Bindings map[string]string

	Filter []predicate.Predicate

	// OrderBy is the ordering column. Empty means "id".
	OrderBy string
}

// SQLCompiler compiles predicate trees to parameterized SQL for SQLite.
//
// CRITICAL: every SELECT includes ORDER BY for deterministic results.
// CRITICAL: values are always parameterized, never interpolated.
// Identifiers cannot be parameterized, so they are checked against
// identPattern instead.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

var comparators = map[string]bool{
	predicate.CmpEqual:        true,
	predicate.CmpNotEqual:     true,
	"!=":                      true,
	predicate.CmpGreater:      true,
	predicate.CmpGreaterEqual: true,
	predicate.CmpLess:         true,
	predicate.CmpLessEqual:    true,
	predicate.CmpLike:         true,
	predicate.CmpNotLike:      true,
	predicate.CmpIn:           true,
	predicate.CmpNotIn:        true,
	predicate.CmpIsNull:       true,
	predicate.CmpIsNotNull:    true,
}

// Compile converts a Select to parameterized SQL.
// Returns (sql, params, error).
func (c *SQLCompiler) Compile(q Select) (string, []any, error) {
	if err := checkIdent(q.From); err != nil {
		return "", nil, fmt.Errorf("from: %w", err)
	}

	selectClause, err := c.compileBindings(q.Bindings)
	if err != nil {
		return "", nil, err
	}

	whereSQL, params, err := c.Where(q.Filter)
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}

	orderKey, err := c.stableOrderKey(q)
	if err != nil {
		return "", nil, err
	}

	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s",
		selectClause,
		q.From,
		whereSQL,
		orderKey)

	return sql, params, nil
}

// Count compiles "SELECT COUNT(*) FROM <from> WHERE ...". Aggregates return
// a single row, so no ordering is added.
func (c *SQLCompiler) Count(from string, filter []predicate.Predicate) (string, []any, error) {
	if err := checkIdent(from); err != nil {
		return "", nil, fmt.Errorf("from: %w", err)
	}
	whereSQL, params, err := c.Where(filter)
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}
	sql, err := c.CountWhere(from, whereSQL)
	if err != nil {
		return "", nil, err
	}
	return sql, params, nil
}

// CountWhere wraps an already compiled WHERE body, such as a stored one.
func (c *SQLCompiler) CountWhere(from, whereSQL string) (string, error) {
	if err := checkIdent(from); err != nil {
		return "", fmt.Errorf("from: %w", err)
	}
	if whereSQL == "" {
		whereSQL = "1 = 1"
	}
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", from, whereSQL), nil
}

// Where compiles AND-joined top-level nodes to a WHERE body.
// An empty list compiles to "1 = 1".
func (c *SQLCompiler) Where(nodes []predicate.Predicate) (string, []any, error) {
	if len(nodes) == 0 {
		return "1 = 1", nil, nil // Always true (vacuous truth)
	}

	var sqlParts []string
	var allParams []any
	for i, node := range nodes {
		sql, params, err := c.compilePredicate(node)
		if err != nil {
			return "", nil, fmt.Errorf("node %d: %w", i, err)
		}
		sqlParts = append(sqlParts, sql)
		allParams = append(allParams, params...)
	}
	return strings.Join(sqlParts, " AND "), allParams, nil
}

// compileBindings converts the bindings map to a SELECT column list.
// Example: {"item_id": "itemId"} -> "item_id AS itemId"
// Keys are sorted for deterministic output.
func (c *SQLCompiler) compileBindings(bindings map[string]string) (string, error) {
	if len(bindings) == 0 {
		return "*", nil
	}

	keys := make([]string, 0, len(bindings))
	for k := range bindings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, sourceField := range keys {
		alias := bindings[sourceField]
		if err := checkIdent(sourceField); err != nil {
			return "", fmt.Errorf("binding: %w", err)
		}
		if sourceField == alias || alias == "" {
			parts = append(parts, sourceField)
			continue
		}
		if err := checkIdent(alias); err != nil {
			return "", fmt.Errorf("binding alias: %w", err)
		}
		parts = append(parts, fmt.Sprintf("%s AS %s", sourceField, alias))
	}
	return strings.Join(parts, ", "), nil
}

// stableOrderKey returns the ORDER BY clause body.
// COLLATE BINARY keeps text ordering identical across SQLite versions.
func (c *SQLCompiler) stableOrderKey(q Select) (string, error) {
	key := q.OrderBy
	if key == "" {
		key = "id"
	}
	if err := checkIdent(key); err != nil {
		return "", fmt.Errorf("order by: %w", err)
	}
	return key + " COLLATE BINARY ASC", nil
}

// compilePredicate compiles one predicate tree to a WHERE fragment.
// CRITICAL: values NEVER interpolated - always ? placeholders.
func (c *SQLCompiler) compilePredicate(p predicate.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case *predicate.Condition:
		return c.compileCondition(pred)
	case *predicate.Raw:
		return c.compileRaw(pred)
	case *predicate.Composite:
		return c.compileComposite(pred)
	case nil:
		return "", nil, fmt.Errorf("nil predicate")
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileCondition(cond *predicate.Condition) (string, []any, error) {
	if err := checkIdent(cond.Column); err != nil {
		return "", nil, err
	}
	if !comparators[cond.Comparator] {
		return "", nil, fmt.Errorf("unsupported comparator %q", cond.Comparator)
	}

	switch cond.Comparator {
	case predicate.CmpIsNull, predicate.CmpIsNotNull:
		return cond.Column + " " + cond.Comparator, nil, nil

	case predicate.CmpIn, predicate.CmpNotIn:
		list, ok := cond.Value.(ir.IRArray)
		if !ok {
			return "", nil, fmt.Errorf("%s on %s requires a list value, got %T", cond.Comparator, cond.Column, cond.Value)
		}
		if len(list) == 0 {
			// IN () is a syntax error in SQLite; use the constant truth value.
			if cond.Comparator == predicate.CmpIn {
				return "1 = 0", nil, nil
			}
			return "1 = 1", nil, nil
		}
		params := make([]any, len(list))
		for i, elem := range list {
			param, err := irValueToParam(elem)
			if err != nil {
				return "", nil, fmt.Errorf("convert %s[%d]: %w", cond.Column, i, err)
			}
			params[i] = param
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(list)), ", ")
		return fmt.Sprintf("%s %s (%s)", cond.Column, cond.Comparator, placeholders), params, nil

	default:
		param, err := irValueToParam(cond.Value)
		if err != nil {
			return "", nil, fmt.Errorf("convert value: %w", err)
		}
		return fmt.Sprintf("%s %s ?", cond.Column, cond.Comparator), []any{param}, nil
	}
}

// compileRaw passes the fragment through. Its placeholder count must match
// its arguments.
func (c *SQLCompiler) compileRaw(raw *predicate.Raw) (string, []any, error) {
	if strings.TrimSpace(raw.SQL) == "" {
		return "", nil, fmt.Errorf("empty raw fragment")
	}
	if n := strings.Count(raw.SQL, "?"); n != len(raw.Args) {
		return "", nil, fmt.Errorf("raw fragment %q has %d placeholder(s) but %d argument(s)", raw.SQL, n, len(raw.Args))
	}
	params := make([]any, len(raw.Args))
	for i, arg := range raw.Args {
		param, err := irValueToParam(arg)
		if err != nil {
			return "", nil, fmt.Errorf("convert raw arg %d: %w", i, err)
		}
		params[i] = param
	}
	return raw.SQL, params, nil
}

// compileComposite parenthesizes the joined children. Only AND and OR
// reach SQL; any other token is rejected.
func (c *SQLCompiler) compileComposite(comp *predicate.Composite) (string, []any, error) {
	if comp.Op != predicate.OpAnd && comp.Op != predicate.OpOr {
		return "", nil, fmt.Errorf("unsupported composite operator %q", comp.Op)
	}
	if len(comp.Children) == 0 {
		return "", nil, fmt.Errorf("empty %s composite", comp.Op)
	}

	sqlParts := make([]string, 0, len(comp.Children))
	var allParams []any
	for _, child := range comp.Children {
		sql, params, err := c.compilePredicate(child)
		if err != nil {
			return "", nil, err
		}
		sqlParts = append(sqlParts, sql)
		allParams = append(allParams, params...)
	}
	return "(" + strings.Join(sqlParts, " "+string(comp.Op)+" ") + ")", allParams, nil
}

func checkIdent(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}
	return nil
}

// irValueToParam converts an ir.IRValue to a Go native type for a SQL
// parameter. Arrays and objects have no scalar form.
func irValueToParam(v ir.IRValue) (any, error) {
	switch val := v.(type) {
	case ir.IRString:
		return string(val), nil
	case ir.IRInt:
		return int64(val), nil
	case ir.IRBool:
		return bool(val), nil
	case ir.IRNull:
		return nil, nil
	case nil:
		return nil, nil
	case ir.IRArray:
		return nil, fmt.Errorf("IRArray cannot be used as SQL parameter directly")
	case ir.IRObject:
		return nil, fmt.Errorf("IRObject cannot be used as SQL parameter directly")
	default:
		return nil, fmt.Errorf("unsupported IRValue type for SQL parameter: %T", v)
	}
}
