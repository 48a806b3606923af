package store

import (
	"context"
	"fmt"

	"github.com/roach88/wherekit/internal/filter"
	"github.com/roach88/wherekit/internal/querysql"
)

// Count returns how many rows of table match the filter. Unclosed groups
// are evaluated as if they were closed.
func (s *Store) Count(ctx context.Context, table string, c *filter.Combiner) (int64, error) {
	query, params, err := querysql.NewSQLCompiler().Count(table, c.Flatten())
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}

	var n int64
	if err := s.db.QueryRowContext(ctx, query, params...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// CountSaved evaluates a previously saved filter against table.
func (s *Store) CountSaved(ctx context.Context, table string, f SavedFilter) (int64, error) {
	query, err := querysql.NewSQLCompiler().CountWhere(table, f.SQL)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}

	var n int64
	if err := s.db.QueryRowContext(ctx, query, f.Params...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s with %q: %w", table, f.Name, err)
	}
	return n, nil
}

// MatchingIDs returns the integer id column of every row of table matched by
// the filter, in id order.
func (s *Store) MatchingIDs(ctx context.Context, table string, c *filter.Combiner) ([]int64, error) {
	query, params, err := querysql.NewSQLCompiler().Compile(querysql.Select{
		From:     table,
		Bindings: map[string]string{"id": "id"},
		Filter:   c.Flatten(),
	})
	if err != nil {
		return nil, fmt.Errorf("match %s: %w", table, err)
	}

	rows, err := s.Query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("match %s: %w", table, err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("match %s: %w", table, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("match %s: %w", table, err)
	}
	return ids, nil
}
