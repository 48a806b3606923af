package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/wherekit/internal/filter"
	"github.com/roach88/wherekit/internal/ir"
	"github.com/roach88/wherekit/internal/querysql"
)

var (
	// ErrNotFound is returned when no filter is saved under a name.
	ErrNotFound = errors.New("saved filter not found")

	// ErrOpenGroup is returned when a filter with unclosed groups is saved.
	ErrOpenGroup = errors.New("filter has unclosed groups")
)

// SavedFilter is one stored snapshot of a filter.
type SavedFilter struct {
	ID     string
	Name   string
	Where  string // rendered display text
	SQL    string // parameterized WHERE body
	Params []any
	Hash   string
	Seq    int64
}

// Snapshot compiles c into the content that SaveFilter stores and hashes.
func Snapshot(c *filter.Combiner) (where, sqlText string, params []any, hash string, err error) {
	where = c.Render()
	sqlText, params, err = querysql.NewSQLCompiler().Where(c.Flatten())
	if err != nil {
		return "", "", nil, "", fmt.Errorf("snapshot: %w", err)
	}

	canonicalParams := params
	if canonicalParams == nil {
		canonicalParams = []any{}
	}
	hash, err = ir.FilterHash(map[string]any{
		"where":  where,
		"sql":    sqlText,
		"params": canonicalParams,
	})
	if err != nil {
		return "", "", nil, "", fmt.Errorf("snapshot: %w", err)
	}
	return where, sqlText, params, hash, nil
}

// SaveFilter stores the current state of c under name.
//
// Saving identical content under the same name again is a no-op that returns
// the existing record. Different content gets a new record with a higher
// seq; LoadFilter returns the latest.
func (s *Store) SaveFilter(ctx context.Context, name string, c *filter.Combiner) (SavedFilter, error) {
	if name == "" {
		return SavedFilter{}, fmt.Errorf("save filter: empty name")
	}
	if c.Depth() > 0 {
		return SavedFilter{}, fmt.Errorf("save filter %q: %w", name, ErrOpenGroup)
	}

	where, sqlText, params, hash, err := Snapshot(c)
	if err != nil {
		return SavedFilter{}, fmt.Errorf("save filter %q: %w", name, err)
	}
	paramsJSON, err := marshalParams(params)
	if err != nil {
		return SavedFilter{}, fmt.Errorf("save filter %q: %w", name, err)
	}

	// ON CONFLICT(name, hash) DO NOTHING makes re-saving idempotent.
	// SQLite needs the WHERE on INSERT ... SELECT to parse the upsert clause.
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO saved_filters (id, name, where_text, sql, params, hash, seq)
		SELECT ?, ?, ?, ?, ?, ?, COALESCE(MAX(seq), 0) + 1 FROM saved_filters WHERE true
		ON CONFLICT(name, hash) DO NOTHING
	`,
		s.ids.Generate(),
		name,
		where,
		sqlText,
		paramsJSON,
		hash,
	)
	if err != nil {
		return SavedFilter{}, fmt.Errorf("save filter %q: %w", name, err)
	}

	if n, err := res.RowsAffected(); err == nil && n > 0 {
		slog.Info("filter saved", "name", name, "hash", hash)
	} else {
		slog.Debug("filter unchanged, skipping (idempotent)", "name", name, "hash", hash)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, where_text, sql, params, hash, seq
		FROM saved_filters
		WHERE name = ? AND hash = ?
	`, name, hash)
	return scanSavedFilter(row)
}

// LoadFilter returns the most recently saved filter for name.
func (s *Store) LoadFilter(ctx context.Context, name string) (SavedFilter, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, where_text, sql, params, hash, seq
		FROM saved_filters
		WHERE name = ?
		ORDER BY seq DESC, id COLLATE BINARY ASC
		LIMIT 1
	`, name)

	f, err := scanSavedFilter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SavedFilter{}, fmt.Errorf("load filter %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return SavedFilter{}, fmt.Errorf("load filter %q: %w", name, err)
	}
	return f, nil
}

// ListFilters returns every saved record in seq order.
func (s *Store) ListFilters(ctx context.Context) ([]SavedFilter, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, where_text, sql, params, hash, seq
		FROM saved_filters
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list filters: %w", err)
	}
	defer rows.Close()

	var out []SavedFilter
	for rows.Next() {
		f, err := scanSavedFilter(rows)
		if err != nil {
			return nil, fmt.Errorf("list filters: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list filters: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSavedFilter(row rowScanner) (SavedFilter, error) {
	var f SavedFilter
	var paramsJSON string
	if err := row.Scan(&f.ID, &f.Name, &f.Where, &f.SQL, &paramsJSON, &f.Hash, &f.Seq); err != nil {
		return SavedFilter{}, err
	}
	params, err := unmarshalParams(paramsJSON)
	if err != nil {
		return SavedFilter{}, err
	}
	f.Params = params
	return f, nil
}
