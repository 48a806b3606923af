package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/wherekit/internal/filter"
	"github.com/roach88/wherekit/internal/ir"
	"github.com/roach88/wherekit/internal/predicate"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createBooksTable creates and fills a small book table for evaluation tests.
func createBooksTable(t *testing.T, s *Store) {
	t.Helper()
	stmts := []string{
		`CREATE TABLE book (id INTEGER PRIMARY KEY, title TEXT, price INTEGER, isbn TEXT)`,
		`INSERT INTO book (id, title, price, isbn) VALUES
			(1, 'War And Peace', 42, 'a1'),
			(2, 'Anna Karenina', 30, 'a2'),
			(3, 'bar', 12, 'baz'),
			(4, 'Dead Souls', 42, NULL)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			t.Fatalf("setup %q: %v", stmt, err)
		}
	}
}

// priceOrTitle builds "(price=42 OR title='bar')".
func priceOrTitle() *filter.Combiner {
	c := filter.NewCombiner(predicate.OpAnd)
	c.Add(predicate.Eq("price", ir.IRInt(42)))
	c.Append(predicate.Eq("title", ir.IRString("bar")), predicate.OpOr, true)
	return c
}
