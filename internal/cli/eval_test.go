package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wherekit/internal/store"
)

const priceOrTitleYAML = `name: price_or_title
description: "Cheap classics or the bar book"
steps:
  - {op: where, column: price, value: 42}
  - {op: add_or, column: title, value: bar}
expect: "(price=42 OR title='bar')"
expect_sql: "(price = ? OR title = ?)"
`

// createBooksDB writes a database with a small book table and returns its path.
func createBooksDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "books.db")

	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	for _, stmt := range []string{
		`CREATE TABLE book (id INTEGER PRIMARY KEY, title TEXT, price INTEGER)`,
		`INSERT INTO book (id, title, price) VALUES
			(1, 'War And Peace', 42),
			(2, 'Anna Karenina', 30),
			(3, 'bar', 12),
			(4, 'Dead Souls', 42)`,
	} {
		_, err := st.DB().Exec(stmt)
		require.NoError(t, err)
	}
	return path
}

type evalResponse struct {
	Status string     `json:"status"`
	Data   EvalResult `json:"data"`
	Error  *CLIError  `json:"error"`
}

func TestEvalCommand_Scenario(t *testing.T) {
	db := createBooksDB(t)
	file := writeFile(t, t.TempDir(), "price_or_title.yaml", priceOrTitleYAML)

	out, err := execute(NewEvalCommand(&RootOptions{Format: "text"}), file, "--db", db, "--table", "book")
	require.NoError(t, err)
	assert.Contains(t, out, "Filter: (price=42 OR title='bar')")
	assert.Contains(t, out, "SQL:    (price = ? OR title = ?)")
	assert.Contains(t, out, "Table:  book")
	assert.Contains(t, out, "Count:  3")
	assert.NotContains(t, out, "Saved:")
}

func TestEvalCommand_SaveThenSaved(t *testing.T) {
	db := createBooksDB(t)
	file := writeFile(t, t.TempDir(), "price_or_title.yaml", priceOrTitleYAML)

	out, err := execute(NewEvalCommand(&RootOptions{Format: "text"}), file, "--db", db, "--table", "book", "--save", "cheap")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved:  cheap (seq 1, hash ")

	out, err = execute(NewEvalCommand(&RootOptions{Format: "json"}), "--saved", "cheap", "--db", db, "--table", "book")
	require.NoError(t, err)

	var resp evalResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "cheap", resp.Data.Name)
	assert.Equal(t, "(price=42 OR title='bar')", resp.Data.Where)
	assert.Equal(t, int64(3), resp.Data.Count)
	assert.Equal(t, int64(1), resp.Data.SavedSeq)
	assert.Len(t, resp.Data.SavedHash, 64)
}

func TestEvalCommand_IDs(t *testing.T) {
	db := createBooksDB(t)
	file := writeFile(t, t.TempDir(), "price_or_title.yaml", priceOrTitleYAML)

	out, err := execute(NewEvalCommand(&RootOptions{Format: "text"}), file, "--db", db, "--table", "book", "--ids")
	require.NoError(t, err)
	assert.Contains(t, out, "IDs:    [1 3 4]")

	out, err = execute(NewEvalCommand(&RootOptions{Format: "json"}), file, "--db", db, "--table", "book", "--ids")
	require.NoError(t, err)

	var resp evalResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, []int64{1, 3, 4}, resp.Data.IDs)
	assert.Equal(t, int64(3), resp.Data.Count)
}

func TestEvalCommand_SavedNotFound(t *testing.T) {
	db := createBooksDB(t)

	out, err := execute(NewEvalCommand(&RootOptions{Format: "text"}), "--saved", "missing", "--db", db, "--table", "book")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeNotFound+"]")
}

func TestEvalCommand_Errors(t *testing.T) {
	db := createBooksDB(t)
	file := writeFile(t, t.TempDir(), "price_or_title.yaml", priceOrTitleYAML)
	broken := writeFile(t, t.TempDir(), "broken.yaml", "name: [unclosed\n")

	tests := []struct {
		name     string
		args     []string
		wantCode string
		wantMsg  string
	}{
		{
			name:     "neither scenario nor saved",
			args:     []string{"--db", db, "--table", "book"},
			wantCode: ErrCodeGeneric,
			wantMsg:  "provide exactly one of a scenario file or --saved",
		},
		{
			name:     "scenario and saved",
			args:     []string{file, "--saved", "x", "--db", db, "--table", "book"},
			wantCode: ErrCodeGeneric,
			wantMsg:  "provide exactly one of a scenario file or --saved",
		},
		{
			name:     "save with saved",
			args:     []string{"--saved", "x", "--save", "y", "--db", db, "--table", "book"},
			wantCode: ErrCodeGeneric,
			wantMsg:  "--save cannot be combined with --saved",
		},
		{
			name:     "ids with saved",
			args:     []string{"--saved", "x", "--ids", "--db", db, "--table", "book"},
			wantCode: ErrCodeGeneric,
			wantMsg:  "--ids cannot be combined with --saved",
		},
		{
			name:     "missing table",
			args:     []string{file, "--db", db, "--table", "nope"},
			wantCode: ErrCodeDatabase,
			wantMsg:  "no such table",
		},
		{
			name:     "invalid table identifier",
			args:     []string{file, "--db", db, "--table", "book; DROP TABLE book"},
			wantCode: ErrCodeDatabase,
			wantMsg:  "invalid identifier",
		},
		{
			name:     "unreadable scenario",
			args:     []string{broken, "--db", db, "--table", "book"},
			wantCode: ErrCodeLoadFailed,
			wantMsg:  "failed to parse YAML",
		},
		{
			name:     "bad database path",
			args:     []string{file, "--db", "/nonexistent/dir/books.db", "--table", "book"},
			wantCode: ErrCodeDatabase,
			wantMsg:  "failed to open database",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(NewEvalCommand(&RootOptions{Format: "json"}), tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			var resp evalResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Contains(t, resp.Error.Message, tt.wantMsg)
		})
	}
}

func TestEvalCommand_RequiredFlags(t *testing.T) {
	file := writeFile(t, t.TempDir(), "price_or_title.yaml", priceOrTitleYAML)

	_, err := execute(NewEvalCommand(&RootOptions{Format: "text"}), file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "db", "table" not set`)
}

func TestShortHash(t *testing.T) {
	assert.Equal(t, "0123456789ab", shortHash("0123456789abcdef"))
	assert.Equal(t, "abc", shortHash("abc"))
}
