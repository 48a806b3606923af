package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const orGroupYAML = `name: or_group
description: "A single OR group"
steps:
  - {op: where, column: A, value: 1}
  - {op: open, operator: or}
  - {op: where, column: B, value: 2}
  - {op: where, column: C, value: 3}
  - {op: close}
expect: "A=1 AND (B=2 OR C=3)"
expect_sql: "A = ? AND (B = ? OR C = ?)"
expect_params: [1, 2, 3]
`

const failingYAML = `name: bad
description: "Expects the wrong text"
steps:
  - {op: where, column: A, value: 1}
expect: "A=2"
`

const orGroupCUE = `package scenarios

scenario: or_group: {
	description: "A single OR group"
	steps: [
		{op: "where", column: "A", value: 1},
		{op: "open", operator: "or"},
		{op: "where", column: "B", value: 2},
		{op: "where", column: "C", value: 3},
		{op: "close"},
	]
	expect:     "A=1 AND (B=2 OR C=3)"
	expect_sql: "A = ? AND (B = ? OR C = ?)"
}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs cmd with args and returns what it wrote to stdout.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
