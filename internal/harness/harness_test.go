package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, data string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(data))
	require.NoError(t, err)
	return s
}

func TestRun_Scenarios(t *testing.T) {
	tests := []struct {
		name      string
		steps     string
		wantWhere string
		wantSQL   string
		wantArgs  []any
	}{
		{
			name:      "or group",
			steps:     "- {op: where, column: A, value: 1}\n- {op: open, operator: or}\n- {op: where, column: B, value: 2}\n- {op: where, column: C, value: 3}\n- {op: close}\n",
			wantWhere: "A=1 AND (B=2 OR C=3)",
			wantSQL:   "A = ? AND (B = ? OR C = ?)",
			wantArgs:  []any{int64(1), int64(2), int64(3)},
		},
		{
			name:      "one-shot or",
			steps:     "- {op: where, column: A, value: 1}\n- {op: or}\n- {op: where, column: B, value: 2}\n- {op: where, column: C, value: 3}\n",
			wantWhere: "(A=1 OR B=2) AND C=3",
			wantSQL:   "(A = ? OR B = ?) AND C = ?",
			wantArgs:  []any{int64(1), int64(2), int64(3)},
		},
		{
			name:      "once with or token",
			steps:     "- {op: where, column: A, value: 1}\n- {op: once, operator: OR}\n- {op: where, column: B, value: 2}\n",
			wantWhere: "(A=1 OR B=2)",
			wantSQL:   "(A = ? OR B = ?)",
			wantArgs:  []any{int64(1), int64(2)},
		},
		{
			name:      "unclosed group compiles as closed",
			steps:     "- {op: where, column: A, value: 1}\n- {op: open, operator: or}\n- {op: where, column: B, value: 2}\n- {op: where, column: C, value: 3}\n",
			wantWhere: "A=1 AND ((B=2 OR C=3) ... )",
			wantSQL:   "A = ? AND (B = ? OR C = ?)",
			wantArgs:  []any{int64(1), int64(2), int64(3)},
		},
		{
			name:      "close without open",
			steps:     "- {op: where, column: A, value: 1}\n- {op: close}\n",
			wantWhere: "A=1",
			wantSQL:   "A = ?",
			wantArgs:  []any{int64(1)},
		},
		{
			name:      "sub-query ored onto last node",
			steps:     "- {op: where, column: A, value: 1}\n- {op: or}\n- {op: use}\n- {op: where, column: B, value: 2}\n- {op: where, column: C, value: 3}\n- {op: end_use}\n",
			wantWhere: "(A=1 OR (B=2 AND C=3))",
			wantSQL:   "(A = ? OR (B = ? AND C = ?))",
			wantArgs:  []any{int64(1), int64(2), int64(3)},
		},
		{
			name:      "raw fragment",
			steps:     "- {op: where, column: A, value: 1}\n- {op: raw, sql: \"B > ?\", args: [5]}\n",
			wantWhere: "A=1 AND B > 5",
			wantSQL:   "A = ? AND B > ?",
			wantArgs:  []any{int64(1), int64(5)},
		},
		{
			name:      "in list",
			steps:     "- {op: where, column: id, cmp: in, value: [1, 2]}\n",
			wantWhere: "id IN (1, 2)",
			wantSQL:   "id IN (?, ?)",
			wantArgs:  []any{int64(1), int64(2)},
		},
		{
			name:      "is null has no params",
			steps:     "- {op: where, column: isbn, cmp: is null}\n",
			wantWhere: "isbn IS NULL",
			wantSQL:   "isbn IS NULL",
			wantArgs:  []any{},
		},
		{
			name:      "add_and merges by column",
			steps:     "- {op: where, column: A, value: 1}\n- {op: where, column: B, value: 2}\n- {op: add_and, column: A, cmp: \"<\", value: 9}\n",
			wantWhere: "(A=1 AND A<9) AND B=2",
			wantSQL:   "(A = ? AND A < ?) AND B = ?",
			wantArgs:  []any{int64(1), int64(9), int64(2)},
		},
		{
			name:      "empty",
			steps:     "- {op: reset}\n",
			wantWhere: "",
			wantSQL:   "1 = 1",
			wantArgs:  []any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustParse(t, "name: t\ndescription: d\nsteps:\n"+tt.steps+"expect: \""+tt.wantWhere+"\"\n")

			result, err := Run(s)
			require.NoError(t, err)

			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Equal(t, tt.wantWhere, result.Where)
			assert.Equal(t, tt.wantSQL, result.SQL)
			assert.Equal(t, tt.wantArgs, result.Params)
			assert.Equal(t, tt.wantWhere, result.Criteria.String())
		})
	}
}

func TestRun_TraceSeqIsDeterministic(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/or_group.yaml")
	require.NoError(t, err)

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	require.Len(t, first.Trace, 5)
	for i, ev := range first.Trace {
		assert.Equal(t, int64(i+1), ev.Seq)
	}
	assert.Equal(t, first.Trace, second.Trace)
}

func TestRun_ExpectationMismatch(t *testing.T) {
	s := mustParse(t, `name: mismatch
description: d
steps:
- {op: where, column: A, value: 1}
expect: "A=2"
expect_sql: "A = ?"
expect_params: [2]
`)

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Equal(t, []string{
		`where: expected "A=2", got "A=1"`,
		"params[0]: expected 2, got 1",
	}, result.Errors)
}

func TestRun_ParamCountMismatch(t *testing.T) {
	s := mustParse(t, `name: count
description: d
steps:
- {op: where, column: A, value: 1}
expect_sql: "A = ?"
expect_params: [1, 2]
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, []string{"params: expected 2 value(s), got 1"}, result.Errors)
}

func TestRun_SubQueryNotEnded(t *testing.T) {
	s := mustParse(t, `name: dangling
description: d
steps:
- {op: where, column: A, value: 1}
- {op: use}
- {op: where, column: B, value: 2}
expect: "A=1"
`)

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors, "sub-query was not ended")
	assert.Equal(t, "A=1", result.Where)
	assert.Equal(t, "B=2", result.Trace[2].Where)
}

func TestRun_CompileErrorFailsScenario(t *testing.T) {
	s := mustParse(t, `name: bad
description: d
steps:
- {op: where, column: "bad col", value: 1}
expect: "bad col=1"
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "invalid identifier")
}

func TestRun_StepError(t *testing.T) {
	s := mustParse(t, `name: float
description: d
steps:
- {op: where, column: price, value: 1.5}
expect: ""
`)

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps[0] (where)")
}

func TestRun_InvalidScenario(t *testing.T) {
	_, err := Run(&Scenario{Name: "n", Description: "d", Steps: []Step{{Op: OpClose}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid scenario")
}
