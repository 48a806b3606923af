package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wherekit/internal/ir"
	"github.com/roach88/wherekit/internal/predicate"
)

func i(v int64) ir.IRValue { return ir.IRInt(v) }

func TestCombineFilters(t *testing.T) {
	tests := []struct {
		name string
		c    *Criteria
		want string
	}{
		{
			"no combine",
			New().Where("A", i(1)),
			"A=1",
		},
		{
			"regular AND",
			New().Where("A", i(1)).AddAnd("B", i(2)),
			"A=1 AND B=2",
		},
		{
			"regular OR",
			New().Where("A", i(1)).AddOr("B", i(2)),
			"(A=1 OR B=2)",
		},
		{
			"AND with OR",
			New().Where("A", i(1)).AddAnd("B", i(2)).AddOr("C", i(3)),
			"A=1 AND (B=2 OR C=3)",
		},
		{
			"empty combine",
			New().Where("A", i(1)).CombineFilters().EndCombineFilters().Where("B", i(2)),
			"A=1 AND B=2",
		},
		{
			"combine one",
			New().CombineFilters().Where("A", i(1)).EndCombineFilters(),
			"A=1",
		},
		{
			"default combine with AND",
			New().Where("A", i(1)).CombineFilters(predicate.OpAnd).Where("B", i(2)).EndCombineFilters(),
			"A=1 AND B=2",
		},
		{
			"combine with And()",
			New().Where("A", i(1)).And().CombineFilters().Where("B", i(2)).EndCombineFilters(),
			"A=1 AND B=2",
		},
		{
			"combine with Or()",
			New().Where("A", i(1)).Or().CombineFilters().Where("B", i(2)).EndCombineFilters(),
			"(A=1 OR B=2)",
		},
		{
			"ignores first combine andOr",
			New().Where("A", i(1)).CombineFilters().AddOr("B", i(2)).EndCombineFilters(),
			"A=1 AND B=2",
		},
		{
			"combine two",
			New().CombineFilters().Where("A", i(1)).AddAnd("B", i(2)).EndCombineFilters(),
			"(A=1 AND B=2)",
		},
		{
			"AND combined",
			New().Where("A", i(1)).CombineFilters().Where("B", i(2)).AddOr("C", i(3)).EndCombineFilters(),
			"A=1 AND (B=2 OR C=3)",
		},
		{
			"missing EndCombineFilters",
			New().Where("A", i(1)).CombineFilters().Where("B", i(2)).AddOr("C", i(3)),
			"A=1 AND ((B=2 OR C=3) ... )",
		},
		{
			"combine twice with AND",
			New().Where("A", i(1)).
				CombineFilters().
				Where("B", i(2)).
				AddOr("C", i(3)).
				EndCombineFilters().
				CombineFilters().
				Where("D", i(4)).
				AddOr("E", i(5)).
				EndCombineFilters(),
			"A=1 AND (B=2 OR C=3) AND (D=4 OR E=5)",
		},
		{
			"combine twice with OR",
			New().Where("A", i(1)).
				CombineFilters().
				Where("B", i(2)).
				AddOr("C", i(3)).
				EndCombineFilters().
				Or().
				CombineFilters().
				Where("D", i(4)).
				AddAnd("E", i(5)).
				EndCombineFilters(),
			"A=1 AND ((B=2 OR C=3) OR (D=4 AND E=5))",
		},
		{
			"nested combine",
			New().Where("A", i(1)).
				CombineFilters().
				Where("B", i(2)).
				Or().
				CombineFilters().
				Where("D", i(4)).
				AddAnd("E", i(5)).
				EndCombineFilters().
				EndCombineFilters(),
			"A=1 AND (B=2 OR (D=4 AND E=5))",
		},
		{
			"double nested combine",
			New().Where("A", i(1)).
				Or().
				CombineFilters().
				CombineFilters().
				Where("B", i(2)).
				AddOr("C", i(3)).
				EndCombineFilters().
				CombineFilters().
				Where("D", i(4)).
				AddOr("E", i(5)).
				EndCombineFilters().
				EndCombineFilters(),
			"(A=1 OR ((B=2 OR C=3) AND (D=4 OR E=5)))",
		},
		{
			"triple nested combine",
			New().Where("A", i(1)).
				CombineFilters(predicate.OpOr).
				Where("B", i(2)).
				CombineFilters(predicate.OpAnd).
				Where("C", i(3)).
				CombineFilters(predicate.OpOr).
				Where("D", i(4)).
				AddAnd("E", i(5)).
				Where("F", i(6)).
				And().
				Where("G", i(7)).
				EndCombineFilters().
				EndCombineFilters().
				EndCombineFilters().
				Where("Z", i(99)),
			"A=1 AND (B=2 OR (C=3 AND ((D=4 AND (E=5 OR F=6)) AND G=7))) AND Z=99",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.String())
		})
	}
}

func TestEndCombineFilters_WithoutOpenGroup(t *testing.T) {
	c := New().Where("A", i(1)).EndCombineFilters().EndCombineFilters().Where("B", i(2))
	assert.Equal(t, "A=1 AND B=2", c.String())
}

func TestEndCombineFilters_UnusedOneShot(t *testing.T) {
	c := New().
		Where("A", i(1)).
		CombineFilters(predicate.OpOr).
		Where("B", i(2)).
		And().
		EndCombineFilters().
		Where("Z", i(9))

	assert.Equal(t, "A=1 AND B=2 AND Z=9", c.String())
}

func TestSetOperator(t *testing.T) {
	c := New().
		Where("A", i(1)).
		SetOperator(predicate.OpOr).
		Where("B", i(2)).
		Where("C", i(3)).
		ResetOperator().
		Where("D", i(4))

	assert.Equal(t, "((A=1 OR B=2) OR C=3) AND D=4", c.String())
}

func TestResetOperator_Empty(t *testing.T) {
	c := New().ResetOperator().ResetOperator().Where("A", i(1)).Where("B", i(2))
	assert.Equal(t, "A=1 AND B=2", c.String())
}

func TestWhere_ColumnMerge(t *testing.T) {
	c := New().
		Filter("age", predicate.CmpGreaterEqual, i(18)).
		Where("name", ir.IRString("x")).
		Filter("age", predicate.CmpLess, i(65))

	assert.Equal(t, "(age>=18 AND age<65) AND name='x'", c.String())
	assert.Equal(t, 2, c.Count())
}

func TestUseSubQuery_InheritsPermanentOperator(t *testing.T) {
	c := New().
		CombineFilters(predicate.OpOr).
		Where("book.price", i(42)).
		UseSubQuery().
		Where("author.age", i(43)).
		Where("author.first_name", ir.IRString("foo")).
		EndUse().
		Where("book.title", ir.IRString("bar")).
		EndCombineFilters().
		Where("book.isbn", ir.IRString("baz"))

	assert.Equal(t,
		"((book.price=42 OR (author.age=43 OR author.first_name='foo')) OR book.title='bar') AND book.isbn='baz'",
		c.String())

	sql, params, err := c.WhereSQL()
	require.NoError(t, err)
	assert.Equal(t,
		"((book.price = ? OR (author.age = ? OR author.first_name = ?)) OR book.title = ?) AND book.isbn = ?",
		sql)
	assert.Equal(t, []any{int64(42), int64(43), "foo", "bar", "baz"}, params)
}

func TestUseSubQuery_AND(t *testing.T) {
	c := New().
		Where("book.price", i(42)).
		UseSubQuery().
		Where("author.age", i(43)).
		Where("author.first_name", ir.IRString("foo")).
		EndUse().
		Where("book.title", ir.IRString("bar"))

	assert.Equal(t, "book.price=42 AND author.age=43 AND author.first_name='foo' AND book.title='bar'", c.String())
}

func TestUseSubQuery_Empty(t *testing.T) {
	primary := New().Where("A", i(1))
	back := primary.UseSubQuery().EndUse()

	assert.Same(t, primary, back)
	assert.Equal(t, "A=1", back.String())
}

func TestEndUse_NotSubQuery(t *testing.T) {
	c := New().Where("A", i(1))
	assert.Same(t, c, c.EndUse())
}

func TestWhereSQL_UnclosedGroup(t *testing.T) {
	c := New().Where("A", i(1)).Or().CombineFilters().Where("B", i(2)).AddAnd("C", i(3))

	sql, params, err := c.WhereSQL()
	require.NoError(t, err)
	assert.Equal(t, "(A = ? OR (B = ? AND C = ?))", sql)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, params)
	assert.Equal(t, "A=1 AND (B=2 AND C=3 ... )", c.String(), "compiling does not close the group")
}

func TestWhereSQL_Empty(t *testing.T) {
	sql, params, err := New().WhereSQL()
	require.NoError(t, err)
	assert.Equal(t, "1 = 1", sql)
	assert.Empty(t, params)
}

func TestWhereSQL_Error(t *testing.T) {
	_, _, err := New().WhereRaw("a = ? AND b = ?", i(1)).WhereSQL()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile criteria")
}

func TestSelectSQL(t *testing.T) {
	sql, params, err := New().Where("title", ir.IRString("War")).SelectSQL("book", nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM book WHERE title = ? ORDER BY id COLLATE BINARY ASC", sql)
	assert.Equal(t, []any{"War"}, params)
}

func TestCloneAndEquals(t *testing.T) {
	c := New().Where("A", i(1)).CombineFilters().Where("B", i(2))

	clone := c.Clone()
	assert.True(t, c.Equals(clone))

	clone.EndCombineFilters().Where("C", i(3))
	assert.False(t, c.Equals(clone))
	assert.Equal(t, "A=1 AND (B=2 ... )", c.String())
	assert.Equal(t, "A=1 AND B=2 AND C=3", clone.String())
	assert.False(t, c.Equals(nil))
}

func TestFindByColumnAndClear(t *testing.T) {
	c := New().Where("A", i(1)).CombineFilters().Where("B", i(2))

	require.NotNil(t, c.FindByColumn("B"))
	assert.Equal(t, "B=2", c.FindByColumn("B").Render())
	assert.Nil(t, c.FindByColumn("C"))

	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.Equal(t, "", c.String())
}
