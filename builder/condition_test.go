package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preceeder/go.db.sqlkit/dberr"
)

func where(t *testing.T, d Dialect, spec any) string {
	t.Helper()
	s, err := New(d).Where(spec)
	require.NoError(t, err)
	return s
}

// 第一个无 key 的 OR 改变同级条件的连接方式
func TestWhereCombinatorPrecedence(t *testing.T) {
	spec := Map{
		{"status", "active"},
		{"age", List{">=", 18}},
		{"", "OR"},
		{"name", List{"LIKE%", "Jo"}},
	}
	assert.Equal(t, "(`status` = 'active' OR `age` >= 18 OR `name` LIKE 'Jo%')", where(t, mysqlish, spec))
}

func TestWhere(t *testing.T) {
	cases := []struct {
		name string
		spec any
		want string
	}{
		{"nil", nil, ""},
		{"true", true, ""},
		{"false", false, ""},
		{"raw", "  a > 1 ", "a > 1"},
		{"implicit eq", Map{{"id", 3}}, "id = 3"},
		{"bool value", Map{{"active", true}}, "active = 1"},
		{"null", Map{{"deleted_at", nil}}, "deleted_at IS NULL"},
		{"op against null", Map{{"deleted_at", List{"<>"}}}, "deleted_at IS NOT NULL"},
		{"bang eq null", Map{{"deleted_at", List{"!=", nil}}}, "deleted_at IS NOT NULL"},
		{"lowercase op", Map{{"name", List{"like", "a"}}}, "name LIKE 'a'"},
		{"passthrough op", Map{{"tags", List{"@>", "{a}"}}}, "tags @> '{a}'"},
		{"in", Map{{"id", List{"IN", List{1, 2, 3}}}}, "id IN (1,2,3)"},
		{"in typed slice", Map{{"id", List{"in", []string{"a", "b"}}}}, "id IN ('a','b')"},
		{"empty in", Map{{"id", List{"IN", List{}}}}, "1=0"},
		{"empty not in", Map{{"id", List{"NOT IN", []int{}}}}, "1=1"},
		{"in subquery", Map{{"id", List{"IN", Raw("SELECT uid FROM bans")}}}, "id IN (SELECT uid FROM bans)"},
		{"and by default", Map{{"a", 1}, {"b", 2}}, "a = 1 AND b = 2"},
		{"not", Map{{"", "NOT"}, {"a", 1}, {"b", 2}}, "NOT (a = 1 AND b = 2)"},
		{"not or", Map{{"", "NOT"}, {"", "OR"}, {"a", 1}, {"b", 2}}, "NOT (a = 1 OR b = 2)"},
		{"not and", List{"not", "and", "a = 1", Map{{"b", 2}}}, "NOT (a = 1 AND b = 2)"},
		{"not over or group", Not(Or(Eq("a", 1), Eq("b", 2))), "NOT (a = 1 OR b = 2)"},
		{"nested or", Map{{"a", 1}, {"", Map{{"", "or"}, {"b", 2}, {"c", 3}}}}, "a = 1 AND (b = 2 OR c = 3)"},
		{"single or child", Map{{"", "OR"}, {"a", 1}}, "a = 1"},
		{"booleans dropped", Map{{"a", 1}, {"", true}, {"", false}, {"", nil}}, "a = 1"},
		{"unkeyed raw", Map{{"a", 1}, {"", "b IS NOT NULL"}}, "a = 1 AND b IS NOT NULL"},
		{"field ops", Map{{"age", Map{{">", 18}, {"<", 65}}}}, "age > 18 AND age < 65"},
		{"field op list", Map{{"age", List{List{">", 18}, List{"<", 65}}}}, "age > 18 AND age < 65"},
		{"list of specs", List{"OR", Map{{"a", 1}}, "b = 2"}, "(a = 1 OR b = 2)"},
		{"go map", map[string]any{"b": 2, "a": 1}, "a = 1 AND b = 2"},
		{"column rhs", Map{{"o.user_id", F("u.id")}}, "o.user_id = u.id"},
		{"param", Map{{"id", Param("id")}}, "id = :id"},
		{"tree", Or(Eq("a", 1), Not(Eq("b", 2))), "(a = 1 OR NOT (b = 2))"},
		{"exists", And(Eq("a", 1), Exists("SELECT 1 FROM t")), "a = 1 AND EXISTS (SELECT 1 FROM t)"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, where(t, plain, c.spec))
		})
	}
}

func TestWhereLikeEscaping(t *testing.T) {
	cases := []struct {
		op   string
		want string
	}{
		{"%LIKE%", `name LIKE '%50\%\_off%'`},
		{"LIKE%", `name LIKE '50\%\_off%'`},
		{"%LIKE", `name LIKE '%50\%\_off'`},
		{"LIKE", `name LIKE '50\%\_off'`},
		{"%NOT LIKE%", `name NOT LIKE '%50\%\_off%'`},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, where(t, plain, Map{{"name", List{c.op, "50%_off"}}}), c.op)
	}
	assert.Equal(t, `name LIKE '%it\'s%'`, where(t, plain, Like("name", "it's")))

	_, err := New(plain).Where(Map{{"name", List{"%LIKE%", Raw("CONCAT(a, b)")}}})
	assert.ErrorIs(t, err, dberr.ErrInvalidSpec)
	assert.Equal(t, "name LIKE CONCAT(a, '%')", where(t, plain, Map{{"name", List{"LIKE", Raw("CONCAT(a, '%')")}}}))
}

func TestWhereErrors(t *testing.T) {
	cases := []struct {
		name string
		spec any
		kind error
	}{
		{"value without operator", Map{{"a", List{nil, 5}}}, dberr.ErrInvalidSpec},
		{"empty field list", Map{{"a", List{}}}, dberr.ErrInvalidSpec},
		{"non string operator", Map{{"a", List{5, 1}}}, dberr.ErrUnknownOperator},
		{"injected operator", Map{{"a", List{"= 1; DROP TABLE t; --", 1}}}, dberr.ErrUnknownOperator},
		{"in without sequence", Map{{"a", List{"IN", 5}}}, dberr.ErrInvalidSpec},
		{"sequence with =", Map{{"a", List{"=", List{1, 2}}}}, dberr.ErrInvalidSpec},
		{"late combinator", Map{{"a", 1}, {"", "b = 2"}, {"", "OR"}}, dberr.ErrInvalidSpec},
		{"combinator after not and field", Map{{"", "NOT"}, {"a", 1}, {"", "OR"}}, dberr.ErrInvalidSpec},
		{"not after or", List{"OR", "NOT", "a = 1"}, dberr.ErrInvalidSpec},
		{"double not", List{"NOT", "NOT", "a = 1"}, dberr.ErrInvalidSpec},
		{"unsupported", 42, dberr.ErrInvalidSpec},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := New(plain).Where(c.spec)
			assert.ErrorIs(t, err, c.kind)
		})
	}
}

func TestWhereDeterministic(t *testing.T) {
	spec := map[string]any{
		"status": "active",
		"age":    []any{">=", 18},
		"id":     []any{"IN", []int{3, 1, 2}},
		"name":   []any{"%LIKE%", "a_b"},
	}
	first := where(t, mysqlish, spec)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, where(t, mysqlish, spec))
	}
	assert.Equal(t, "`age` >= 18 AND `id` IN (3,1,2) AND `name` LIKE '%a\\_b%' AND `status` = 'active'", first)
}

func TestMergeWhereIdentity(t *testing.T) {
	specs := []any{
		"a = 1",
		Map{{"a", 1}},
		List{"OR", "a = 1", "b = 2"},
		Eq("a", 1),
	}
	for _, x := range specs {
		for _, empty := range []any{nil, false, true, "", Map{}, List{}, []string{}, []any{}, []int(nil), map[string]any{}} {
			assert.Equal(t, x, MergeWhere(x, empty, false))
			assert.Equal(t, x, MergeWhere(empty, x, true))
			assert.Equal(t, x, JoinWhere(x, empty, false))
		}
	}
}

func TestMergeWhere(t *testing.T) {
	assert.Equal(t, "a = 1 AND b = 2", MergeWhere("a = 1", "b = 2", false))
	assert.Equal(t, "(a = 1 OR b = 2)", MergeWhere("a = 1", "b = 2", true))

	merged := MergeWhere(Map{{"a", 1}}, Map{{"a", List{">", 0}}, {"b", 2}}, false)
	assert.Equal(t, Map{{"a", List{List{"=", 1}, List{">", 0}}}, {"b", 2}}, merged)
	assert.Equal(t, "a = 1 AND a > 0 AND b = 2", where(t, plain, merged))

	or := MergeWhere(Map{{"a", 1}}, "b > 2", true)
	assert.Equal(t, "(a = 1 OR b > 2)", where(t, plain, or))

	// 以 OR 开头的条件不能按 key 合并
	marked := MergeWhere(Map{{"", "OR"}, {"a", 1}, {"b", 2}}, Map{{"c", 3}}, false)
	assert.Equal(t, "(a = 1 OR b = 2) AND c = 3", where(t, plain, marked))
}
