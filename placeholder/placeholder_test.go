package placeholder

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name       string
		in         string
		style      int
		want       string
		named      map[string][]int
		positional []int
	}{
		{
			name:  "quoted marker untouched",
			in:    "SELECT * FROM t WHERE s = ':x' AND y = :y",
			style: sqlx.QUESTION,
			want:  "SELECT * FROM t WHERE s = ':x' AND y = ?",
			named: map[string][]int{"y": {0}},
		},
		{
			name:       "duplicate names own several slots",
			in:         "a = :id OR b = :id AND c = ?",
			style:      sqlx.QUESTION,
			want:       "a = ? OR b = ? AND c = ?",
			named:      map[string][]int{"id": {0, 1}},
			positional: []int{2},
		},
		{
			name:  "escaped quote stays inside the literal",
			in:    `s = 'it\'s :no' AND t = :yes`,
			style: sqlx.QUESTION,
			want:  `s = 'it\'s :no' AND t = ?`,
			named: map[string][]int{"yes": {0}},
		},
		{
			name:  "even backslashes close the literal",
			in:    `s = 'a\\' AND t = :x`,
			style: sqlx.QUESTION,
			want:  `s = 'a\\' AND t = ?`,
			named: map[string][]int{"x": {0}},
		},
		{
			name:  "other quote kinds",
			in:    "SELECT `:a`, \":b\" FROM t WHERE c = :c",
			style: sqlx.QUESTION,
			want:  "SELECT `:a`, \":b\" FROM t WHERE c = ?",
			named: map[string][]int{"c": {0}},
		},
		{
			name:  "cast is not a marker",
			in:    "SELECT :v::int, a::text",
			style: sqlx.DOLLAR,
			want:  "SELECT $1::int, a::text",
			named: map[string][]int{"v": {0}},
		},
		{
			name:  "comments skipped",
			in:    "SELECT 1 -- :x\n, :y /* :z ? */",
			style: sqlx.DOLLAR,
			want:  "SELECT 1 -- :x\n, $1 /* :z ? */",
			named: map[string][]int{"y": {0}},
		},
		{
			name:       "dollar numbering covers both kinds",
			in:         "a = ? AND b = :b AND c = ?",
			style:      sqlx.DOLLAR,
			want:       "a = $1 AND b = $2 AND c = $3",
			named:      map[string][]int{"b": {1}},
			positional: []int{0, 2},
		},
		{
			name:       "at style",
			in:         "a = :a AND b = ?",
			style:      sqlx.AT,
			want:       "a = @p1 AND b = @p2",
			named:      map[string][]int{"a": {0}},
			positional: []int{1},
		},
		{
			name:  "word adjacent markers are literal",
			in:    "x = a:b AND y = b? AND @v := 1",
			style: sqlx.QUESTION,
			want:  "x = a:b AND y = b? AND @v := 1",
			named: map[string][]int{},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := Parse(c.in, c.style)
			assert.Equal(t, c.want, p.Text)
			assert.Equal(t, c.named, p.Named)
			assert.Equal(t, c.positional, p.Positional)
			slots := len(c.positional)
			for _, s := range c.named {
				slots += len(s)
			}
			assert.Equal(t, slots, p.Slots)
		})
	}
}

// PostgreSQL 和 SQLite 只靠重复单引号转义, 反斜杠是普通字符
func TestParseStandardStrings(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		want  string
		named map[string][]int
	}{
		{
			name:  "trailing backslash closes the literal",
			in:    `UPDATE t SET path = 'C:\' WHERE id = :id`,
			want:  `UPDATE t SET path = 'C:\' WHERE id = $1`,
			named: map[string][]int{"id": {0}},
		},
		{
			name:  "doubled quote stays inside the literal",
			in:    `s = 'it''s :no' AND t = :yes`,
			want:  `s = 'it''s :no' AND t = $1`,
			named: map[string][]int{"yes": {0}},
		},
		{
			name:  "identifier ending in backslash",
			in:    `SELECT "a\" FROM t WHERE b = :b`,
			want:  `SELECT "a\" FROM t WHERE b = $1`,
			named: map[string][]int{"b": {0}},
		},
		{
			name:  "E string keeps backslash escapes",
			in:    `s = E'it\'s :no' AND t = :yes`,
			want:  `s = E'it\'s :no' AND t = $1`,
			named: map[string][]int{"yes": {0}},
		},
		{
			name:  "E inside a word is not a prefix",
			in:    `s = 'C:\' || name'C:\' AND t = :yes`,
			want:  `s = 'C:\' || name'C:\' AND t = $1`,
			named: map[string][]int{"yes": {0}},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := Parse(c.in, sqlx.DOLLAR, BackslashEscapes(false))
			assert.Equal(t, c.want, p.Text)
			assert.Equal(t, c.named, p.Named)
		})
	}

	// 默认按 MySQL 规则, 'C:\' 之后仍在字符串内
	p := Parse(`path = 'C:\' WHERE id = :id`, sqlx.QUESTION)
	assert.False(t, p.HasNamed())
}

func TestParseIdempotent(t *testing.T) {
	for _, in := range []string{
		"SELECT 1",
		"SELECT ':x', '?' FROM t",
		"SELECT ':x",
		"SELECT a FROM t WHERE b = ?",
	} {
		p := Parse(in, sqlx.QUESTION)
		assert.Equal(t, in, p.Text)
		assert.False(t, p.HasNamed())

		again := Parse(p.Text, sqlx.QUESTION)
		assert.Equal(t, p, again)
	}

	// 已经改写过的语句再次解析保持不变
	p := Parse("a = :a AND b = :b", sqlx.QUESTION)
	assert.True(t, p.HasNamed())
	again := Parse(p.Text, sqlx.QUESTION)
	assert.Equal(t, p.Text, again.Text)
	assert.Equal(t, []int{0, 1}, again.Positional)
}

func TestNames(t *testing.T) {
	p := Parse("x = :b OR y = :a OR z = :b OR w = :c", sqlx.QUESTION)
	assert.Equal(t, []string{"b", "a", "c"}, p.Names())
	assert.Empty(t, Parse("SELECT 1", sqlx.QUESTION).Names())
}

func TestMarker(t *testing.T) {
	assert.Equal(t, "?", Marker(sqlx.QUESTION, 3))
	assert.Equal(t, "?", Marker(sqlx.UNKNOWN, 0))
	assert.Equal(t, "$4", Marker(sqlx.DOLLAR, 3))
	assert.Equal(t, "@p1", Marker(sqlx.AT, 0))
	assert.Equal(t, ":arg2", Marker(sqlx.NAMED, 1))
}
