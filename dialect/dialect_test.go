package dialect_test

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preceeder/go.db.sqlkit/builder"
	"github.com/preceeder/go.db.sqlkit/dberr"
	"github.com/preceeder/go.db.sqlkit/dialect"
	"github.com/preceeder/go.db.sqlkit/placeholder"
)

func TestForDriver(t *testing.T) {
	cases := map[string]string{
		"mysql":    "mysql",
		"MySQL":    "mysql",
		"postgres": "postgres",
		"pgx":      "postgres",
		"sqlite3":  "sqlite3",
		"sqlite":   "sqlite3",
	}
	for driver, want := range cases {
		d, err := dialect.ForDriver(driver)
		require.NoError(t, err, driver)
		assert.Equal(t, want, d.Name(), driver)
	}

	_, err := dialect.ForDriver("oracle")
	assert.ErrorIs(t, err, dberr.ErrUnsupported)
	assert.Contains(t, dialect.Names(), "pgx")
}

func TestBindStyle(t *testing.T) {
	assert.Equal(t, sqlx.QUESTION, dialect.MySQL{}.BindStyle())
	assert.Equal(t, sqlx.DOLLAR, dialect.Postgres{}.BindStyle())
	assert.Equal(t, sqlx.QUESTION, dialect.SQLite{}.BindStyle())
	assert.Equal(t, sqlx.BindType("postgres"), dialect.Postgres{}.BindStyle())

	for _, c := range []struct {
		d    builder.Dialect
		want [3]string
	}{
		{dialect.MySQL{}, [3]string{"s", "i", "d"}},
		{dialect.Postgres{}, [3]string{"text", "int8", "float8"}},
		{dialect.SQLite{}, [3]string{"TEXT", "INTEGER", "REAL"}},
	} {
		got := [3]string{
			c.d.BindTypeName(builder.BindText),
			c.d.BindTypeName(builder.BindInt),
			c.d.BindTypeName(builder.BindFloat),
		}
		assert.Equal(t, c.want, got, c.d.Name())
	}
}

func TestMySQL(t *testing.T) {
	c := builder.New(dialect.MySQL{})

	q, err := c.Where(builder.Map{
		{Key: "status", Value: "active"},
		{Key: "age", Value: builder.List{">=", 18}},
		{Key: "", Value: "OR"},
		{Key: "name", Value: builder.List{"LIKE%", "Jo"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "(`status` = 'active' OR `age` >= 18 OR `name` LIKE 'Jo%')", q)

	q, err = c.Where(builder.Map{{Key: "note", Value: "a'b\"c\n"}})
	require.NoError(t, err)
	assert.Equal(t, "`note` = 'a\\'b\\\"c\\n'", q)

	q, err = c.CreateSelect(nil, "users", nil, nil, builder.List{20, 10})
	require.NoError(t, err)
	assert.Equal(t, "SELECT *\nFROM `users`\nLIMIT 20, 10", q)

	q, err = c.BuildUpdate("users", builder.Map{{Key: "n", Value: 1}}, builder.Map{{Key: "id", Value: 2}}, builder.FlagIgnore|builder.FlagSingleRow)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE IGNORE `users` SET `n` = 1 WHERE `id` = 2 LIMIT 1", q)

	q, err = c.BuildDelete("users", builder.Map{{Key: "id", Value: 2}}, builder.FlagIgnore)
	require.NoError(t, err)
	assert.Equal(t, "DELETE IGNORE FROM `users` WHERE `id` = 2", q)

	_, err = dialect.MySQL{}.Escape("\xff")
	assert.ErrorIs(t, err, dberr.ErrEscapeFailure)
}

func TestPostgres(t *testing.T) {
	c := builder.New(dialect.Postgres{})

	q, err := c.Where(builder.Map{{Key: "u.name", Value: "O'Brien"}, {Key: "active", Value: true}, {Key: "tags", Value: builder.List{"@>", builder.Raw("ARRAY['a']")}}})
	require.NoError(t, err)
	assert.Equal(t, `u."name" = 'O''Brien' AND "active" = TRUE AND "tags" @> ARRAY['a']`, q)

	q, err = c.CreateSelect(nil, "users", nil, builder.Desc("id"), builder.List{20, 10})
	require.NoError(t, err)
	assert.Equal(t, "SELECT *\nFROM \"users\"\nORDER BY \"id\" DESC\nLIMIT 10 OFFSET 20", q)

	q, err = c.CreateInsertIgnore("t", builder.Map{{Key: "a", Value: 1}})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "t" ("a") VALUES (1) ON CONFLICT DO NOTHING`, q)

	// update 为空时退化为 ON CONFLICT DO NOTHING
	q, err = c.CreateInsertUpdate("t", builder.Map{{Key: "a", Value: 1}}, nil)
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "t" ("a") VALUES (1) ON CONFLICT DO NOTHING`, q)

	_, err = c.CreateInsertUpdate("t", builder.Map{{Key: "a", Value: 1}}, builder.Map{{Key: "a", Value: 2}})
	assert.ErrorIs(t, err, dberr.ErrUnsupported)
	_, err = c.CreateUpdateIgnore("t", builder.Map{{Key: "a", Value: 1}}, nil)
	assert.ErrorIs(t, err, dberr.ErrUnsupported)
	_, err = c.BuildDelete("t", nil, builder.FlagSingleRow)
	assert.ErrorIs(t, err, dberr.ErrUnsupported)
	_, err = c.BuildDelete("t", nil, builder.FlagIgnore)
	assert.ErrorIs(t, err, dberr.ErrUnsupported)

	_, err = dialect.Postgres{}.Escape("a\x00b")
	assert.ErrorIs(t, err, dberr.ErrEscapeFailure)

	assert.Equal(t, `"x"`, builder.QuoteNameOrExpression(dialect.Postgres{}, `"x"`))
}

func TestSQLite(t *testing.T) {
	c := builder.New(dialect.SQLite{})

	q, err := c.Where(builder.Map{{Key: "name", Value: builder.List{"%LIKE%", "a_b"}}})
	require.NoError(t, err)
	assert.Equal(t, `"name" LIKE '%a\_b%' ESCAPE '\'`, q)

	q, err = c.CreateInsertUpdate("t", builder.Map{{Key: "id", Value: 1}, {Key: "n", Value: 2}}, builder.Map{{Key: "n", Value: 2}})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "t" ("id", "n") VALUES (1,2) ON CONFLICT DO UPDATE SET "n" = 2`, q)

	q, err = c.CreateInsertIgnore("t", builder.Map{{Key: "id", Value: 1}})
	require.NoError(t, err)
	assert.Equal(t, `INSERT OR IGNORE INTO "t" ("id") VALUES (1)`, q)

	q, err = c.CreateUpdateIgnore("t", builder.Map{{Key: "n", Value: 1}}, nil)
	require.NoError(t, err)
	assert.Equal(t, `UPDATE OR IGNORE "t" SET "n" = 1`, q)

	q, err = c.CreateSelect(nil, "t", nil, nil, "5,10")
	require.NoError(t, err)
	assert.Equal(t, "SELECT *\nFROM \"t\"\nLIMIT 10 OFFSET 5", q)
}

// 字符串以反斜杠结尾时, 后面的参数标记仍然要被识别
func TestTrailingBackslashKeepsMarkers(t *testing.T) {
	cases := []struct {
		d     builder.Dialect
		where string
		text  string
	}{
		{dialect.MySQL{}, "`path` = 'C:\\\\' AND `id` = :id", "`path` = 'C:\\\\' AND `id` = ?"},
		{dialect.Postgres{}, `"path" = 'C:\' AND "id" = :id`, `"path" = 'C:\' AND "id" = $1`},
		{dialect.SQLite{}, `"path" = 'C:\' AND "id" = :id`, `"path" = 'C:\' AND "id" = ?`},
	}
	for _, c := range cases {
		t.Run(c.d.Name(), func(t *testing.T) {
			q, err := builder.New(c.d).Where(builder.Map{{Key: "path", Value: `C:\`}, {Key: "id", Value: builder.Arg("id", 1)}})
			require.NoError(t, err)
			assert.Equal(t, c.where, q)

			p := placeholder.Parse(q, c.d.BindStyle(), placeholder.BackslashEscapes(c.d.Capabilities().BackslashEscapes))
			assert.Equal(t, c.text, p.Text)
			assert.Equal(t, map[string][]int{"id": {0}}, p.Named)
		})
	}
	assert.True(t, dialect.MySQL{}.Capabilities().BackslashEscapes)
	assert.False(t, dialect.Postgres{}.Capabilities().BackslashEscapes)
	assert.False(t, dialect.SQLite{}.Capabilities().BackslashEscapes)
}
