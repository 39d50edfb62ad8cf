package dialect

import (
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/preceeder/go.db.sqlkit/builder"
)

// SQLite has no default LIKE escape character, so masked patterns carry ESCAPE '\'.
type SQLite struct{}

func (SQLite) Name() string {
	return "sqlite3"
}

func (SQLite) Escape(s string) (string, error) {
	return escapeStandard(s)
}

func (SQLite) QuoteEscaped(escaped string) string {
	return "'" + escaped + "'"
}

func (SQLite) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (SQLite) Bool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func (SQLite) Limit(offset, count string) string {
	return limitOffset(offset, count)
}

func (SQLite) BindStyle() int {
	return sqlx.QUESTION
}

func (SQLite) BindTypeName(t builder.BindType) string {
	switch t {
	case builder.BindInt:
		return "INTEGER"
	case builder.BindFloat:
		return "REAL"
	}
	return "TEXT"
}

func (SQLite) Capabilities() builder.Capabilities {
	return builder.Capabilities{
		InsertIgnore: "OR IGNORE",
		UpdateIgnore: "OR IGNORE",
		Upsert:       "ON CONFLICT DO UPDATE SET",
		LikeEscape:   `ESCAPE '\'`,
	}
}
