package dialect

import (
	"strings"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/preceeder/go.db.sqlkit/builder"
	"github.com/preceeder/go.db.sqlkit/dberr"
)

// Postgres covers the lib/pq and pgx drivers. Literals follow
// standard_conforming_strings: only the single quote is doubled.
type Postgres struct{}

func (Postgres) Name() string {
	return "postgres"
}

func (Postgres) Escape(s string) (string, error) {
	return escapeStandard(s)
}

func (Postgres) QuoteEscaped(escaped string) string {
	return "'" + escaped + "'"
}

func (Postgres) QuoteIdentifier(name string) string {
	return pq.QuoteIdentifier(name)
}

func (Postgres) Bool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func (Postgres) Limit(offset, count string) string {
	return limitOffset(offset, count)
}

func (Postgres) BindStyle() int {
	return sqlx.DOLLAR
}

func (Postgres) BindTypeName(t builder.BindType) string {
	switch t {
	case builder.BindInt:
		return "int8"
	case builder.BindFloat:
		return "float8"
	}
	return "text"
}

// Capabilities: an upsert needs an explicit conflict target, so
// ON DUPLICATE KEY UPDATE has no equivalent here.
func (Postgres) Capabilities() builder.Capabilities {
	return builder.Capabilities{
		IgnoreSuffix: "ON CONFLICT DO NOTHING",
	}
}

// escapeStandard doubles single quotes. NUL cannot be stored in a text value.
func escapeStandard(s string) (string, error) {
	if strings.IndexByte(s, 0) >= 0 {
		return "", dberr.Spec(dberr.ErrEscapeFailure, "NUL byte in literal")
	}
	if !utf8.ValidString(s) {
		return "", dberr.Spec(dberr.ErrEscapeFailure, "invalid utf-8 in literal %q", s)
	}
	return strings.ReplaceAll(s, "'", "''"), nil
}

func limitOffset(offset, count string) string {
	if offset == "0" || offset == "" {
		return count
	}
	return count + " OFFSET " + offset
}
