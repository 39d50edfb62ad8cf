package dialect

import (
	"strings"
	"unicode/utf8"

	gomysql "github.com/go-mysql-org/go-mysql/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/preceeder/go.db.sqlkit/builder"
	"github.com/preceeder/go.db.sqlkit/dberr"
)

// MySQL 方言: 反引号标识符, 反斜杠转义, ? 占位符
type MySQL struct{}

func (MySQL) Name() string {
	return "mysql"
}

// Escape uses the server-side escape rules (\0, \n, \r, \\, ', ", \x1a).
// The text must be valid UTF-8, otherwise a multi-byte sequence could swallow the closing quote.
func (MySQL) Escape(s string) (string, error) {
	if !utf8.ValidString(s) {
		return "", dberr.Spec(dberr.ErrEscapeFailure, "invalid utf-8 in literal %q", s)
	}
	return gomysql.Escape(s), nil
}

func (MySQL) QuoteEscaped(escaped string) string {
	return "'" + escaped + "'"
}

func (MySQL) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (MySQL) Bool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// Limit 生成 LIMIT offset, count; offset 为 0 时省略
func (MySQL) Limit(offset, count string) string {
	if offset == "0" || offset == "" {
		return count
	}
	return offset + ", " + count
}

func (MySQL) BindStyle() int {
	return sqlx.QUESTION
}

// BindTypeName follows the mysqli type letters.
func (MySQL) BindTypeName(t builder.BindType) string {
	switch t {
	case builder.BindInt:
		return "i"
	case builder.BindFloat:
		return "d"
	}
	return "s"
}

func (MySQL) Capabilities() builder.Capabilities {
	return builder.Capabilities{
		InsertIgnore: "IGNORE",
		UpdateIgnore: "IGNORE",
		DeleteIgnore: "IGNORE",
		Upsert:       "ON DUPLICATE KEY UPDATE",
		RowLimit:     true,

		BackslashEscapes: true,
	}
}
