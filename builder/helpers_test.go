package builder

import (
	"errors"
	"strings"
)

// testDialect is a minimal MySQL-like dialect. Dialect implementations live
// in another package, which imports this one.
type testDialect struct {
	quote      string
	caps       Capabilities
	failEscape bool
}

var (
	// plain leaves identifiers unquoted and supports no optional keyword.
	plain = &testDialect{}
	// mysqlish quotes with backticks and carries the MySQL keywords.
	mysqlish = &testDialect{
		quote: "`",
		caps: Capabilities{
			InsertIgnore: "IGNORE",
			UpdateIgnore: "IGNORE",
			DeleteIgnore: "IGNORE",
			Upsert:       "ON DUPLICATE KEY UPDATE",
			RowLimit:     true,
		},
	}
)

var backslashEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func (d *testDialect) Name() string { return "test" }

func (d *testDialect) Escape(s string) (string, error) {
	if d.failEscape {
		return "", errors.New("no connection")
	}
	return backslashEscaper.Replace(s), nil
}

func (d *testDialect) QuoteEscaped(s string) string { return "'" + s + "'" }

func (d *testDialect) QuoteIdentifier(name string) string {
	if d.quote == "" {
		return name
	}
	return d.quote + strings.ReplaceAll(name, d.quote, d.quote+d.quote) + d.quote
}

func (d *testDialect) Bool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func (d *testDialect) Limit(offset, count string) string {
	if offset == "0" {
		return count
	}
	return offset + ", " + count
}

func (d *testDialect) BindStyle() int { return 1 }

func (d *testDialect) BindTypeName(t BindType) string {
	return [...]string{"s", "i", "d"}[t]
}

func (d *testDialect) Capabilities() Capabilities { return d.caps }
