package builder

import (
	"strings"
	"unicode"

	"github.com/duke-git/lancet/v2/slice"
)

// expressionChars are the characters that mark a name as an expression rather
// than a bare identifier: braces of the table-prefix template, parentheses and
// the dialect's own quote characters.
func expressionChars(d Dialect) string {
	quotes := slice.Unique([]rune(d.QuoteIdentifier("")))
	return "{(" + string(quotes)
}

// QuoteName quotes a column or table name for dialect d.
// Only the part after the first dot is quoted; table aliases are never quoted
// (alias.`field`), and a trailing * is left alone.
func QuoteName(d Dialect, name string) string {
	if name == "" {
		return ""
	}
	t, f, ok := strings.Cut(name, ".")
	if !ok {
		return d.QuoteIdentifier(name)
	}
	t = strings.TrimRightFunc(t, unicode.IsSpace)
	f = strings.TrimLeftFunc(f, unicode.IsSpace)
	if f != "*" {
		f = d.QuoteIdentifier(f)
	}
	return t + "." + f
}

// QuoteNameOrExpression quotes name unless it already looks like an expression.
func QuoteNameOrExpression(d Dialect, name string) string {
	if strings.ContainsAny(name, expressionChars(d)) {
		return name
	}
	return QuoteName(d, name)
}

// QuoteNameInSelect is QuoteNameOrExpression that also passes through anything
// with whitespace ("u.name AS n", "users u").
func QuoteNameInSelect(d Dialect, name string) string {
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return name
	}
	return QuoteNameOrExpression(d, name)
}
