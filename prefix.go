package sqlkit

import (
	"strings"

	"github.com/preceeder/go.db.sqlkit/builder"
)

// tablePrefix substitutes the table-name placeholder of one enclosure style.
type tablePrefix struct {
	prefix    string
	enclosure string
}

// escape marks every placeholder in s with @ so apply(s, true) restores it verbatim.
func (t tablePrefix) escape(s string) string {
	switch t.enclosure {
	case EnclosureBrackets:
		return strings.ReplaceAll(s, "{{", "@{{")
	case EnclosurePrefix:
		return strings.ReplaceAll(s, "#pre#", "@#pre#")
	}
	return s
}

// apply replaces unescaped placeholders with the prefix. With unescape the @
// in front of an escaped placeholder is dropped.
func (t tablePrefix) apply(s string, unescape bool) string {
	var token string
	switch t.enclosure {
	case EnclosureBrackets:
		token = "{{"
	case EnclosurePrefix:
		token = "#pre#"
	default:
		return s
	}
	if !strings.Contains(s, token) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + len(t.prefix))
	for {
		i := strings.Index(s, token)
		if i < 0 {
			b.WriteString(s)
			break
		}
		if i > 0 && s[i-1] == '@' {
			if unescape {
				b.WriteString(s[:i-1])
			} else {
				b.WriteString(s[:i])
			}
			b.WriteString(token)
			s = s[i+len(token):]
			continue
		}
		b.WriteString(s[:i])
		rest := s[i+len(token):]
		if token == "#pre#" {
			b.WriteString(t.prefix)
			s = rest
			continue
		}
		end := strings.Index(rest, "}}")
		if end < 0 {
			b.WriteString(token)
			s = rest
			continue
		}
		b.WriteString(t.prefix)
		b.WriteString(rest[:end])
		s = rest[end+2:]
	}
	return b.String()
}

// prefixDialect escapes table-name placeholders in string literals before the
// engine escape runs.
type prefixDialect struct {
	builder.Dialect
	prefix tablePrefix
}

func (d prefixDialect) Escape(s string) (string, error) {
	return d.Dialect.Escape(d.prefix.escape(s))
}
