// Package placeholder rewrites :name and ? markers in literal SQL into the
// positional markers of the target driver, skipping quoted text and comments.
package placeholder

import (
	"sort"
	"strconv"
	"strings"

	"github.com/duke-git/lancet/v2/maputil"
	"github.com/jmoiron/sqlx"
)

// Parsed is the result of scanning one statement. It is immutable after Parse.
type Parsed struct {
	// Text is the statement with every marker replaced by the driver's positional marker.
	Text string
	// Named maps a marker name (without the colon) to the slots it occupies, in order.
	Named map[string][]int
	// Positional holds the slot of each bare ? marker, in order.
	Positional []int
	// Slots is the number of markers found.
	Slots int

	spans [][2]int // byte range of each slot's marker in Text
}

// HasNamed reports whether the statement uses :name markers.
func (p Parsed) HasNamed() bool {
	return len(p.Named) > 0
}

// Names returns the marker names in order of first appearance.
func (p Parsed) Names() []string {
	names := maputil.Keys(p.Named)
	sort.Slice(names, func(i, j int) bool {
		return p.Named[names[i]][0] < p.Named[names[j]][0]
	})
	return names
}

// Option adjusts how Parse reads quoted regions.
type Option func(*options)

type options struct {
	backslash bool
}

// BackslashEscapes selects whether a backslash escapes the next quote inside a
// quoted region. It is on by default, matching MySQL. PostgreSQL and SQLite
// only double the quote, so 'C:\' is a complete literal there; E'...' strings
// keep the backslash rule.
func BackslashEscapes(on bool) Option {
	return func(o *options) { o.backslash = on }
}

// Marker formats the marker of a 0-based slot for a sqlx bind type.
func Marker(bindType int, slot int) string {
	switch bindType {
	case sqlx.DOLLAR:
		return "$" + strconv.Itoa(slot+1)
	case sqlx.AT:
		return "@p" + strconv.Itoa(slot+1)
	case sqlx.NAMED:
		return ":arg" + strconv.Itoa(slot+1)
	}
	return "?"
}

// Parse scans text for :name markers and bare ? markers (a ? directly after a
// letter, digit or underscore is not a marker). Markers inside '...', "..." and
// `...` regions, -- comments and /* */ comments are left alone. By default a
// quote closes its region only when preceded by an even number of backslashes;
// see BackslashEscapes. :: is a cast, not a marker.
//
// Each marker takes the next slot; a name used twice owns two slots. Text with
// no markers is returned unchanged.
func Parse(text string, bindType int, opts ...Option) Parsed {
	p := Parsed{Text: text, Named: map[string][]int{}}
	if !strings.ContainsAny(text, ":?") {
		return p
	}
	cfg := options{backslash: true}
	for _, o := range opts {
		o(&cfg)
	}

	var b strings.Builder
	b.Grow(len(text))
	n := len(text)
	var quote byte
	var escapes bool // backslash escapes apply inside the current quote
	changed := false

	for i := 0; i < n; i++ {
		c := text[i]
		if quote != 0 {
			b.WriteByte(c)
			if c == quote && (!escapes || evenBackslashes(text, i)) {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			b.WriteByte(c)
			if !cfg.backslash {
				quote, escapes = c, c == '\'' && escapeString(text, i)
			} else if evenBackslashes(text, i) {
				quote, escapes = c, true
			}
			continue
		case '-':
			if i+1 < n && text[i+1] == '-' {
				end := strings.IndexByte(text[i:], '\n')
				if end < 0 {
					end = n - i
				}
				b.WriteString(text[i : i+end])
				i += end - 1
				continue
			}
		case '/':
			if i+1 < n && text[i+1] == '*' {
				end := strings.Index(text[i+2:], "*/")
				if end < 0 {
					end = n - i
				} else {
					end += 4
				}
				b.WriteString(text[i : i+end])
				i += end - 1
				continue
			}
		case ':':
			if i+1 < n && text[i+1] == ':' {
				b.WriteString("::")
				i++
				continue
			}
			if i+1 < n && isWord(text[i+1]) && (i == 0 || !isWord(text[i-1])) {
				j := i + 1
				for j < n && isWord(text[j]) {
					j++
				}
				name := text[i+1 : j]
				p.Named[name] = append(p.Named[name], p.Slots)
				p.mark(&b, Marker(bindType, p.Slots))
				changed = true
				i = j - 1
				continue
			}
		case '?':
			if i == 0 || !isWord(text[i-1]) {
				p.Positional = append(p.Positional, p.Slots)
				marker := Marker(bindType, p.Slots)
				p.mark(&b, marker)
				if marker != "?" {
					changed = true
				}
				continue
			}
		}
		b.WriteByte(c)
	}
	if changed {
		p.Text = b.String()
	}
	return p
}

func (p *Parsed) mark(b *strings.Builder, marker string) {
	start := b.Len()
	b.WriteString(marker)
	p.spans = append(p.spans, [2]int{start, b.Len()})
	p.Slots++
}

// escapeString reports whether the quote at i opens a PostgreSQL E'...' literal.
func escapeString(text string, i int) bool {
	if i == 0 || (text[i-1] != 'E' && text[i-1] != 'e') {
		return false
	}
	return i == 1 || !isWord(text[i-2])
}

// evenBackslashes reports whether the byte at i is preceded by an even number of backslashes.
func evenBackslashes(text string, i int) bool {
	k := 0
	for j := i - 1; j >= 0 && text[j] == '\\'; j-- {
		k++
	}
	return k%2 == 0
}

func isWord(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
