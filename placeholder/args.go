package placeholder

import (
	"database/sql/driver"
	"reflect"
	"strings"

	"github.com/preceeder/go.db.sqlkit/dberr"
)

// Args orders values by slot: named fills the :name markers (keys may carry
// the leading colon), positional fills the ? markers in order. Extra named
// keys are ignored; a marker without a value is an error.
func (p Parsed) Args(named map[string]any, positional []any) ([]any, error) {
	if len(positional) != len(p.Positional) {
		return nil, dberr.Spec(dberr.ErrPositionMismatch, "statement has %d positional markers, got %d values", len(p.Positional), len(positional))
	}
	args := make([]any, p.Slots)
	for i, slot := range p.Positional {
		args[slot] = positional[i]
	}
	if len(p.Named) == 0 {
		return args, nil
	}
	values := make(map[string]any, len(named))
	for k, v := range named {
		values[strings.TrimPrefix(k, ":")] = v
	}
	for _, name := range p.Names() {
		v, ok := values[name]
		if !ok {
			return nil, dberr.Spec(dberr.ErrUnknownParameter, "no value for :%s", name)
		}
		for _, slot := range p.Named[name] {
			args[slot] = v
		}
	}
	return args, nil
}

// Expand renders Text for bindType, turning every slot whose value is a slice
// into a comma separated run of markers and flattening args to match.
// []byte and driver.Valuer values are never expanded. An empty slice is an error.
func (p Parsed) Expand(args []any, bindType int) (string, []any, error) {
	if len(args) != p.Slots {
		return "", nil, dberr.Spec(dberr.ErrPositionMismatch, "statement has %d slots, got %d values", p.Slots, len(args))
	}
	var b strings.Builder
	b.Grow(len(p.Text))
	out := make([]any, 0, len(args))
	last := 0
	for slot, span := range p.spans {
		b.WriteString(p.Text[last:span[0]])
		last = span[1]

		items, ok := expandable(args[slot])
		if !ok {
			b.WriteString(Marker(bindType, len(out)))
			out = append(out, args[slot])
			continue
		}
		if len(items) == 0 {
			return "", nil, dberr.Spec(dberr.ErrInvalidSpec, "empty list bound to slot %d", slot)
		}
		for i, item := range items {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(Marker(bindType, len(out)))
			out = append(out, item)
		}
	}
	b.WriteString(p.Text[last:])
	return b.String(), out, nil
}

func expandable(v any) ([]any, bool) {
	switch v.(type) {
	case nil, []byte, driver.Valuer:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}
