package builder

import (
	"strings"
	"unicode"

	"github.com/preceeder/go.db.sqlkit/dberr"
)

// Direction of an ORDER BY item. The zero value adds no keyword.
type Direction string

const (
	NoDirection Direction = ""
	ASC         Direction = "ASC"
	DESC        Direction = "DESC"
)

// OrderItem is one ORDER BY / GROUP BY element. Field is a column name, an Fd or an Expr.
type OrderItem struct {
	Field any
	Dir   Direction
}

func Asc(field any) OrderItem {
	return OrderItem{Field: field, Dir: ASC}
}

func Desc(field any) OrderItem {
	return OrderItem{Field: field, Dir: DESC}
}

// ParseDirection canonicalizes a direction token. Besides ASC and DESC any
// prefix of ASCENDING or DESCENDING is accepted, so "ASCEN" and "desc" are
// valid and "ASX" is not.
func ParseDirection(token string) (Direction, error) {
	tok := strings.ToUpper(strings.TrimSpace(token))
	switch {
	case tok == "":
		return NoDirection, nil
	case strings.HasPrefix("ASCENDING", tok):
		return ASC, nil
	case strings.HasPrefix("DESCENDING", tok):
		return DESC, nil
	}
	return "", dberr.Spec(dberr.ErrInvalidDirection, "%q", token)
}

// strictDirection only recognizes the exact ASC and DESC keywords.
func strictDirection(x any) (Direction, bool) {
	s, ok := x.(string)
	if !ok {
		if d, ok := x.(Direction); ok && d != NoDirection {
			return d, true
		}
		return "", false
	}
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ASC":
		return ASC, true
	case "DESC":
		return DESC, true
	}
	return "", false
}

// orderPair detects the List{field, "ASC"|"DESC"} shape.
func orderPair(items []any) (OrderItem, bool) {
	if len(items) != 2 || isNested(items[0]) {
		return OrderItem{}, false
	}
	dir, ok := strictDirection(items[1])
	if !ok {
		return OrderItem{}, false
	}
	return OrderItem{Field: items[0], Dir: dir}, true
}

// renderOrder compiles an order spec: a string or Expr (verbatim), an OrderItem,
// a List of items, a Map of field to direction, or a Composite.
func renderOrder(d Dialect, spec any) (string, error) {
	switch v := spec.(type) {
	case nil, bool, Always:
		return "", nil
	case string:
		return strings.TrimSpace(v), nil
	case Expr:
		return v.text, nil
	case OrderItem:
		return renderOrderItem(d, v.Field, v.Dir)
	case Fd:
		return renderOrderItem(d, v, NoDirection)
	case Composite:
		return renderOrderList(d, v)
	}
	if m, ok := asMap(spec); ok {
		parts := make([]string, 0, len(m))
		for _, e := range m {
			var s string
			var err error
			if e.Key == "" {
				s, err = renderOrderElement(d, e.Value)
			} else {
				s, err = renderKeyedOrder(d, e.Key, e.Value)
			}
			if err != nil {
				return "", err
			}
			if s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", "), nil
	}
	if items, ok := sequence(spec); ok {
		if item, ok := orderPair(items); ok {
			return renderOrderItem(d, item.Field, item.Dir)
		}
		return renderOrderList(d, items)
	}
	return "", dberr.Spec(dberr.ErrInvalidSpec, "unsupported order %T", spec)
}

func renderOrderList(d Dialect, items []any) (string, error) {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		s, err := renderOrderElement(d, item)
		if err != nil {
			return "", err
		}
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", "), nil
}

// renderOrderElement renders one member of a list. Unlike a top-level spec,
// a bare string is a field name and a bare Expr is parenthesized.
func renderOrderElement(d Dialect, x any) (string, error) {
	switch v := x.(type) {
	case nil, bool:
		return "", nil
	case string, Expr:
		return renderOrderItem(d, v, NoDirection)
	}
	return renderOrder(d, x)
}

func renderKeyedOrder(d Dialect, field string, dir any) (string, error) {
	var tok string
	switch v := dir.(type) {
	case nil:
	case string:
		tok = v
	case Direction:
		tok = string(v)
	default:
		return "", dberr.Spec(dberr.ErrInvalidDirection, "%v (%T) for %s", dir, dir, field)
	}
	parsed, err := ParseDirection(tok)
	if err != nil {
		return "", err
	}
	return renderOrderItem(d, field, parsed)
}

func renderOrderItem(d Dialect, field any, dir Direction) (string, error) {
	dir, err := ParseDirection(string(dir))
	if err != nil {
		return "", err
	}
	var expr string
	switch v := field.(type) {
	case string:
		// "created_at DESC" carries its own direction
		if dir == NoDirection && strings.IndexFunc(strings.TrimSpace(v), unicode.IsSpace) >= 0 {
			return strings.TrimSpace(v), nil
		}
		expr = QuoteNameOrExpression(d, v)
	case Expr:
		expr = "(" + v.text + ")"
	case Fd:
		s, err := v.render(d)
		if err != nil {
			return "", err
		}
		expr = s
	default:
		return "", dberr.Spec(dberr.ErrInvalidSpec, "invalid order field %v (%T)", field, field)
	}
	if dir == NoDirection {
		return expr, nil
	}
	return expr + " " + string(dir), nil
}

// JoinOrder combines two order specs, primary first. An empty operand is the
// identity; two strings are joined with ", "; two plain lists are concatenated.
// Anything else becomes a Composite of both operands.
func JoinOrder(primary, secondary any) any {
	if isEmpty(primary) {
		return secondary
	}
	if isEmpty(secondary) {
		return primary
	}
	ps, ok1 := primary.(string)
	ss, ok2 := secondary.(string)
	if ok1 && ok2 {
		return ps + ", " + ss
	}
	if pl, ok := plainOrderList(primary); ok {
		if sl, ok := plainOrderList(secondary); ok {
			return append(append(List{}, pl...), sl...)
		}
	}
	return Composite{primary, secondary}
}

// MergeOrder is JoinOrder that also merges two keyed maps: the primary's
// entries win for a field present in both.
func MergeOrder(primary, secondary any) any {
	if isEmpty(primary) {
		return secondary
	}
	if isEmpty(secondary) {
		return primary
	}
	pm, ok1 := asMap(primary)
	sm, ok2 := asMap(secondary)
	if ok1 && ok2 {
		out := append(Map{}, pm...)
		for _, e := range sm {
			if e.Key != "" {
				if _, exists := pm.Get(e.Key); exists {
					continue
				}
			}
			out = append(out, e)
		}
		return out
	}
	return JoinOrder(primary, secondary)
}

// plainOrderList reports whether x is a list of items rather than a single (field, direction) pair.
func plainOrderList(x any) ([]any, bool) {
	if _, ok := asMap(x); ok {
		return nil, false
	}
	if _, ok := x.(Composite); ok {
		return nil, false
	}
	items, ok := sequence(x)
	if !ok {
		return nil, false
	}
	if _, pair := orderPair(items); pair {
		return nil, false
	}
	return items, true
}
