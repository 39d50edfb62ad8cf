package builder

import (
	"math"
	"strconv"
	"strings"

	"github.com/duke-git/lancet/v2/slice"

	"github.com/preceeder/go.db.sqlkit/dberr"
)

// JoinKind is the keyword of a join clause.
type JoinKind string

const (
	KindInner JoinKind = "INNER JOIN"
	KindLeft  JoinKind = "LEFT JOIN"
	KindCross JoinKind = "CROSS JOIN"
)

var joinKinds = []string{string(KindInner), string(KindLeft), string(KindCross)}

var joinWords = []string{"INNER", "LEFT", "RIGHT", "FULL", "OUTER", "CROSS", "NATURAL", "STRAIGHT_JOIN"}

// TableRef is a table or column with an optional alias. Name is a string, an Expr or an Fd.
// An aliased Expr is parenthesized as a derived table.
type TableRef struct {
	Name  any
	Alias string
}

// As pairs a name or expression with an alias.
func As(name any, alias string) TableRef {
	return TableRef{Name: name, Alias: alias}
}

// Join is one join clause. On accepts any condition spec.
type Join struct {
	Kind  JoinKind
	Table any
	On    any
}

func InnerJoin(table any, on any) Join {
	return Join{Kind: KindInner, Table: table, On: on}
}

func LeftJoin(table any, on any) Join {
	return Join{Kind: KindLeft, Table: table, On: on}
}

func CrossJoin(table any) Join {
	return Join{Kind: KindCross, Table: table}
}

// parseJoinKind canonicalizes a kind token. ok is false when tok is not a kind
// token at all (it is then the table of the join).
func parseJoinKind(tok string) (JoinKind, bool, error) {
	up := strings.ToUpper(strings.TrimSpace(tok))
	switch up {
	case "":
		return KindInner, true, nil
	case "INNER", "LEFT", "CROSS":
		return JoinKind(up + " JOIN"), true, nil
	}
	if slice.Contain(joinKinds, up) {
		return JoinKind(up), true, nil
	}
	if strings.HasSuffix(up, "JOIN") {
		return "", true, dberr.Spec(dberr.ErrInvalidJoinOperator, "%q", tok)
	}
	// a join keyword is never the start of a table name
	if first := strings.Fields(up); len(first) > 0 && slice.Contain(joinWords, first[0]) {
		return "", true, dberr.Spec(dberr.ErrInvalidJoinOperator, "%q", tok)
	}
	return "", false, nil
}

// renderNameItem renders a table or select-list item: a name, an Expr, an Fd,
// a TableRef or a List{name, alias} pair.
func renderNameItem(d Dialect, item any) (string, error) {
	var name any
	var alias string
	switch v := item.(type) {
	case TableRef:
		name, alias = v.Name, v.Alias
	case string, Expr, Fd:
		name = v
	default:
		items, ok := sequence(item)
		if !ok || len(items) != 2 || isNested(items[0]) || isNested(items[1]) {
			return "", dberr.Spec(dberr.ErrInvalidSpec, "invalid name item %v", item)
		}
		name = items[0]
		if items[1] != nil {
			s, ok := items[1].(string)
			if !ok {
				return "", dberr.Spec(dberr.ErrInvalidSpec, "alias must be a string, got %T", items[1])
			}
			alias = s
		}
	}

	var expr string
	switch v := name.(type) {
	case Expr:
		expr = v.text
		if alias != "" {
			expr = "(" + expr + ")"
		}
	case string:
		if alias != "" {
			expr = QuoteNameOrExpression(d, v)
		} else {
			expr = QuoteNameInSelect(d, v)
		}
	case Fd:
		s, err := v.render(d)
		if err != nil {
			return "", err
		}
		expr = s
	default:
		return "", dberr.Spec(dberr.ErrInvalidSpec, "invalid name %v (%T)", name, name)
	}
	if alias == "" {
		return expr, nil
	}
	return expr + " " + alias, nil
}

// renderFrom compiles a FROM spec. The first item is the main table, the rest
// are joins:
//
//	"users"
//	List{As("users", "u"), List{"LEFT", As("orders", "o"), "o.user_id = u.id"}}
//	List{List{"users", "u"}, ...}
//	Map{{"", "users u"}, {"@orders o", "o.user_id = u.id"}}
//
// In a Map, a keyed entry is a shorthand join from table to condition; a
// leading @ on the key selects LEFT JOIN.
func renderFrom(d Dialect, spec any) (string, error) {
	var table string
	var joins []string
	var err error

	add := func(s string) {
		if s != "" {
			joins = append(joins, s)
		}
	}

	if m, ok := asMap(spec); ok {
		if len(m) == 0 || m[0].Key != "" {
			return "", dberr.Spec(dberr.ErrInvalidSpec, "invalid main table name in FROM clause")
		}
		if table, err = renderNameItem(d, m[0].Value); err != nil {
			return "", err
		}
		for _, e := range m[1:] {
			var s string
			if e.Key != "" {
				s, err = renderJoin(d, shorthandJoin(e.Key, e.Value))
			} else {
				s, err = renderJoin(d, e.Value)
			}
			if err != nil {
				return "", err
			}
			add(s)
		}
	} else if items, ok := sequence(spec); ok {
		if len(items) == 0 {
			return "", dberr.Spec(dberr.ErrInvalidSpec, "invalid main table name in FROM clause")
		}
		if table, err = renderNameItem(d, items[0]); err != nil {
			return "", err
		}
		for _, item := range items[1:] {
			s, err := renderJoin(d, item)
			if err != nil {
				return "", err
			}
			add(s)
		}
	} else if table, err = renderNameItem(d, spec); err != nil {
		return "", err
	}

	if table == "" {
		return "", dberr.Spec(dberr.ErrInvalidSpec, "invalid main table name in FROM clause")
	}
	if len(joins) == 0 {
		return table, nil
	}
	return table + "\n" + strings.Join(joins, "\n"), nil
}

func shorthandJoin(key string, on any) Join {
	kind := KindInner
	if strings.HasPrefix(key, "@") {
		kind, key = KindLeft, key[1:]
	}
	// "RIGHT t" keeps the keyword as its kind so rendering rejects it
	if _, isKind, err := parseJoinKind(key); isKind && err != nil {
		kind = JoinKind(key)
	}
	return Join{Kind: kind, Table: key, On: on}
}

// renderJoin compiles one join item: a Join, a raw string, or a List of
// [kind?, table, on...]. Multiple trailing conditions are joined with AND.
func renderJoin(d Dialect, item any) (string, error) {
	switch v := item.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(v), nil
	case Expr:
		return v.text, nil
	case Join:
		kind := v.Kind
		if kind == "" {
			kind = KindInner
		}
		if !slice.Contain(joinKinds, string(kind)) {
			return "", dberr.Spec(dberr.ErrInvalidJoinOperator, "%q", kind)
		}
		return assembleJoin(d, kind, v.Table, v.On)
	}

	items, ok := sequence(item)
	if !ok {
		return "", dberr.Spec(dberr.ErrInvalidSpec, "invalid join item %T", item)
	}
	if len(items) == 0 {
		return "", nil
	}
	kind := KindInner
	ix := 0
	if tok, isStr := items[0].(string); isStr {
		k, isKind, err := parseJoinKind(tok)
		if err != nil {
			return "", err
		}
		if isKind {
			kind = k
			ix++
		}
	}
	if ix >= len(items) {
		return "", dberr.Spec(dberr.ErrInvalidSpec, "no table in JOIN clause")
	}
	table := items[ix]
	ix++
	var on any
	switch rest := items[ix:]; len(rest) {
	case 0:
	case 1:
		on = rest[0]
	default:
		on = List(rest)
	}
	return assembleJoin(d, kind, table, on)
}

func assembleJoin(d Dialect, kind JoinKind, table any, on any) (string, error) {
	name, err := renderNameItem(d, table)
	if err != nil {
		return "", errInvalidJoinTable(err)
	}
	var cond string
	if on != nil {
		c, err := NormalizeCond(on)
		if err != nil {
			return "", err
		}
		if cond, err = renderCond(d, c); err != nil {
			return "", err
		}
	}
	if cond == "" {
		return string(kind) + " " + name, nil
	}
	return string(kind) + " " + name + " ON (" + cond + ")", nil
}

func errInvalidJoinTable(err error) error {
	return dberr.Spec(dberr.ErrInvalidSpec, "invalid table name in JOIN clause: %v", err)
}

// MergeFrom appends join items to a FROM spec. With asLeft, items that carry
// no explicit kind become LEFT JOINs.
func MergeFrom(from any, asLeft bool, joins ...any) any {
	if asLeft {
		joins = slice.Map(joins, func(_ int, j any) any { return leftJoin(j) })
	}
	if m, ok := asMap(from); ok {
		out := append(Map{}, m...)
		for _, j := range joins {
			if jm, ok := asMap(j); ok {
				out = append(out, jm...)
				continue
			}
			out = append(out, Entry{Value: j})
		}
		return out
	}
	var out List
	if items, ok := sequence(from); ok {
		out = append(out, items...)
	} else {
		out = List{from}
	}
	for _, j := range joins {
		if jm, ok := asMap(j); ok {
			for _, e := range jm {
				if e.Key != "" {
					out = append(out, shorthandJoin(e.Key, e.Value))
				} else {
					out = append(out, e.Value)
				}
			}
			continue
		}
		out = append(out, j)
	}
	return out
}

func leftJoin(j any) any {
	switch v := j.(type) {
	case Join:
		if v.Kind == "" {
			v.Kind = KindLeft
		}
		return v
	case Map:
		out := make(Map, len(v))
		for i, e := range v {
			if e.Key != "" && !strings.HasPrefix(e.Key, "@") {
				e.Key = "@" + e.Key
			}
			out[i] = e
		}
		return out
	case string, Expr:
		return v
	}
	items, ok := sequence(j)
	if !ok || len(items) == 0 {
		return j
	}
	if tok, isStr := items[0].(string); isStr {
		if _, isKind, _ := parseJoinKind(tok); isKind && strings.TrimSpace(tok) != "" {
			return j
		}
		if strings.TrimSpace(tok) == "" {
			items = items[1:]
		}
	}
	return append(List{string(KindLeft)}, items...)
}

// renderColumns compiles a select list. Empty specs and booleans select *.
func renderColumns(d Dialect, spec any) (string, error) {
	switch v := spec.(type) {
	case nil, bool:
		return "*", nil
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return s, nil
		}
		return "*", nil
	case Expr:
		if v.text == "" {
			return "*", nil
		}
		return v.text, nil
	case Fd, TableRef:
		return renderNameItem(d, v)
	}

	var parts []string
	if m, ok := asMap(spec); ok {
		for _, e := range m {
			var s string
			var err error
			if e.Key != "" {
				alias, _ := e.Value.(string)
				s, err = renderNameItem(d, TableRef{Name: e.Key, Alias: alias})
			} else {
				s, err = renderNameItem(d, e.Value)
			}
			if err != nil {
				return "", err
			}
			if s != "" {
				parts = append(parts, s)
			}
		}
	} else if items, ok := sequence(spec); ok {
		for _, item := range items {
			s, err := renderNameItem(d, item)
			if err != nil {
				return "", dberr.Spec(dberr.ErrInvalidSpec, "invalid item name in SELECT clause: %v", err)
			}
			if s != "" {
				parts = append(parts, s)
			}
		}
	} else {
		return "", dberr.Spec(dberr.ErrInvalidSpec, "unsupported select list %T", spec)
	}
	if len(parts) == 0 {
		return "*", nil
	}
	return strings.Join(parts, ", "), nil
}

// MergeSelect concatenates two select lists.
func MergeSelect(a, b any) any {
	al, aIsList := sequence(a)
	bl, bIsList := sequence(b)
	if aIsList && bIsList {
		return append(append(List{}, al...), bl...)
	}
	as, ok1 := a.(string)
	bs, ok2 := b.(string)
	if ok1 && ok2 && as != "" && bs != "" {
		return as + ", " + bs
	}
	if isEmpty(a) {
		return b
	}
	if isEmpty(b) {
		return a
	}
	if !aIsList {
		al = List{a}
	}
	if !bIsList {
		bl = List{b}
	}
	return append(append(List{}, al...), bl...)
}

// limitRange is a compiled LIMIT: offset and count as SQL text.
type limitRange struct {
	offset string
	count  string
}

// parseLimit accepts a count, "offset,count", List{count}, List{offset, count}
// or Expr elements. Zero and empty specs mean no limit.
func parseLimit(spec any) (*limitRange, error) {
	switch v := spec.(type) {
	case nil, bool:
		return nil, nil
	case string:
		v = strings.TrimSpace(v)
		if v == "" || v == "0" {
			return nil, nil
		}
		if o, c, ok := strings.Cut(v, ","); ok {
			return limitOf(strings.TrimSpace(o), strings.TrimSpace(c))
		}
	}
	if items, ok := sequence(spec); ok {
		switch len(items) {
		case 0:
			return nil, nil
		case 1:
			return limitOf(nil, items[0])
		case 2:
			return limitOf(items[0], items[1])
		}
		return nil, dberr.Spec(dberr.ErrInvalidSpec, "too many values in LIMIT array")
	}
	if n, ok := asInt(spec); ok && n == 0 {
		return nil, nil
	}
	return limitOf(nil, spec)
}

func limitOf(offset, count any) (*limitRange, error) {
	o, err := limitPart(offset, "offset")
	if err != nil {
		return nil, err
	}
	c, err := limitPart(count, "limit")
	if err != nil {
		return nil, err
	}
	return &limitRange{offset: o, count: c}, nil
}

func limitPart(x any, what string) (string, error) {
	switch v := x.(type) {
	case nil:
		return "0", nil
	case Expr:
		return v.text, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return "0", nil
		}
	}
	n, ok := limitNumber(x)
	if !ok {
		return "", dberr.Spec(dberr.ErrInvalidSpec, "invalid %s value %v (%T) in LIMIT clause", what, x, x)
	}
	if n < 0 {
		return "", dberr.Spec(dberr.ErrInvalidSpec, "negative %s value %d in LIMIT clause", what, n)
	}
	return strconv.FormatInt(n, 10), nil
}

// limitNumber reads an integer from a number or numeric text. Floats are
// accepted only when they hold a whole number, in either form.
func limitNumber(x any) (int64, bool) {
	if s, ok := x.(string); ok {
		s = strings.TrimSpace(s)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		x = f
	}
	v, err := ValueOf(x)
	if err != nil {
		return 0, false
	}
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindFloat:
		if v.f == math.Trunc(v.f) && math.Abs(v.f) < 1<<53 {
			return int64(v.f), true
		}
	}
	return 0, false
}

func asInt(x any) (int64, bool) {
	v, err := ValueOf(x)
	if err != nil || v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}
