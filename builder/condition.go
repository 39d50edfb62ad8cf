package builder

import (
	"strings"
	"unicode"

	"github.com/duke-git/lancet/v2/slice"

	"github.com/preceeder/go.db.sqlkit/dberr"
)

// Combinator joins the children of a Group.
type Combinator string

const (
	AND Combinator = "AND"
	OR  Combinator = "OR"
	NOT Combinator = "NOT"
)

var combinators = []string{string(AND), string(OR), string(NOT)}

// Cond is a normalized condition tree node: Leaf, Group, Expr or Always.
type Cond interface {
	cond()
}

// Leaf compares one field with a value. An empty Op means "=".
// Field is a column name, an Fd or an Expr.
type Leaf struct {
	Field any
	Op    string
	Value any
}

// Group joins its children with a combinator. NOT negates the AND of its children.
type Group struct {
	Combinator Combinator
	Items      []Cond
}

// Always is a boolean literal condition. It renders to nothing and is dropped by its parent.
type Always bool

func (Leaf) cond()   {}
func (Group) cond()  {}
func (Expr) cond()   {}
func (Always) cond() {}

func Eq(field any, value any) Leaf {
	return Leaf{Field: field, Op: "=", Value: value}
}

func Op(field any, op string, value any) Leaf {
	return Leaf{Field: field, Op: op, Value: value}
}

func In(field any, values any) Leaf {
	return Leaf{Field: field, Op: "IN", Value: values}
}

func NotIn(field any, values any) Leaf {
	return Leaf{Field: field, Op: "NOT IN", Value: values}
}

// Like matches values containing s; % and _ inside s are matched literally.
func Like(field any, s string) Leaf {
	return Leaf{Field: field, Op: "%LIKE%", Value: s}
}

func And(items ...Cond) Group {
	return Group{Combinator: AND, Items: items}
}

func Or(items ...Cond) Group {
	return Group{Combinator: OR, Items: items}
}

func Not(items ...Cond) Group {
	return Group{Combinator: NOT, Items: items}
}

// Exists wraps a sub-query.
func Exists(query string) Expr {
	return Raw("EXISTS (" + query + ")")
}

func NotExists(query string) Expr {
	return Raw("NOT EXISTS (" + query + ")")
}

// NormalizeCond converts a condition spec into a Cond tree.
//
// Accepted shapes: a Cond; a boolean (dropped); a string (raw text); a Map or
// map[string]any whose keyed entries are field conditions and whose unkeyed
// entries are nested specs; a List of nested specs. The first unkeyed entry of
// a Map may be AND, OR or NOT, which sets the combinator of its siblings.
func NormalizeCond(spec any) (Cond, error) {
	switch v := spec.(type) {
	case nil:
		return Always(true), nil
	case Cond:
		return v, nil
	case bool:
		return Always(v), nil
	case string:
		return Raw(strings.TrimSpace(v)), nil
	}
	if m, ok := asMap(spec); ok {
		return normalizeEntries(m)
	}
	if items, ok := sequence(spec); ok {
		m := make(Map, len(items))
		for i, item := range items {
			m[i] = Entry{Value: item}
		}
		return normalizeEntries(m)
	}
	return nil, dberr.Spec(dberr.ErrInvalidSpec, "unsupported condition %T", spec)
}

func isCombinator(x any) (Combinator, bool) {
	s, ok := x.(string)
	if !ok {
		return "", false
	}
	up := strings.ToUpper(strings.TrimSpace(s))
	if slice.Contain(combinators, up) {
		return Combinator(up), true
	}
	return "", false
}

func normalizeEntries(m Map) (Cond, error) {
	g := Group{Combinator: AND}
	first := true
	negate := false
	for i, e := range m {
		if e.Key != "" {
			c, err := fieldCond(e.Key, e.Value)
			if err != nil {
				return nil, err
			}
			g.Items = append(g.Items, c)
			continue
		}
		if comb, ok := isCombinator(e.Value); ok {
			// NOT, OR, ... negates the OR of the remaining entries
			if negate && i == 1 && comb != NOT {
				g.Combinator = comb
				continue
			}
			if !first {
				return nil, dberr.Spec(dberr.ErrInvalidSpec, "combinator %s must be the first unkeyed entry", comb)
			}
			g.Combinator = comb
			first = false
			if comb == NOT && i == 0 {
				negate = true
				g.Combinator = AND
			}
			continue
		}
		first = false
		switch v := e.Value.(type) {
		case nil:
			continue
		case string:
			if s := strings.TrimSpace(v); s != "" {
				g.Items = append(g.Items, Raw(s))
			}
			continue
		}
		c, err := NormalizeCond(e.Value)
		if err != nil {
			return nil, err
		}
		g.Items = append(g.Items, c)
	}
	if negate {
		return Group{Combinator: NOT, Items: []Cond{g}}, nil
	}
	return g, nil
}

// fieldCond builds the condition of one field key:
//
//	value                 implicit equality
//	List{op, value}       comparison
//	List{op}              comparison against NULL
//	Map{{op, value}, ...} several comparisons joined with AND
//	List{cond, cond, ...} several field conditions joined with AND
func fieldCond(field any, spec any) (Cond, error) {
	if m, ok := asMap(spec); ok {
		g := Group{Combinator: AND}
		for _, e := range m {
			var c Cond
			var err error
			if e.Key != "" {
				c = Leaf{Field: field, Op: e.Key, Value: e.Value}
			} else {
				c, err = fieldCond(field, e.Value)
			}
			if err != nil {
				return nil, err
			}
			g.Items = append(g.Items, c)
		}
		return g, nil
	}
	items, ok := sequence(spec)
	if !ok {
		return Leaf{Field: field, Value: spec}, nil
	}
	if len(items) == 0 {
		return nil, dberr.Spec(dberr.ErrInvalidSpec, "empty condition for field %v", field)
	}
	if len(items) <= 2 && !isNested(items[0]) {
		if items[0] == nil {
			return nil, dberr.Spec(dberr.ErrInvalidSpec, "no operator at position 0 for field %v", field)
		}
		op, ok := items[0].(string)
		if !ok {
			return nil, dberr.Spec(dberr.ErrUnknownOperator, "operator %v (%T) for field %v", items[0], items[0], field)
		}
		if len(items) == 1 {
			return Leaf{Field: field, Op: op, Value: nil}, nil
		}
		return Leaf{Field: field, Op: op, Value: items[1]}, nil
	}
	g := Group{Combinator: AND}
	for _, item := range items {
		c, err := fieldCond(field, item)
		if err != nil {
			return nil, err
		}
		g.Items = append(g.Items, c)
	}
	return g, nil
}

func isNested(x any) bool {
	if _, ok := asMap(x); ok {
		return true
	}
	_, ok := sequence(x)
	return ok
}

// renderCond renders a normalized condition. Empty results are dropped by the caller.
func renderCond(d Dialect, c Cond) (string, error) {
	switch v := c.(type) {
	case nil, Always:
		return "", nil
	case Expr:
		return strings.TrimSpace(v.text), nil
	case Leaf:
		return renderLeaf(d, v)
	case Group:
		return renderGroup(d, v)
	}
	return "", dberr.Spec(dberr.ErrInvalidSpec, "unsupported condition node %T", c)
}

func renderGroup(d Dialect, g Group) (string, error) {
	if g.Combinator == NOT && len(g.Items) == 1 {
		// NOT over a single group takes that group's combinator inside the parentheses
		if sub, ok := g.Items[0].(Group); ok && (sub.Combinator == OR || sub.Combinator == AND) {
			parts, err := renderParts(d, sub)
			if err != nil || len(parts) == 0 {
				return "", err
			}
			return "NOT (" + strings.Join(parts, " "+string(sub.Combinator)+" ") + ")", nil
		}
	}
	parts, err := renderParts(d, g)
	if err != nil {
		return "", err
	}
	switch g.Combinator {
	case NOT:
		if inner := joinConditions(AND, parts); inner != "" {
			return "NOT (" + inner + ")", nil
		}
		return "", nil
	case OR:
		return joinConditions(OR, parts), nil
	case AND, "":
		return joinConditions(AND, parts), nil
	}
	return "", dberr.Spec(dberr.ErrInvalidSpec, "unknown combinator %q", g.Combinator)
}

// renderParts renders the children of g, dropping empty ones.
func renderParts(d Dialect, g Group) ([]string, error) {
	parts := make([]string, 0, len(g.Items))
	for _, item := range g.Items {
		s, err := renderCond(d, item)
		if err != nil {
			return nil, err
		}
		if s != "" {
			parts = append(parts, s)
		}
	}
	return parts, nil
}

func joinConditions(comb Combinator, parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	s := strings.Join(parts, " "+string(comb)+" ")
	if comb == OR && len(parts) > 1 {
		return "(" + s + ")"
	}
	return s
}

// canonicalOperator uppercases op and checks it only holds letters, spaces and comparison symbols.
func canonicalOperator(op string) (string, error) {
	up := strings.ToUpper(strings.TrimSpace(op))
	if up == "" {
		return "=", nil
	}
	for _, r := range up {
		if (r >= 'A' && r <= 'Z') || r == ' ' || strings.ContainsRune("!<>=~@&|^%#*+-/", r) {
			continue
		}
		return "", dberr.Spec(dberr.ErrUnknownOperator, "%q", op)
	}
	return up, nil
}

func renderLeaf(d Dialect, l Leaf) (string, error) {
	field, err := renderColumn(d, l.Field, false)
	if err != nil {
		return "", err
	}
	op, err := canonicalOperator(l.Op)
	if err != nil {
		return "", err
	}
	if strings.Contains(op, "LIKE") {
		return renderLike(d, field, op, l.Value)
	}
	if op == "IN" || op == "NOT IN" {
		return renderIn(d, field, op, l.Value)
	}
	if fd, ok := l.Value.(Fd); ok {
		rhs, err := fd.render(d)
		if err != nil {
			return "", err
		}
		return field + " " + op + " " + rhs, nil
	}
	if _, ok := sequence(l.Value); ok {
		return "", dberr.Spec(dberr.ErrInvalidSpec, "sequence value for operator %s on %s", op, field)
	}
	v, err := ValueOf(l.Value)
	if err != nil {
		return "", err
	}
	if v.IsNull() {
		switch op {
		case "=":
			op = "IS"
		case "<>", "!=":
			op = "IS NOT"
		}
	}
	lit, err := Render(v, d)
	if err != nil {
		return "", err
	}
	return field + " " + op + " " + lit, nil
}

func renderIn(d Dialect, field, op string, value any) (string, error) {
	if _, ok := sequence(value); !ok {
		v, err := ValueOf(value)
		if err != nil {
			return "", err
		}
		if v.kind != KindRaw && v.kind != KindParam {
			return "", dberr.Spec(dberr.ErrInvalidSpec, "%s on %s requires a sequence, got %T", op, field, value)
		}
		lit, err := Render(v, d)
		if err != nil {
			return "", err
		}
		return field + " " + op + " (" + lit + ")", nil
	}
	values, err := Values(value)
	if err != nil {
		return "", err
	}
	if len(values) == 0 {
		if op == "IN" {
			return "1=0", nil
		}
		return "1=1", nil
	}
	list, err := RenderList(values, d)
	if err != nil {
		return "", err
	}
	return field + " " + op + " (" + list + ")", nil
}

// renderLike applies the wildcard mode carried by the operator token:
// LIKE% (prefix match), %LIKE (suffix match), %LIKE% (contains) or bare LIKE.
// Caller text is always escaped before the builder adds its own % characters.
func renderLike(d Dialect, field, op string, value any) (string, error) {
	left := strings.HasPrefix(op, "%")
	right := strings.HasSuffix(op, "%")
	op = strings.TrimSpace(strings.ReplaceAll(op, "%", ""))

	v, err := ValueOf(value)
	if err != nil {
		return "", err
	}
	if v.kind == KindRaw || v.kind == KindParam {
		if left || right {
			return "", dberr.Spec(dberr.ErrInvalidSpec, "expressions are not supported in %%LIKE%% operators")
		}
		lit, err := Render(v, d)
		if err != nil {
			return "", err
		}
		return field + " " + op + " " + lit, nil
	}
	masked, err := escapeMask(d, likeText(v))
	if err != nil {
		return "", err
	}
	if left {
		masked = "%" + masked
	}
	if right {
		masked += "%"
	}
	out := field + " " + op + " " + d.QuoteEscaped(masked)
	if esc := d.Capabilities().LikeEscape; esc != "" {
		out += " " + esc
	}
	return out, nil
}

// likeText is the unquoted text of a scalar used as a LIKE pattern.
func likeText(v Value) string {
	switch v.kind {
	case KindText:
		return v.s
	case KindNull:
		return ""
	case KindBool:
		if v.b {
			return "1"
		}
		return "0"
	case KindDateTime:
		return v.t.Format(DateTimeLayout)
	}
	s, _ := Render(v, nil)
	return s
}

// JoinWhere combines two condition specs with AND (or OR). An empty or
// boolean operand is the identity.
func JoinWhere(a, b any, or bool) any {
	if isEmpty(a) {
		return b
	}
	if isEmpty(b) {
		return a
	}
	comb := AND
	if or {
		comb = OR
	}
	return List{string(comb), a, b}
}

// MergeWhere is JoinWhere that keeps plain operands flat: two strings are joined
// as text, and two keyed maps are merged into one, with the conditions of a field
// present in both joined by AND.
func MergeWhere(a, b any, or bool) any {
	as, ok1 := a.(string)
	bs, ok2 := b.(string)
	if ok1 && ok2 && as != "" && bs != "" {
		comb := AND
		if or {
			comb = OR
		}
		return joinConditions(comb, []string{as, bs})
	}
	if or {
		return JoinWhere(a, b, true)
	}
	am, ok1 := asMap(a)
	bm, ok2 := asMap(b)
	if ok1 && ok2 && len(am) > 0 && len(bm) > 0 && !leadsWithMarker(am) && !leadsWithMarker(bm) {
		out := append(Map{}, am...)
		for _, e := range bm {
			if e.Key == "" {
				out = append(out, e)
				continue
			}
			i := slice.IndexOf(out.Keys(), e.Key)
			if i < 0 {
				out = append(out, e)
				continue
			}
			for j := range out {
				if out[j].Key == e.Key {
					out[j].Value = List{fieldList(out[j].Value), fieldList(e.Value)}
					break
				}
			}
		}
		return out
	}
	return JoinWhere(a, b, false)
}

// leadsWithMarker reports whether the first entry of m is an unkeyed word such as OR.
func leadsWithMarker(m Map) bool {
	if m[0].Key != "" {
		return false
	}
	s, ok := m[0].Value.(string)
	if !ok || s == "" {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool {
		return !(r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r))
	}) < 0
}

// fieldList wraps a plain field value as an equality comparison so it can sit
// next to other comparisons of the same field.
func fieldList(v any) any {
	if isNested(v) {
		return v
	}
	return List{"=", v}
}
