package builder

import (
	"database/sql/driver"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/preceeder/go.db.sqlkit/dberr"
)

// DateTimeLayout is how DateTime values are rendered inside literals.
const DateTimeLayout = "2006-01-02 15:04:05"

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindText
	KindDateTime
	KindRaw
	KindParam
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindDateTime:
		return "datetime"
	case KindRaw:
		return "raw"
	case KindParam:
		return "param"
	}
	return "unknown"
}

// Expr is an opaque SQL fragment emitted verbatim. It is the only way to put
// caller text into a statement without quoting or escaping.
type Expr struct {
	text string
}

// Raw wraps text as an SQL expression.
func Raw(text string) Expr {
	return Expr{text: text}
}

func (e Expr) String() string {
	return e.text
}

// Value is the canonical scalar representation used by the compilers.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	t    time.Time
}

// Null is the SQL NULL value.
var Null = Value{kind: KindNull}

// Param is a parameter marker: ":name", or "?" when name is empty.
func Param(name string) Value {
	return Value{kind: KindParam, s: strings.TrimLeft(name, ":")}
}

func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether v is SQL NULL.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// ValueOf converts a Go scalar into a Value. Sequences are rejected; see Values.
func ValueOf(x any) (Value, error) {
	switch v := x.(type) {
	case nil:
		return Null, nil
	case Value:
		return v, nil
	case Expr:
		return Value{kind: KindRaw, s: v.text}, nil
	case SetExpression:
		return Value{kind: KindRaw, s: v.expr}, nil
	case Named:
		return Param(v.Name), nil
	case bool:
		return Value{kind: KindBool, b: v}, nil
	case int:
		return Value{kind: KindInt, i: int64(v)}, nil
	case int8:
		return Value{kind: KindInt, i: int64(v)}, nil
	case int16:
		return Value{kind: KindInt, i: int64(v)}, nil
	case int32:
		return Value{kind: KindInt, i: int64(v)}, nil
	case int64:
		return Value{kind: KindInt, i: v}, nil
	case uint8:
		return Value{kind: KindInt, i: int64(v)}, nil
	case uint16:
		return Value{kind: KindInt, i: int64(v)}, nil
	case uint32:
		return Value{kind: KindInt, i: int64(v)}, nil
	case uint:
		return uintValue(uint64(v)), nil
	case uint64:
		return uintValue(v), nil
	case float32:
		return floatValue(float64(v))
	case float64:
		return floatValue(v)
	case string:
		return Value{kind: KindText, s: v}, nil
	case []byte:
		return Value{kind: KindText, s: string(v)}, nil
	case time.Time:
		return Value{kind: KindDateTime, t: v}, nil
	case driver.Valuer:
		dv, err := v.Value()
		if err != nil {
			return Value{}, errors.Wrap(dberr.ErrInvalidSpec, err.Error())
		}
		return ValueOf(dv)
	case fmt.Stringer:
		return Value{kind: KindText, s: v.String()}, nil
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return Null, nil
		}
		return ValueOf(rv.Elem().Interface())
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct, reflect.Func, reflect.Chan:
		return Value{}, dberr.Spec(dberr.ErrInvalidSpec, "%T is not a scalar value", x)
	}
	// named scalar types (type Status string, type ID int64, ...)
	switch rv.Kind() {
	case reflect.Bool:
		return Value{kind: KindBool, b: rv.Bool()}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Value{kind: KindInt, i: rv.Int()}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return uintValue(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return floatValue(rv.Float())
	case reflect.String:
		return Value{kind: KindText, s: rv.String()}, nil
	}
	return Value{kind: KindText, s: fmt.Sprint(x)}, nil
}

func uintValue(u uint64) Value {
	if u > math.MaxInt64 {
		return Value{kind: KindText, s: strconv.FormatUint(u, 10)}
	}
	return Value{kind: KindInt, i: int64(u)}
}

func floatValue(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, dberr.Spec(dberr.ErrInvalidSpec, "%v has no SQL literal", f)
	}
	return Value{kind: KindFloat, f: f}, nil
}

// sequence returns the elements of x when x is a list-like value.
// []byte is a scalar.
func sequence(x any) ([]any, bool) {
	switch v := x.(type) {
	case List:
		return v, true
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, true
	case []int64:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, true
	case []byte, nil:
		return nil, false
	}
	rv := reflect.ValueOf(x)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// Values converts every element of a sequence.
func Values(x any) ([]Value, error) {
	items, ok := sequence(x)
	if !ok {
		return nil, dberr.Spec(dberr.ErrInvalidSpec, "%T is not a sequence", x)
	}
	out := make([]Value, 0, len(items))
	for _, item := range items {
		v, err := ValueOf(item)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Render renders v as an SQL literal of dialect d.
func Render(v Value, d Dialect) (string, error) {
	switch v.kind {
	case KindNull:
		return "NULL", nil
	case KindBool:
		return d.Bool(v.b), nil
	case KindInt:
		return strconv.FormatInt(v.i, 10), nil
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64), nil
	case KindText:
		return quoteString(d, v.s)
	case KindDateTime:
		return d.QuoteEscaped(v.t.Format(DateTimeLayout)), nil
	case KindRaw:
		return v.s, nil
	case KindParam:
		if v.s == "" {
			return "?", nil
		}
		return ":" + v.s, nil
	}
	return "", dberr.Spec(dberr.ErrInvalidSpec, "unknown value kind %d", v.kind)
}

// RenderList renders a sequence comma-joined, as used inside IN (...).
func RenderList(values []Value, d Dialect) (string, error) {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		s, err := Render(v, d)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ","), nil
}

func quoteString(d Dialect, s string) (string, error) {
	escaped, err := d.Escape(s)
	if err != nil {
		return "", escapeError(err)
	}
	return d.QuoteEscaped(escaped), nil
}

func escapeError(err error) error {
	if errors.Is(err, dberr.ErrEscapeFailure) {
		return err
	}
	return errors.Wrap(dberr.ErrEscapeFailure, err.Error())
}

// escapeMask escapes s and then backslash-escapes the LIKE wildcards % and _.
func escapeMask(d Dialect, s string) (string, error) {
	escaped, err := d.Escape(s)
	if err != nil {
		return "", escapeError(err)
	}
	return likeMasker.Replace(escaped), nil
}

var likeMasker = strings.NewReplacer("%", `\%`, "_", `\_`)

// BindType is the engine-side type a bound value is declared with.
type BindType int

const (
	BindText BindType = iota
	BindInt
	BindFloat
)

// BindValue maps a Go value to its bind type and the value handed to the driver.
// Integers and booleans collapse to BindInt, floats to BindFloat, everything else to BindText.
func BindValue(x any) (BindType, any) {
	switch v := x.(type) {
	case nil:
		return BindText, nil
	case bool:
		if v {
			return BindInt, int64(1)
		}
		return BindInt, int64(0)
	case string:
		return BindText, v
	case []byte:
		return BindText, v
	case time.Time:
		return BindText, v.Format(DateTimeLayout)
	case Expr:
		return BindText, v.text
	case driver.Valuer:
		dv, err := v.Value()
		if err != nil {
			return BindText, fmt.Sprint(x)
		}
		return BindValue(dv)
	}
	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return BindText, nil
		}
		return BindValue(rv.Elem().Interface())
	case reflect.Bool:
		return BindValue(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return BindInt, rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if u := rv.Uint(); u <= math.MaxInt64 {
			return BindInt, int64(u)
		}
		return BindText, strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return BindFloat, rv.Float()
	case reflect.String:
		return BindText, rv.String()
	}
	return BindText, fmt.Sprint(x)
}
