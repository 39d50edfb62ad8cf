package builder

import (
	"fmt"
	"strings"

	"github.com/duke-git/lancet/v2/slice"

	"github.com/preceeder/go.db.sqlkit/dberr"
)

// Fd is a column reference or a column expression (function call, arithmetic).
// It is rendered against a dialect, so names are quoted the way the engine expects.
type Fd struct {
	name   string
	format string
	args   []any
}

// NewField 将字符串变为 Fd 类型
func NewField(field string) Fd {
	return Fd{name: field}
}

// F is shorthand for NewField.
func F(field string) Fd {
	return NewField(field)
}

// fn builds an expression Fd. Each %s in format is filled with one rendered operand.
func fn(format string, args ...any) Fd {
	return Fd{format: format, args: args}
}

// Field returns the column name; empty for expressions.
func (f Fd) Field() string {
	return f.name
}

func (f Fd) IsExpression() bool {
	return f.format != ""
}

func (f Fd) render(d Dialect) (string, error) {
	if f.format == "" {
		return QuoteNameOrExpression(d, f.name), nil
	}
	parts, err := renderOperands(d, f.args)
	if err != nil {
		return "", err
	}
	if n := strings.Count(f.format, "%s"); n != len(parts) {
		return "", dberr.Spec(dberr.ErrInvalidSpec, "%q expects %d operands, got %d", f.format, n, len(parts))
	}
	return fmt.Sprintf(f.format, slice.Map(parts, func(_ int, s string) any { return s })...), nil
}

func renderOperands(d Dialect, args []any) ([]string, error) {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		s, err := renderOperand(d, a)
		if err != nil {
			return nil, err
		}
		parts = append(parts, s)
	}
	return parts, nil
}

// renderOperand renders a value position: Fd as a column, Cond as a predicate, anything else as a literal.
func renderOperand(d Dialect, x any) (string, error) {
	switch v := x.(type) {
	case Fd:
		return v.render(d)
	case Leaf, Group:
		return renderCond(d, v.(Cond))
	}
	v, err := ValueOf(x)
	if err != nil {
		return "", err
	}
	return Render(v, d)
}

// renderColumn renders a field position. Strings are quoted unless they look like
// expressions; inSelect also passes through names containing whitespace.
func renderColumn(d Dialect, x any, inSelect bool) (string, error) {
	switch v := x.(type) {
	case string:
		if inSelect {
			return QuoteNameInSelect(d, v), nil
		}
		return QuoteNameOrExpression(d, v), nil
	case Fd:
		return v.render(d)
	case Expr:
		return v.text, nil
	}
	return "", dberr.Spec(dberr.ErrInvalidSpec, "invalid field %v (%T)", x, x)
}

func (f Fd) arg(value any, key []string) any {
	if len(key) > 0 {
		return Arg(key[0], value)
	}
	return value
}

// Eq
// - value 比较的数据
// - key 占位符的名字, 传入时 value 以 :key 参数绑定
func (f Fd) Eq(value any, key ...string) Leaf {
	return Leaf{Field: f, Op: "=", Value: f.arg(value, key)}
}

func (f Fd) NotEq(value any, key ...string) Leaf {
	return Leaf{Field: f, Op: "!=", Value: f.arg(value, key)}
}

func (f Fd) Neq(value any, key ...string) Leaf {
	return Leaf{Field: f, Op: "<>", Value: f.arg(value, key)}
}

func (f Fd) Gt(value any, key ...string) Leaf {
	return Leaf{Field: f, Op: ">", Value: f.arg(value, key)}
}

func (f Fd) Gte(value any, key ...string) Leaf {
	return Leaf{Field: f, Op: ">=", Value: f.arg(value, key)}
}

func (f Fd) Lt(value any, key ...string) Leaf {
	return Leaf{Field: f, Op: "<", Value: f.arg(value, key)}
}

func (f Fd) Lte(value any, key ...string) Leaf {
	return Leaf{Field: f, Op: "<=", Value: f.arg(value, key)}
}

// Like 模糊查询, value 中的 % 和 _ 会被转义
func (f Fd) Like(value string) Leaf {
	return Leaf{Field: f, Op: "%LIKE%", Value: value}
}

// StartsWith renders LIKE 'value%'.
func (f Fd) StartsWith(value string) Leaf {
	return Leaf{Field: f, Op: "LIKE%", Value: value}
}

// EndsWith renders LIKE '%value'.
func (f Fd) EndsWith(value string) Leaf {
	return Leaf{Field: f, Op: "%LIKE", Value: value}
}

func (f Fd) IsNull() Leaf {
	return Leaf{Field: f, Op: "=", Value: nil}
}

func (f Fd) IsNotNull() Leaf {
	return Leaf{Field: f, Op: "<>", Value: nil}
}

// In 传入 slice 或子查询 Raw(...)
func (f Fd) In(values any) Leaf {
	return Leaf{Field: f, Op: "IN", Value: values}
}

func (f Fd) NotIn(values any) Leaf {
	return Leaf{Field: f, Op: "NOT IN", Value: values}
}

func (f Fd) Desc() OrderItem {
	return OrderItem{Field: f, Dir: DESC}
}

func (f Fd) Asc() OrderItem {
	return OrderItem{Field: f, Dir: ASC}
}

// As 设置别名, 用于 select 列表
func (f Fd) As(label string) TableRef {
	return TableRef{Name: f, Alias: label}
}

func (f Fd) Distinct() Fd {
	return fn("DISTINCT(%s)", f)
}

func (f Fd) Count() Fd {
	return Count(f)
}

func (f Fd) Max() Fd {
	return Max(f)
}

func (f Fd) Min() Fd {
	return Min(f)
}

func (f Fd) Sum() Fd {
	return Sum(f)
}

// Mul 乘 整数或浮点小数
func (f Fd) Mul(value any) Fd {
	return fn("%s * %s", f, value)
}

// Add 加 值或字段
func (f Fd) Add(value any) Fd {
	return fn("%s + %s", f, value)
}

// Sub 减 值或字段
func (f Fd) Sub(value any) Fd {
	return fn("%s - %s", f, value)
}

// BeSub value 减去当前字段
func (f Fd) BeSub(value any) Fd {
	return fn("%s - %s", value, f)
}

// Div 除 值或字段
func (f Fd) Div(value any) Fd {
	return fn("%s / %s", f, value)
}
