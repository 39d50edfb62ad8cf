package builder

import (
	"reflect"

	"github.com/preceeder/go.db.sqlkit/dberr"
)

// SetExpression 表示 UPDATE 语句中 SET 子句右侧的自定义表达式。
// 表达式原样输出, params 为表达式中 :name 占位符对应的参数, 由 CollectArgs 收集。
// 例如：SetExpr("`amount` - :n", map[string]any{"n": 2}) -> `amount` = `amount` - :n
type SetExpression struct {
	expr   string
	params map[string]any
}

// SetExpr 创建一个 SetExpression。
func SetExpr(expr string, params map[string]any) SetExpression {
	if params == nil {
		params = map[string]any{}
	}
	return SetExpression{
		expr:   expr,
		params: params,
	}
}

func (s SetExpression) String() string {
	return s.expr
}

// Named is a value bound through a :name marker instead of being inlined.
type Named struct {
	Name  string
	Value any
}

// Arg creates a Named value.
func Arg(name string, value any) Named {
	return Named{Name: name, Value: value}
}

// CollectArgs walks condition, record and expression specs and returns every
// Named value and SetExpression parameter keyed by marker name. A name bound
// twice to different values is an ErrInvalidSpec.
func CollectArgs(specs ...any) (map[string]any, error) {
	out := map[string]any{}
	for _, s := range specs {
		if err := collectArgs(s, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func bindArg(out map[string]any, name string, value any) error {
	if prev, ok := out[name]; ok && !reflect.DeepEqual(prev, value) {
		return dberr.Spec(dberr.ErrInvalidSpec, "conflicting values for :%s: %v and %v", name, prev, value)
	}
	out[name] = value
	return nil
}

func collectArgs(x any, out map[string]any) error {
	switch v := x.(type) {
	case nil:
		return nil
	case Named:
		return bindArg(out, v.Name, v.Value)
	case SetExpression:
		for k, p := range v.params {
			if err := bindArg(out, k, p); err != nil {
				return err
			}
		}
		return nil
	case Leaf:
		return collectAll(out, v.Field, v.Value)
	case Group:
		return collectAll(out, v.Items...)
	case Fd:
		return collectAll(out, v.args...)
	case OrderItem:
		return collectArgs(v.Field, out)
	case TableRef:
		return collectArgs(v.Name, out)
	case Join:
		return collectAll(out, v.Table, v.On)
	case Entry:
		return collectArgs(v.Value, out)
	case Map:
		for _, e := range v {
			if err := collectArgs(e.Value, out); err != nil {
				return err
			}
		}
		return nil
	case Select:
		return collectAll(out, v.Columns, v.From, v.Where, v.Having)
	case map[string]any:
		for _, e := range v {
			if err := collectArgs(e, out); err != nil {
				return err
			}
		}
		return nil
	default:
		if items, ok := sequence(x); ok {
			return collectAll(out, items...)
		}
		return nil
	}
}

func collectAll[T any](out map[string]any, xs ...T) error {
	for _, x := range xs {
		if err := collectArgs(x, out); err != nil {
			return err
		}
	}
	return nil
}
