package builder

import (
	"reflect"
	"sort"

	"github.com/duke-git/lancet/v2/maputil"
)

// Entry is one member of an ordered Map. An empty Key marks an unkeyed entry.
type Entry struct {
	Key   string
	Value any
}

// Map is an ordered keyed mapping, the literal front-end for condition,
// order, join and record shapes that need both keys and positions.
//
//	Map{{"status", "active"}, {"age", List{">=", 18}}}
type Map []Entry

// List is an ordered sequence of items.
type List []any

// Composite holds operands that could not be flattened into one shape.
// Each element is rendered on its own and the results are joined.
type Composite []any

// MapOf converts a Go map into a Map with keys sorted, so rendering stays deterministic.
func MapOf(m map[string]any) Map {
	keys := maputil.Keys(m)
	sort.Strings(keys)
	out := make(Map, 0, len(keys))
	for _, k := range keys {
		out = append(out, Entry{Key: k, Value: m[k]})
	}
	return out
}

// Get returns the value of the first entry keyed k.
func (m Map) Get(k string) (any, bool) {
	for _, e := range m {
		if e.Key != "" && e.Key == k {
			return e.Value, true
		}
	}
	return nil, false
}

// Keys returns the keyed entries' keys in order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for _, e := range m {
		if e.Key != "" {
			keys = append(keys, e.Key)
		}
	}
	return keys
}

// asMap reports whether x is a keyed mapping and returns it as a Map.
func asMap(x any) (Map, bool) {
	switch v := x.(type) {
	case Map:
		return v, true
	case map[string]any:
		return MapOf(v), true
	case map[string]string:
		m := make(map[string]any, len(v))
		for k, s := range v {
			m[k] = s
		}
		return MapOf(m), true
	}
	return nil, false
}

// isEmpty reports whether x acts as the identity of the merge operations:
// nil, booleans, the empty string and empty containers.
func isEmpty(x any) bool {
	switch v := x.(type) {
	case nil:
		return true
	case bool, Always:
		return true
	case string:
		return v == ""
	case Map:
		return len(v) == 0
	case List:
		return len(v) == 0
	case Composite:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	case []any:
		return len(v) == 0
	case Expr:
		return v.text == ""
	}
	switch rv := reflect.ValueOf(x); rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	}
	return false
}
