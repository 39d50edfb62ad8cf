package builder

import (
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/preceeder/go.db.sqlkit/dberr"
)

// DecodeYAML decodes a YAML or JSON document into the literal shapes the
// compilers accept. Mappings become Map with their key order kept, sequences
// become List. Integer keys are positions: a mapping with only integer keys is
// a List (missing positions are nil), otherwise integer keys mark unkeyed
// entries, so {status: active, 0: OR} reads as Map{{"status", "active"}, {"", "OR"}}.
//
// Two local tags are understood: !raw makes an Expr and !param a parameter marker.
func DecodeYAML(data []byte) (any, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(dberr.ErrInvalidSpec, err.Error())
	}
	if root.Kind == 0 {
		return nil, nil
	}
	return decodeNode(&root)
}

func decodeNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return decodeNode(n.Content[0])
	case yaml.AliasNode:
		return decodeNode(n.Alias)
	case yaml.SequenceNode:
		out := make(List, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := decodeNode(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		return decodeMapping(n)
	case yaml.ScalarNode:
		return decodeScalar(n)
	}
	return nil, dberr.Spec(dberr.ErrInvalidSpec, "unsupported yaml node kind %d at line %d", n.Kind, n.Line)
}

func decodeMapping(n *yaml.Node) (any, error) {
	m := make(Map, 0, len(n.Content)/2)
	positions := make([]int, 0, len(n.Content)/2)
	allPositional := true
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, vn := n.Content[i], n.Content[i+1]
		v, err := decodeNode(vn)
		if err != nil {
			return nil, err
		}
		if k.Kind == yaml.ScalarNode && k.ShortTag() == "!!int" {
			pos, err := strconv.Atoi(k.Value)
			// a position past the entry count would only pad the list with nils
			if err != nil || pos < 0 || pos > len(n.Content)/2 {
				return nil, dberr.Spec(dberr.ErrInvalidSpec, "invalid position %q at line %d", k.Value, k.Line)
			}
			positions = append(positions, pos)
			m = append(m, Entry{Value: v})
			continue
		}
		if k.Kind != yaml.ScalarNode {
			return nil, dberr.Spec(dberr.ErrInvalidSpec, "mapping keys must be scalars (line %d)", k.Line)
		}
		allPositional = false
		m = append(m, Entry{Key: k.Value, Value: v})
	}
	if !allPositional || len(m) == 0 {
		return m, nil
	}
	size := 0
	for _, p := range positions {
		if p+1 > size {
			size = p + 1
		}
	}
	list := make(List, size)
	for i, p := range positions {
		list[p] = m[i].Value
	}
	return list, nil
}

func decodeScalar(n *yaml.Node) (any, error) {
	switch n.Tag {
	case "!raw":
		return Raw(n.Value), nil
	case "!param":
		return Param(n.Value), nil
	}
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		err := n.Decode(&b)
		return b, errors.WithStack(err)
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, errors.Wrap(dberr.ErrInvalidSpec, err.Error())
		}
		return i, nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, errors.Wrap(dberr.ErrInvalidSpec, err.Error())
		}
		return f, nil
	case "!!timestamp":
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, errors.Wrap(dberr.ErrInvalidSpec, err.Error())
		}
		return v, nil
	}
	return n.Value, nil
}
