// Package oyaml decodes YAML with order-preserving mappings.
//
// The stock decoder loads mappings into Go maps, losing declaration order.
// Load and LoadAll walk the yaml.v3 node tree instead and return Map values,
// ordered key/value pair slices, for every mapping encountered.
package oyaml

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Item is one key/value pair of a Map.
type Item struct {
	Key   any
	Value any
}

// Map is a YAML mapping with declaration order preserved.
type Map []Item

// Get returns the value for key and whether it is present.
func (m Map) Get(key any) (any, bool) {
	for _, it := range m {
		if it.Key == key {
			return it.Value, true
		}
	}
	return nil, false
}

// Keys returns the mapping keys in declaration order.
func (m Map) Keys() []any {
	keys := make([]any, len(m))
	for i, it := range m {
		keys[i] = it.Key
	}
	return keys
}

// MarshalYAML renders the Map as a mapping node in declaration order, so a
// loaded document round-trips with its ordering intact.
func (m Map) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, it := range m {
		var k, v yaml.Node
		if err := k.Encode(it.Key); err != nil {
			return nil, err
		}
		if err := v.Encode(it.Value); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &k, &v)
	}
	return node, nil
}

// Load decodes the first YAML document in data.
func Load(data []byte) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	return convert(doc.Content[0])
}

// LoadAll decodes every YAML document in data.
func LoadAll(data []byte) ([]any, error) {
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	var out []any
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if doc.Kind == 0 || len(doc.Content) == 0 {
			out = append(out, nil)
			continue
		}
		v, err := convert(doc.Content[0])
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

func convert(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return convert(n.Alias)
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := convert(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		return convertMapping(n)
	default:
		return nil, fmt.Errorf("line %d: unsupported node kind %d", n.Line, n.Kind)
	}
}

func convertMapping(n *yaml.Node) (Map, error) {
	out := make(Map, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valueNode := n.Content[i], n.Content[i+1]
		key, err := convert(keyNode)
		if err != nil {
			return nil, err
		}
		switch key.(type) {
		case Map, []any:
			return nil, fmt.Errorf("line %d: unacceptable mapping key of type %T", keyNode.Line, key)
		}
		value, err := convert(valueNode)
		if err != nil {
			return nil, err
		}
		// Later duplicates overwrite in place, keeping the first position.
		replaced := false
		for j := range out {
			if out[j].Key == key {
				out[j].Value = value
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, Item{Key: key, Value: value})
		}
	}
	return out, nil
}
