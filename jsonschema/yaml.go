package jsonschema

import (
	"fmt"
	"strconv"

	j "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// DecodeYAML parses a YAML schema document into an ordered Map. Mapping order
// is preserved and duplicate keys are rejected, matching Decode.
func DecodeYAML(data []byte) (*Map, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("jsonschema: invalid YAML: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, ErrNotObject
	}
	v, err := yamlValue(doc.Content[0], "")
	if err != nil {
		return nil, err
	}
	root, ok := v.(*Map)
	if !ok {
		return nil, ErrNotObject
	}
	return root, nil
}

func yamlValue(n *yaml.Node, path string) (any, error) {
	switch n.Kind {
	case yaml.MappingNode:
		m := NewMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			kn, vn := n.Content[i], n.Content[i+1]
			if kn.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("jsonschema: non-scalar key at %s (line %d)", pointerOrRoot(path), kn.Line)
			}
			child := path + "/" + escapePointer(kn.Value)
			if m.Has(kn.Value) {
				return nil, fmt.Errorf("%w: %s (line %d)", ErrDuplicateKey, child, kn.Line)
			}
			v, err := yamlValue(vn, child)
			if err != nil {
				return nil, err
			}
			m.Set(kn.Value, v)
		}
		return m, nil
	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for i, c := range n.Content {
			v, err := yamlValue(c, path+"/"+strconv.Itoa(i))
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, fmt.Errorf("jsonschema: dangling alias at %s", pointerOrRoot(path))
		}
		return yamlValue(n.Alias, path)
	case yaml.ScalarNode:
		return yamlScalar(n, path)
	}
	return nil, fmt.Errorf("jsonschema: unsupported YAML node at %s (line %d)", pointerOrRoot(path), n.Line)
}

func yamlScalar(n *yaml.Node, path string) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fmt.Errorf("jsonschema: %s: %w", pointerOrRoot(path), err)
		}
		return b, nil
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, fmt.Errorf("jsonschema: %s: %w", pointerOrRoot(path), err)
		}
		if _, err := strconv.ParseFloat(n.Value, 64); err == nil {
			return j.Number(n.Value), nil
		}
		return j.Number(strconv.FormatFloat(f, 'g', -1, 64)), nil
	default:
		return n.Value, nil
	}
}
