package jsonschema

import (
	"bytes"

	j "github.com/goccy/go-json"
)

// Map is a JSON object that remembers key insertion order. Schema documents
// are decoded into Maps so that property declaration order survives decoding,
// reference resolution and re-encoding.
//
// Values are nil, bool, string, json.Number, []any or *Map.
type Map struct {
	keys []string
	vals map[string]any
}

// NewMap returns an empty ordered map.
func NewMap() *Map { return &Map{vals: map[string]any{}} }

// Set stores v under k. New keys are appended; existing keys keep their
// position. It reports whether k already existed.
func (m *Map) Set(k string, v any) bool {
	if m.vals == nil {
		m.vals = map[string]any{}
	}
	_, exists := m.vals[k]
	if !exists {
		m.keys = append(m.keys, k)
	}
	m.vals[k] = v
	return exists
}

// Get returns the value stored under k.
func (m *Map) Get(k string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.vals[k]
	return v, ok
}

// Has reports whether k is present.
func (m *Map) Has(k string) bool {
	_, ok := m.Get(k)
	return ok
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// Len returns the number of keys.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Clone returns a deep copy.
func (m *Map) Clone() *Map {
	if m == nil {
		return nil
	}
	out := &Map{keys: append([]string(nil), m.keys...), vals: make(map[string]any, len(m.vals))}
	for k, v := range m.vals {
		out.vals[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case *Map:
		return t.Clone()
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = cloneValue(t[i])
		}
		return arr
	default:
		return v
	}
}

// MarshalJSON writes the object with keys in insertion order. HTML characters
// are not escaped so the output matches the source text.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalIndent renders the map with the given indent.
func (m *Map) MarshalIndent(indent string) ([]byte, error) {
	compact, err := m.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := j.Indent(&out, compact, "", indent); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case *Map:
		if t == nil {
			buf.WriteString("null")
			return nil
		}
		buf.WriteByte('{')
		for i, k := range t.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := j.MarshalWithOption(k, j.DisableHTMLEscape())
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := writeValue(buf, t.vals[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case j.Number:
		buf.WriteString(t.String())
	default:
		b, err := j.MarshalWithOption(t, j.DisableHTMLEscape())
		if err != nil {
			return err
		}
		buf.Write(b)
	}
	return nil
}
