package jsonschema

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	j "github.com/goccy/go-json"
)

// ErrNoProperties is returned when a record schema has no properties map.
var ErrNoProperties = errors.New("jsonschema: schema has no properties")

// Schema is the typed view of a resolved schema node. Only the keywords used
// by record schemas are projected; Source keeps the full node.
type Schema struct {
	// Core
	Type        string `json:"type,omitempty"`
	Nullable    bool   `json:"-"` // type listed "null" alongside Type
	Format      string `json:"format,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Default     any    `json:"default,omitempty"`
	HasDefault  bool   `json:"-"`

	// Object
	Properties           []Property   `json:"-"` // declaration order; nil when absent
	Required             []string     `json:"required,omitempty"`
	AdditionalProperties *bool        `json:"additionalProperties,omitempty"`
	Dependencies         []Dependency `json:"-"`

	// Scalar constraints
	Enum             []any    `json:"enum,omitempty"`
	Const            any      `json:"const,omitempty"`
	HasConst         bool     `json:"-"`
	Pattern          string   `json:"pattern,omitempty"`
	MinLength        *int     `json:"minLength,omitempty"`
	MaxLength        *int     `json:"maxLength,omitempty"`
	Minimum          *float64 `json:"minimum,omitempty"`
	Maximum          *float64 `json:"maximum,omitempty"`
	ExclusiveMinimum *float64 `json:"exclusiveMinimum,omitempty"`
	ExclusiveMaximum *float64 `json:"exclusiveMaximum,omitempty"`

	// DeclaredMinimum and DeclaredMaximum keep the minimum and maximum
	// keywords as written, before draft-04 exclusive flags move them.
	DeclaredMinimum *float64 `json:"-"`
	DeclaredMaximum *float64 `json:"-"`

	// Composition
	Not   *Schema   `json:"-"`
	AllOf []*Schema `json:"-"`
	AnyOf []*Schema `json:"-"`
	OneOf []*Schema `json:"-"`
	If    *Schema   `json:"-"`
	Then  *Schema   `json:"-"`
	Else  *Schema   `json:"-"`

	// IgnoreCase is the x-ignoreCase extension: string matching against Enum
	// or Const folds case.
	IgnoreCase bool `json:"-"`

	// Source is the node this schema was parsed from.
	Source *Map `json:"-"`
}

// Property is one named entry of a properties map.
type Property struct {
	Name   string
	Schema *Schema
}

// Dependency is one entry of the dependencies keyword. Either Requires (a
// property dependency) or Schema (a schema dependency) is set.
type Dependency struct {
	Property string
	Requires []string
	Schema   *Schema
}

// Property returns the schema of the named property.
func (s *Schema) Property(name string) (*Schema, bool) {
	for _, p := range s.Properties {
		if p.Name == name {
			return p.Schema, true
		}
	}
	return nil, false
}

// HasProperties reports whether the properties keyword was present.
func (s *Schema) HasProperties() bool { return s.Properties != nil }

// IsRequired reports whether name is listed in required.
func (s *Schema) IsRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// Parse projects a resolved document into a Schema. Any $ref still present is
// an error; call Resolve first.
func Parse(m *Map) (*Schema, error) {
	if m == nil {
		return nil, ErrNotObject
	}
	return parseNode(m, "")
}

// ParseDocument decodes, resolves and parses a JSON document in one step.
func ParseDocument(data []byte, opts ResolveOptions) (*Schema, *Map, error) {
	root, err := Decode(data)
	if err != nil {
		return nil, nil, err
	}
	resolved, err := Resolve(root, opts)
	if err != nil {
		return nil, nil, err
	}
	s, err := Parse(resolved)
	if err != nil {
		return nil, nil, err
	}
	return s, resolved, nil
}

func parseNode(m *Map, path string) (*Schema, error) {
	s := &Schema{Source: m}
	var draft4ExMin, draft4ExMax bool
	for _, k := range m.keys {
		v := m.vals[k]
		at := path + "/" + escapePointer(k)
		var err error
		switch k {
		case "$ref":
			return nil, fmt.Errorf("%w: %s left in resolved schema at %s", ErrUnresolvedRef, v, pointerOrRoot(path))
		case "type":
			err = s.parseType(v, at)
		case "format":
			s.Format, err = asString(v, at)
		case "title":
			s.Title, err = asString(v, at)
		case "description":
			s.Description, err = asString(v, at)
		case "default":
			s.Default, s.HasDefault = plain(v), true
		case "properties":
			err = s.parseProperties(v, at)
		case "required":
			s.Required, err = asStrings(v, at)
		case "additionalProperties":
			if b, ok := v.(bool); ok {
				s.AdditionalProperties = &b
			}
		case "dependencies":
			err = s.parseDependencies(v, at)
		case "enum":
			arr, ok := v.([]any)
			if !ok {
				return nil, fmt.Errorf("jsonschema: %s: expected array", at)
			}
			s.Enum = plainSlice(arr)
		case "const":
			s.Const, s.HasConst = plain(v), true
		case "pattern":
			s.Pattern, err = asString(v, at)
		case "minLength":
			s.MinLength, err = asIntPtr(v, at)
		case "maxLength":
			s.MaxLength, err = asIntPtr(v, at)
		case "minimum":
			s.Minimum, err = asFloatPtr(v, at)
		case "maximum":
			s.Maximum, err = asFloatPtr(v, at)
		case "exclusiveMinimum":
			if b, ok := v.(bool); ok {
				draft4ExMin = b
				break
			}
			s.ExclusiveMinimum, err = asFloatPtr(v, at)
		case "exclusiveMaximum":
			if b, ok := v.(bool); ok {
				draft4ExMax = b
				break
			}
			s.ExclusiveMaximum, err = asFloatPtr(v, at)
		case "not":
			s.Not, err = parseChild(v, at)
		case "allOf":
			s.AllOf, err = parseChildren(v, at)
		case "anyOf":
			s.AnyOf, err = parseChildren(v, at)
		case "oneOf":
			s.OneOf, err = parseChildren(v, at)
		case "if":
			s.If, err = parseChild(v, at)
		case "then":
			s.Then, err = parseChild(v, at)
		case "else":
			s.Else, err = parseChild(v, at)
		case "x-ignoreCase":
			s.IgnoreCase, _ = v.(bool)
		}
		if err != nil {
			return nil, err
		}
	}
	s.DeclaredMinimum, s.DeclaredMaximum = s.Minimum, s.Maximum
	// draft-04: boolean exclusive flags turn the plain bound exclusive
	if draft4ExMin && s.Minimum != nil {
		s.ExclusiveMinimum, s.Minimum = s.Minimum, nil
	}
	if draft4ExMax && s.Maximum != nil {
		s.ExclusiveMaximum, s.Maximum = s.Maximum, nil
	}
	return s, nil
}

func (s *Schema) parseType(v any, at string) error {
	switch t := v.(type) {
	case string:
		s.Type = t
		return nil
	case []any:
		for _, e := range t {
			name, ok := e.(string)
			if !ok {
				return fmt.Errorf("jsonschema: %s: expected type names", at)
			}
			if name == "null" {
				s.Nullable = true
				continue
			}
			if s.Type == "" {
				s.Type = name
			}
		}
		return nil
	}
	return fmt.Errorf("jsonschema: %s: expected string or array", at)
}

func (s *Schema) parseProperties(v any, at string) error {
	pm, ok := v.(*Map)
	if !ok {
		return fmt.Errorf("jsonschema: %s: expected object", at)
	}
	s.Properties = make([]Property, 0, pm.Len())
	for _, name := range pm.keys {
		child, err := parseChild(pm.vals[name], at+"/"+escapePointer(name))
		if err != nil {
			return err
		}
		s.Properties = append(s.Properties, Property{Name: name, Schema: child})
	}
	return nil
}

func (s *Schema) parseDependencies(v any, at string) error {
	dm, ok := v.(*Map)
	if !ok {
		return fmt.Errorf("jsonschema: %s: expected object", at)
	}
	for _, name := range dm.keys {
		child := at + "/" + escapePointer(name)
		switch t := dm.vals[name].(type) {
		case []any:
			req, err := asStrings(t, child)
			if err != nil {
				return err
			}
			s.Dependencies = append(s.Dependencies, Dependency{Property: name, Requires: req})
		case *Map:
			sub, err := parseNode(t, child)
			if err != nil {
				return err
			}
			s.Dependencies = append(s.Dependencies, Dependency{Property: name, Schema: sub})
		default:
			return fmt.Errorf("jsonschema: %s: expected array or object", child)
		}
	}
	return nil
}

func parseChild(v any, at string) (*Schema, error) {
	switch t := v.(type) {
	case *Map:
		return parseNode(t, at)
	case bool:
		// true accepts everything; false is modelled as "not {}".
		if t {
			return &Schema{Source: NewMap()}, nil
		}
		return &Schema{Not: &Schema{Source: NewMap()}, Source: NewMap()}, nil
	}
	return nil, fmt.Errorf("jsonschema: %s: expected schema object", at)
}

func parseChildren(v any, at string) ([]*Schema, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("jsonschema: %s: expected array", at)
	}
	out := make([]*Schema, 0, len(arr))
	for i, e := range arr {
		c, err := parseChild(e, at+"/"+strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func asString(v any, at string) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("jsonschema: %s: expected string", at)
	}
	return s, nil
}

func asStrings(v any, at string) ([]string, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("jsonschema: %s: expected array of strings", at)
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		s, ok := e.(string)
		if !ok {
			return nil, fmt.Errorf("jsonschema: %s: expected array of strings", at)
		}
		out = append(out, s)
	}
	return out, nil
}

func asFloatPtr(v any, at string) (*float64, error) {
	n, ok := v.(j.Number)
	if !ok {
		return nil, fmt.Errorf("jsonschema: %s: expected number", at)
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("jsonschema: %s: %w", at, err)
	}
	return &f, nil
}

func asIntPtr(v any, at string) (*int, error) {
	f, err := asFloatPtr(v, at)
	if err != nil {
		return nil, err
	}
	if *f < 0 || *f != math.Trunc(*f) {
		return nil, fmt.Errorf("jsonschema: %s: expected non-negative integer", at)
	}
	i := int(*f)
	return &i, nil
}

// plain converts decoded values into plain Go values: json.Number becomes
// float64 (or int64 when integral) and Maps become map[string]any.
func plain(v any) any {
	switch t := v.(type) {
	case j.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case *Map:
		out := make(map[string]any, t.Len())
		for _, k := range t.keys {
			out[k] = plain(t.vals[k])
		}
		return out
	case []any:
		return plainSlice(t)
	default:
		return v
	}
}

func plainSlice(arr []any) []any {
	out := make([]any, len(arr))
	for i := range arr {
		out[i] = plain(arr[i])
	}
	return out
}
