// Package fields extracts ordered column descriptors from a resolved record
// schema. The descriptor list is the single source the artifact derivers
// project from, so every artifact sees the same names, types and
// required-ness.
package fields

import (
	"fmt"
	"strings"

	"github.com/reoring/wqschema/jsonschema"
)

// Constraints is the subset of validation keywords copied into descriptors.
type Constraints struct {
	MinLength *int
	MaxLength *int
	Minimum   *float64
	Maximum   *float64
	Pattern   string
	Enum      []any
}

// FieldDescriptor describes one record column.
type FieldDescriptor struct {
	Name        string
	Title       string
	Description string
	Type        string
	// Format is the presentation format: "date-time" is normalized to
	// "datetime". The validator uses the schema's own format.
	Format string
	// SchemaFormat is the format exactly as declared.
	SchemaFormat string
	Required     bool
	Default      any
	HasDefault   bool
	Constraints  Constraints
}

// IsDate reports whether the column holds a calendar date or timestamp.
func (f FieldDescriptor) IsDate() bool {
	return f.SchemaFormat == "date" || f.SchemaFormat == "date-time"
}

// Extract walks the root properties in declaration order. A schema without a
// properties map is a configuration error.
func Extract(s *jsonschema.Schema) ([]FieldDescriptor, error) {
	if s == nil || !s.HasProperties() {
		return nil, jsonschema.ErrNoProperties
	}
	required := make(map[string]struct{}, len(s.Required))
	for _, r := range s.Required {
		required[r] = struct{}{}
	}
	out := make([]FieldDescriptor, 0, len(s.Properties))
	seen := make(map[string]struct{}, len(s.Properties))
	for _, p := range s.Properties {
		if _, dup := seen[p.Name]; dup {
			return nil, fmt.Errorf("fields: duplicate property %q", p.Name)
		}
		seen[p.Name] = struct{}{}
		out = append(out, describe(p, required))
	}
	return out, nil
}

func describe(p jsonschema.Property, required map[string]struct{}) FieldDescriptor {
	ps := p.Schema
	fd := FieldDescriptor{
		Name:         p.Name,
		Title:        ps.Title,
		Description:  ps.Description,
		Type:         ps.Type,
		Format:       presentationFormat(ps.Format),
		SchemaFormat: ps.Format,
		Default:      ps.Default,
		HasDefault:   ps.HasDefault,
		Constraints: Constraints{
			MinLength: ps.MinLength,
			MaxLength: ps.MaxLength,
			Minimum:   ps.DeclaredMinimum,
			Maximum:   ps.DeclaredMaximum,
			Pattern:   ps.Pattern,
			Enum:      ps.Enum,
		},
	}
	_, fd.Required = required[p.Name]
	return fd
}

func presentationFormat(f string) string {
	if f == "date-time" {
		return strings.Replace(f, "-", "", 1)
	}
	return f
}

// Names returns the field names in order.
func Names(fs []FieldDescriptor) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Name
	}
	return out
}

// RequiredNames returns the names of required fields in declaration order.
func RequiredNames(fs []FieldDescriptor) []string {
	var out []string
	for _, f := range fs {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}
