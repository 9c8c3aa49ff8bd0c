package artifact

import (
	"fmt"

	j "github.com/goccy/go-json"

	"github.com/reoring/wqschema/fields"
)

// TableField is one entry of the table schema descriptor.
type TableField struct {
	Name        string           `json:"name"`
	Title       string           `json:"title,omitempty"`
	Description string           `json:"description,omitempty"`
	Type        string           `json:"type,omitempty"`
	Constraints TableConstraints `json:"constraints"`
	Format      string           `json:"format,omitempty"`
}

// TableConstraints mirrors the descriptor's constraints. Required is true or
// null, never false.
type TableConstraints struct {
	Required  *bool    `json:"required"`
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
	Minimum   *float64 `json:"minimum,omitempty"`
	Maximum   *float64 `json:"maximum,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
	Enum      []any    `json:"enum,omitempty"`
}

// TableSchema is the descriptor document.
type TableSchema struct {
	Fields []TableField `json:"fields"`
}

// NewTableSchema builds the descriptor for fs.
func NewTableSchema(fs []fields.FieldDescriptor) TableSchema {
	out := TableSchema{Fields: make([]TableField, 0, len(fs))}
	yes := true
	for _, f := range fs {
		tf := TableField{
			Name:        f.Name,
			Title:       f.Title,
			Description: f.Description,
			Type:        f.Type,
			Format:      f.Format,
			Constraints: TableConstraints{
				MinLength: f.Constraints.MinLength,
				MaxLength: f.Constraints.MaxLength,
				Minimum:   f.Constraints.Minimum,
				Maximum:   f.Constraints.Maximum,
				Pattern:   f.Constraints.Pattern,
				Enum:      f.Constraints.Enum,
			},
		}
		if f.Required {
			tf.Constraints.Required = &yes
		}
		out.Fields = append(out.Fields, tf)
	}
	return out
}

// EncodeTableSchema renders the descriptor for fs as JSON indented with two
// spaces.
func EncodeTableSchema(fs []fields.FieldDescriptor) ([]byte, error) {
	b, err := j.MarshalIndentWithOption(NewTableSchema(fs), "", "  ", j.DisableHTMLEscape())
	if err != nil {
		return nil, fmt.Errorf("artifact: table schema: %w", err)
	}
	return b, nil
}
