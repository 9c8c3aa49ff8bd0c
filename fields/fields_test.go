package fields_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/wqschema/fields"
	"github.com/reoring/wqschema/jsonschema"
)

func parse(t *testing.T, doc string) *jsonschema.Schema {
	t.Helper()
	s, _, err := jsonschema.ParseDocument([]byte(doc), jsonschema.ResolveOptions{})
	require.NoError(t, err)
	return s
}

func TestExtract(t *testing.T) {
	s := parse(t, `{
		"properties": {
			"ResultValue": {"title": "Result Value", "type": "number", "minimum": 0},
			"ActivityStartDate": {"type": "string", "format": "date"},
			"LoggedAt": {"type": "string", "format": "date-time"},
			"ResultValueType": {"type": "string", "enum": ["Actual", "Estimated"], "default": "Actual"},
			"Comment": {"type": "string", "maxLength": 4000, "pattern": "^[^<]*$"}
		},
		"required": ["ActivityStartDate", "ResultValue"]
	}`)
	fs, err := fields.Extract(s)
	require.NoError(t, err)

	assert.Equal(t, []string{"ResultValue", "ActivityStartDate", "LoggedAt", "ResultValueType", "Comment"}, fields.Names(fs))
	assert.Equal(t, []string{"ResultValue", "ActivityStartDate"}, fields.RequiredNames(fs))

	rv := fs[0]
	assert.Equal(t, "Result Value", rv.Title)
	assert.Equal(t, "number", rv.Type)
	require.NotNil(t, rv.Constraints.Minimum)
	assert.Equal(t, 0.0, *rv.Constraints.Minimum)
	assert.False(t, rv.IsDate())

	assert.True(t, fs[1].IsDate())
	assert.Equal(t, "date", fs[1].Format)

	assert.Equal(t, "datetime", fs[2].Format)
	assert.Equal(t, "date-time", fs[2].SchemaFormat)
	assert.True(t, fs[2].IsDate())

	assert.True(t, fs[3].HasDefault)
	assert.Equal(t, "Actual", fs[3].Default)
	assert.Equal(t, []any{"Actual", "Estimated"}, fs[3].Constraints.Enum)

	require.NotNil(t, fs[4].Constraints.MaxLength)
	assert.Equal(t, 4000, *fs[4].Constraints.MaxLength)
	assert.Equal(t, "^[^<]*$", fs[4].Constraints.Pattern)
	assert.False(t, fs[4].Required)
}

func TestExtract_Draft4ExclusiveBoundsKeepDeclaredValues(t *testing.T) {
	s := parse(t, `{"properties": {"pH": {"type": "number", "minimum": 0, "exclusiveMinimum": true, "maximum": 14, "exclusiveMaximum": true}}}`)
	fs, err := fields.Extract(s)
	require.NoError(t, err)
	c := fs[0].Constraints
	require.NotNil(t, c.Minimum)
	require.NotNil(t, c.Maximum)
	assert.Equal(t, 0.0, *c.Minimum)
	assert.Equal(t, 14.0, *c.Maximum)

	ph, _ := s.Property("pH")
	assert.Nil(t, ph.Minimum, "validation uses the exclusive bound")
	require.NotNil(t, ph.ExclusiveMinimum)
	assert.Equal(t, 0.0, *ph.ExclusiveMinimum)
}

func TestExtract_NoProperties(t *testing.T) {
	_, err := fields.Extract(parse(t, `{"type": "object", "required": ["a"]}`))
	assert.True(t, errors.Is(err, jsonschema.ErrNoProperties))

	_, err = fields.Extract(nil)
	assert.True(t, errors.Is(err, jsonschema.ErrNoProperties))

	fs, err := fields.Extract(parse(t, `{"properties": {}}`))
	require.NoError(t, err)
	assert.Empty(t, fs)
}
