package rules_test

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wqschema "github.com/reoring/wqschema"
	"github.com/reoring/wqschema/jsonschema"
	"github.com/reoring/wqschema/rules"
)

func build(t *testing.T, doc string) rules.Table {
	t.Helper()
	s, _, err := jsonschema.ParseDocument([]byte(doc), jsonschema.ResolveOptions{})
	require.NoError(t, err)
	tbl, err := rules.Build(s)
	require.NoError(t, err)
	return tbl
}

func TestTrigger_Fires(t *testing.T) {
	tr := rules.NewTrigger("CharacteristicName", []string{"pH"}, false)
	assert.True(t, tr.Fires(wqschema.Record{"CharacteristicName": "pH"}))
	assert.False(t, tr.Fires(wqschema.Record{"CharacteristicName": "PH"}))
	assert.False(t, tr.Fires(wqschema.Record{}))
	assert.False(t, tr.Fires(wqschema.Record{"CharacteristicName": 7}))

	fold := rules.NewTrigger("ResultUnit", []string{"deg c", "deg f"}, true)
	assert.True(t, fold.Fires(wqschema.Record{"ResultUnit": "deg C"}))
	assert.True(t, fold.Fires(wqschema.Record{"ResultUnit": "DEG F"}))
	assert.False(t, fold.Fires(wqschema.Record{"ResultUnit": "mg/L"}))

	re := rules.Trigger{Field: "ActivityType", Regexp: regexp.MustCompile("^Sample-")}
	assert.True(t, re.Fires(wqschema.Record{"ActivityType": "Sample-Routine"}))
	assert.False(t, re.Fires(wqschema.Record{"ActivityType": "Field Msr/Obs"}))

	always := rules.Trigger{}
	assert.True(t, always.Fires(nil))

	neg := rules.NewTrigger("a", []string{"x"}, false)
	neg.Negate = true
	assert.False(t, neg.Fires(wqschema.Record{"a": "x"}))
	assert.True(t, neg.Fires(wqschema.Record{"a": "y"}))
}

func TestTrigger_LiteralValues(t *testing.T) {
	tr := rules.Trigger{Field: "CharacteristicName", Values: []string{"pH", "Temperature, water"}}
	assert.True(t, tr.Fires(wqschema.Record{"CharacteristicName": "pH"}))
	assert.True(t, tr.Fires(wqschema.Record{"CharacteristicName": "Temperature, water"}))
	assert.False(t, tr.Fires(wqschema.Record{"CharacteristicName": "PH"}))
	assert.False(t, tr.Fires(wqschema.Record{}))

	tr.Negate = true
	assert.False(t, tr.Fires(wqschema.Record{"CharacteristicName": "pH"}))
	assert.True(t, tr.Fires(wqschema.Record{"CharacteristicName": "Hardness"}))

	fold := rules.Trigger{Field: "ResultUnit", Values: []string{"deg C"}, Fold: true}
	assert.True(t, fold.Fires(wqschema.Record{"ResultUnit": "DEG c"}))
	assert.False(t, fold.Fires(wqschema.Record{"ResultUnit": "deg F"}))

	tbl := rules.NewTable(rules.Rule{
		Name:    "literal",
		Trigger: rules.Trigger{Field: "CharacteristicName", Values: []string{"pH"}},
		Consequences: []rules.Consequence{
			{Field: "ResultValue", Constraint: rules.Constraint{Kind: rules.Maximum, Limit: 14}},
		},
	})
	errs := tbl.Evaluate(wqschema.Record{"CharacteristicName": "pH", "ResultValue": 15.0})
	require.Len(t, errs, 1)
	assert.True(t, errs.Has(wqschema.KeywordMaximum, "/ResultValue"))
	assert.Empty(t, tbl.Evaluate(wqschema.Record{"CharacteristicName": "Hardness", "ResultValue": 15.0}))
}

func TestConstraint_Bounds(t *testing.T) {
	ref := wqschema.Root().Field("ResultValue")
	cases := []struct {
		c    rules.Constraint
		v    any
		fail bool
	}{
		{rules.Constraint{Kind: rules.Minimum, Limit: 0}, 0.0, false},
		{rules.Constraint{Kind: rules.Minimum, Limit: 0}, -0.1, true},
		{rules.Constraint{Kind: rules.ExclusiveMinimum, Limit: 0}, 0.0, true},
		{rules.Constraint{Kind: rules.Maximum, Limit: 14}, 14, false},
		{rules.Constraint{Kind: rules.Maximum, Limit: 14}, int64(15), true},
		{rules.Constraint{Kind: rules.ExclusiveMaximum, Limit: 10000}, 10000.0, true},
		{rules.Constraint{Kind: rules.ExclusiveMaximum, Limit: 10000}, 9999.99, false},
		// wrong type is the type check's business
		{rules.Constraint{Kind: rules.Maximum, Limit: 14}, "fifteen", false},
	}
	for _, tc := range cases {
		e, failed := tc.c.Check(ref, tc.v, true)
		assert.Equal(t, tc.fail, failed, "%s %v", tc.c.Kind, tc.v)
		if failed {
			assert.Equal(t, tc.c.Kind.String(), e.Keyword)
			assert.Equal(t, "/ResultValue", e.Path)
			assert.Equal(t, tc.c.Limit, e.Param("limit"))
		}
	}
	_, failed := rules.Constraint{Kind: rules.Minimum}.Check(ref, nil, false)
	assert.False(t, failed, "missing fields pass value checks")
}

func TestConstraint_EnumAndRequired(t *testing.T) {
	ref := wqschema.Root().Field("ResultUnit")
	not := rules.Constraint{Kind: rules.NotEnum, Values: []any{"%"}}
	e, failed := not.Check(ref, "%", true)
	require.True(t, failed)
	assert.Equal(t, wqschema.KeywordEnum, e.Keyword)
	assert.Equal(t, []any{"%"}, e.Param("disallowedValues"))

	enum := rules.Constraint{Kind: rules.Enum, Values: []any{"deg C"}, Fold: true}
	_, failed = enum.Check(ref, "DEG c", true)
	assert.False(t, failed)

	num := rules.Constraint{Kind: rules.Enum, Values: []any{int64(1), 2.5}}
	_, failed = num.Check(ref, 1.0, true)
	assert.False(t, failed)

	req := rules.Constraint{Kind: rules.Required}
	e, failed = req.Check(wqschema.Root().Field("a/b"), nil, false)
	require.True(t, failed)
	assert.Equal(t, "/a~1b", e.Path)
	assert.Equal(t, "a/b", e.Param("missingProperty"))

	dep := rules.Constraint{Kind: rules.Required, ReportAs: wqschema.KeywordDependencies}
	e, _ = dep.Check(ref, nil, false)
	assert.Equal(t, wqschema.KeywordDependencies, e.Keyword)
}

const conditional = `{
	"properties": {"c": {"type": "string"}, "v": {"type": "number"}, "u": {"type": "string"}},
	"allOf": [
		{
			"if": {"properties": {"c": {"enum": ["pH"]}}, "required": ["c"]},
			"then": {"properties": {"v": {"minimum": 0, "maximum": 14}}}
		},
		{
			"if": {"properties": {"c": {"const": "DO"}}},
			"then": {"properties": {"u": {"not": {"enum": ["%"]}}}},
			"else": {"required": ["u"]}
		}
	]
}`

func TestBuild_ConditionalTable(t *testing.T) {
	tbl := build(t, conditional)
	rs := tbl.Rules()
	require.Len(t, rs, 3)
	assert.Equal(t, "allOf/0/if", rs[0].Name)
	assert.Equal(t, "c", rs[0].Trigger.Field)
	assert.Equal(t, []string{"v", "v"}, rs[0].Fields())
	assert.Equal(t, "allOf/1/if/else", rs[2].Name)
	assert.True(t, rs[2].Trigger.Negate)

	errs := tbl.Evaluate(wqschema.Record{"c": "pH", "v": 15.0, "u": "x"})
	require.Len(t, errs, 1)
	assert.True(t, errs.Has(wqschema.KeywordMaximum, "/v"))
	assert.Equal(t, "allOf/0/if", errs[0].Rule)

	errs = tbl.Evaluate(wqschema.Record{"c": "DO", "u": "%"})
	assert.True(t, errs.Has(wqschema.KeywordEnum, "/u"))

	// else branch: neither DO nor carrying a unit
	errs = tbl.Evaluate(wqschema.Record{"c": "pH", "v": 7.0})
	assert.True(t, errs.Has(wqschema.KeywordRequired, "/u"))
}

func TestBuild_RootConditional(t *testing.T) {
	tbl := build(t, `{
		"properties": {"c": {"type": "string"}, "v": {"type": "number"}, "u": {"type": "string"}},
		"if": {"properties": {"c": {"const": "DO"}}},
		"then": {"properties": {"u": {"not": {"enum": ["%"]}}}},
		"else": {"required": ["u"]},
		"allOf": [
			{"if": {"properties": {"c": {"enum": ["pH"]}}}, "then": {"properties": {"v": {"maximum": 14}}}}
		]
	}`)
	rs := tbl.Rules()
	require.Len(t, rs, 3)
	assert.Equal(t, "if", rs[0].Name)
	assert.Equal(t, "if/else", rs[1].Name)
	assert.True(t, rs[1].Trigger.Negate)
	assert.Equal(t, "allOf/0/if", rs[2].Name)

	errs := tbl.Evaluate(wqschema.Record{"c": "DO", "u": "%"})
	require.Len(t, errs, 1)
	assert.True(t, errs.Has(wqschema.KeywordEnum, "/u"))
	assert.Equal(t, "if", errs[0].Rule)

	errs = tbl.Evaluate(wqschema.Record{"c": "pH", "v": 15.0})
	require.Len(t, errs, 2)
	assert.True(t, errs.Has(wqschema.KeywordRequired, "/u"))
	assert.Equal(t, "if/else", errs[0].Rule)
	assert.True(t, errs.Has(wqschema.KeywordMaximum, "/v"))
	assert.Equal(t, "allOf/0/if", errs[1].Rule)
}

func TestEvaluate_AllRulesIndependent(t *testing.T) {
	tbl := build(t, `{
		"properties": {"c": {}, "v": {}, "u": {}},
		"allOf": [
			{"if": {"properties": {"c": {"enum": ["x"]}}}, "then": {"properties": {"v": {"minimum": 0}}}},
			{"if": {"properties": {"c": {"enum": ["x"]}}}, "then": {"properties": {"u": {"enum": ["a"]}}}},
			{"if": {"properties": {"u": {"pattern": "^b"}}}, "then": {"required": ["w"]}}
		]
	}`)
	rec := wqschema.Record{"c": "x", "v": -1, "u": "b"}
	errs := tbl.Evaluate(rec)
	assert.Equal(t, 3, len(errs))
	assert.Equal(t, errs, tbl.Evaluate(rec), "evaluation is deterministic")
}

func TestEvaluate_AnyOfOneOf(t *testing.T) {
	tbl := build(t, `{
		"properties": {"a": {}, "b": {}},
		"anyOf": [{"required": ["a"]}, {"required": ["b"]}],
		"oneOf": [{"required": ["a"]}, {"required": ["b"]}]
	}`)
	errs := tbl.Evaluate(wqschema.Record{"a": 1})
	assert.Empty(t, errs)

	errs = tbl.Evaluate(wqschema.Record{})
	require.Len(t, errs, 2)
	assert.Equal(t, wqschema.KeywordAnyOf, errs[0].Keyword)
	assert.Equal(t, "/", errs[0].Path)
	assert.Equal(t, wqschema.KeywordOneOf, errs[1].Keyword)

	errs = tbl.Evaluate(wqschema.Record{"a": 1, "b": 2})
	require.Len(t, errs, 1)
	assert.Equal(t, []int{0, 1}, errs[0].Param("passingSchemas"))
}

func TestEvaluate_Dependencies(t *testing.T) {
	tbl := build(t, `{
		"properties": {"m": {}, "u": {}, "x": {}},
		"dependencies": {"m": ["u"], "x": {"required": ["m"]}}
	}`)
	errs := tbl.Evaluate(wqschema.Record{"m": 1})
	require.Len(t, errs, 1)
	assert.Equal(t, wqschema.KeywordDependencies, errs[0].Keyword)
	assert.Equal(t, "/u", errs[0].Path)

	errs = tbl.Evaluate(wqschema.Record{"x": 1})
	assert.True(t, errs.Has(wqschema.KeywordRequired, "/m"))
	assert.Empty(t, tbl.Evaluate(wqschema.Record{}))
}

func TestBuild_Rejects(t *testing.T) {
	cases := map[string]struct {
		doc  string
		want error
	}{
		"if on two fields": {
			`{"properties":{},"if":{"properties":{"a":{"const":"x"},"b":{"const":"y"}}},"then":{}}`,
			rules.ErrUnsupportedRule,
		},
		"if without matcher": {
			`{"properties":{},"if":{"properties":{"a":{"type":"string"}}},"then":{}}`,
			rules.ErrUnsupportedRule,
		},
		"bad trigger pattern": {
			`{"properties":{},"if":{"properties":{"a":{"pattern":"["}}},"then":{}}`,
			rules.ErrInvalidPattern,
		},
		"unknown format": {
			`{"properties":{},"allOf":[{"if":{"properties":{"a":{"const":"x"}}},"then":{"properties":{"b":{"format":"color"}}}}]}`,
			rules.ErrUnknownFormat,
		},
		"not with minimum": {
			`{"properties":{},"allOf":[{"if":{"properties":{"a":{"const":"x"}}},"then":{"properties":{"b":{"not":{"minimum":1}}}}}]}`,
			rules.ErrUnsupportedRule,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			s, _, err := jsonschema.ParseDocument([]byte(tc.doc), jsonschema.ResolveOptions{})
			require.NoError(t, err)
			_, err = rules.Build(s)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestTable_ZeroValue(t *testing.T) {
	var tbl rules.Table
	assert.Equal(t, 0, tbl.Len())
	assert.Empty(t, tbl.Evaluate(wqschema.Record{"a": 1}))

	tbl = rules.NewTable(rules.Rule{
		Name:    "manual",
		Trigger: rules.NewTrigger("a", []string{"x"}, false),
		Consequences: []rules.Consequence{
			{Field: "b", Constraint: rules.Constraint{Kind: rules.Required}},
		},
	})
	errs := tbl.Evaluate(wqschema.Record{"a": "x"})
	require.Len(t, errs, 1)
	assert.Equal(t, "manual", errs[0].Rule)
}
