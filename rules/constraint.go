package rules

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	wqschema "github.com/reoring/wqschema"
	"github.com/reoring/wqschema/codec"
	"github.com/reoring/wqschema/i18n"
)

// ConstraintKind tags the variant held by a Constraint.
type ConstraintKind int

const (
	Enum ConstraintKind = iota
	NotEnum
	Minimum
	ExclusiveMinimum
	Maximum
	ExclusiveMaximum
	Required
	Type
	Format
	Pattern
	MinLength
	MaxLength
)

func (k ConstraintKind) String() string {
	switch k {
	case Enum:
		return "enum"
	case NotEnum:
		return "notEnum"
	case Minimum:
		return "minimum"
	case ExclusiveMinimum:
		return "exclusiveMinimum"
	case Maximum:
		return "maximum"
	case ExclusiveMaximum:
		return "exclusiveMaximum"
	case Required:
		return "required"
	case Type:
		return "type"
	case Format:
		return "format"
	case Pattern:
		return "pattern"
	case MinLength:
		return "minLength"
	case MaxLength:
		return "maxLength"
	}
	return "unknown(" + strconv.Itoa(int(k)) + ")"
}

// Constraint is one check against a single field value. Only the members
// relevant to Kind are set.
type Constraint struct {
	Kind ConstraintKind
	// Values holds the allowed (Enum) or disallowed (NotEnum) values.
	Values []any
	// Fold makes string comparison in Values case-insensitive.
	Fold bool
	// Limit is the numeric bound of Minimum/Maximum and their exclusive forms.
	Limit float64
	// Length is the bound of MinLength/MaxLength.
	Length int
	// Name is the type name (Type) or format name (Format).
	Name string
	// Regexp is the compiled Pattern.
	Regexp *regexp.Regexp
	// ReportAs overrides the keyword of the produced error (dependencies use
	// a Required constraint reported as "dependencies").
	ReportAs string
}

// Keyword returns the error keyword this constraint reports.
func (c Constraint) Keyword() string {
	if c.ReportAs != "" {
		return c.ReportAs
	}
	switch c.Kind {
	case Enum, NotEnum:
		return wqschema.KeywordEnum
	case Minimum:
		return wqschema.KeywordMinimum
	case ExclusiveMinimum:
		return wqschema.KeywordExclusiveMinimum
	case Maximum:
		return wqschema.KeywordMaximum
	case ExclusiveMaximum:
		return wqschema.KeywordExclusiveMaximum
	case Required:
		return wqschema.KeywordRequired
	case Type:
		return wqschema.KeywordType
	case Format:
		return wqschema.KeywordFormat
	case Pattern:
		return wqschema.KeywordPattern
	case MinLength:
		return wqschema.KeywordMinLength
	case MaxLength:
		return wqschema.KeywordMaxLength
	}
	return c.Kind.String()
}

// Check evaluates the constraint against the value found at ref. present is
// false when the field is missing from the record; only Required fails on a
// missing field. Values of the wrong type pass bound, length, format and
// pattern checks; the type check reports them once.
func (c Constraint) Check(ref wqschema.PathRef, v any, present bool) (wqschema.ValidationError, bool) {
	if c.Kind == Required {
		if present {
			return wqschema.ValidationError{}, false
		}
		name := lastSegment(ref.Pointer())
		return c.fail(ref, "missingProperty", name), true
	}
	if !present {
		return wqschema.ValidationError{}, false
	}
	switch c.Kind {
	case Enum:
		if !c.contains(v) {
			return c.fail(ref, "allowedValues", c.Values), true
		}
	case NotEnum:
		if c.contains(v) {
			return c.fail(ref, "disallowedValues", c.Values), true
		}
	case Minimum, ExclusiveMinimum, Maximum, ExclusiveMaximum:
		n, ok := codec.Number(v)
		if !ok {
			return wqschema.ValidationError{}, false
		}
		if c.outOfBounds(n) {
			return c.fail(ref, "comparison", c.comparison(), "limit", c.Limit), true
		}
	case Type:
		if !codec.IsType(v, c.Name) {
			return c.fail(ref, "type", c.Name), true
		}
	case Format:
		if s, ok := v.(string); ok && !codec.CheckFormat(c.Name, s) {
			return c.fail(ref, "format", c.Name), true
		}
	case Pattern:
		if s, ok := v.(string); ok && c.Regexp != nil && !c.Regexp.MatchString(s) {
			return c.fail(ref, "pattern", c.Regexp.String()), true
		}
	case MinLength:
		if s, ok := v.(string); ok && utf8.RuneCountInString(s) < c.Length {
			return c.fail(ref, "limit", c.Length), true
		}
	case MaxLength:
		if s, ok := v.(string); ok && utf8.RuneCountInString(s) > c.Length {
			return c.fail(ref, "limit", c.Length), true
		}
	}
	return wqschema.ValidationError{}, false
}

func (c Constraint) outOfBounds(n float64) bool {
	switch c.Kind {
	case Minimum:
		return n < c.Limit
	case ExclusiveMinimum:
		return n <= c.Limit
	case Maximum:
		return n > c.Limit
	case ExclusiveMaximum:
		return n >= c.Limit
	}
	return false
}

func (c Constraint) comparison() string {
	switch c.Kind {
	case Minimum:
		return ">="
	case ExclusiveMinimum:
		return ">"
	case Maximum:
		return "<="
	case ExclusiveMaximum:
		return "<"
	}
	return ""
}

func (c Constraint) contains(v any) bool {
	for _, want := range c.Values {
		if equalValues(v, want, c.Fold) {
			return true
		}
	}
	return false
}

func (c Constraint) fail(ref wqschema.PathRef, kv ...any) wqschema.ValidationError {
	kw := c.Keyword()
	e := ref.Error(kw, "", kv...)
	e.Message = i18n.T(kw, messageData(e.Params))
	return e
}

// equalValues compares record and schema values: numbers by value, strings
// exactly (or folded), everything else by ==.
func equalValues(a, b any, fold bool) bool {
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		if !ok {
			return false
		}
		if fold {
			return strings.EqualFold(as, bs)
		}
		return as == bs
	}
	if an, ok := codec.Number(a); ok {
		bn, ok := codec.Number(b)
		return ok && an == bn
	}
	switch a.(type) {
	case bool, nil:
		return a == b
	}
	return false
}

// messageData projects error params into the string map used by i18n.
func messageData(params map[string]any) map[string]string {
	data := map[string]string{}
	if p, ok := params["missingProperty"].(string); ok {
		data["property"] = p
	}
	if p, ok := params["additionalProperty"].(string); ok {
		data["property"] = p
	}
	switch l := params["limit"].(type) {
	case float64:
		data["limit"] = strconv.FormatFloat(l, 'f', -1, 64)
	case int:
		data["limit"] = strconv.Itoa(l)
	}
	return data
}

// Localize rewrites error messages with tr. Errors are produced with English
// messages; callers that configured another language pass theirs here.
func Localize(errs wqschema.Errors, tr i18n.Translator) {
	if tr == nil {
		return
	}
	for i := range errs {
		errs[i].Message = tr.Message(errs[i].Keyword, messageData(errs[i].Params))
	}
}

func lastSegment(ptr string) string {
	i := strings.LastIndexByte(ptr, '/')
	seg := ptr[i+1:]
	return strings.ReplaceAll(strings.ReplaceAll(seg, "~1", "/"), "~0", "~")
}
