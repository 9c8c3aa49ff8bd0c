// Package codec converts record scalars to their declared schema types and
// checks string formats.
package codec

import (
	"math"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// JSON type names understood by Coerce and IsType.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeNull    = "null"
)

// Coerce converts v to the declared type when the conversion is unambiguous,
// following the usual coerceTypes rules: numeric strings become numbers,
// "true"/"false" become booleans, scalars become strings and null becomes the
// type's zero value. It reports false when no conversion applies; the caller
// surfaces that as a type error.
//
// Numbers are returned as float64, integers as int64.
func Coerce(v any, typ string) (any, bool) {
	switch typ {
	case "":
		return v, true
	case TypeNumber:
		return toNumber(v)
	case TypeInteger:
		f, ok := toNumber(v)
		if !ok {
			return nil, false
		}
		n := f.(float64)
		if n != math.Trunc(n) || math.Abs(n) > 1<<53 {
			return nil, false
		}
		return int64(n), true
	case TypeString:
		return toString(v)
	case TypeBoolean:
		return toBool(v)
	case TypeNull:
		switch t := v.(type) {
		case nil:
			return nil, true
		case string:
			if t == "" {
				return nil, true
			}
		}
		return nil, false
	}
	return v, IsType(v, typ)
}

// IsType reports whether v already has the JSON type typ.
func IsType(v any, typ string) bool {
	switch typ {
	case "":
		return true
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeNumber:
		_, ok := Number(v)
		return ok
	case TypeInteger:
		f, ok := Number(v)
		return ok && f == math.Trunc(f)
	case TypeBoolean:
		_, ok := v.(bool)
		return ok
	case TypeNull:
		return v == nil
	case "object":
		_, ok := v.(map[string]any)
		return ok
	case "array":
		_, ok := v.([]any)
		return ok
	}
	return false
}

// Number returns v as float64 when v is a Go numeric value or json.Number.
// Strings are not numbers here; use Coerce for that.
func Number(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t) && !math.IsInf(t, 0)
	case float32:
		f := float64(t)
		return f, !math.IsNaN(f) && !math.IsInf(f, 0)
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}

func toNumber(v any) (any, bool) {
	if f, ok := Number(v); ok {
		return f, true
	}
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false
		}
		return f, true
	case bool:
		if t {
			return float64(1), true
		}
		return float64(0), true
	case nil:
		return float64(0), true
	}
	return nil, false
}

func toString(v any) (any, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case nil:
		return "", true
	case json.Number:
		return t.String(), true
	}
	if f, ok := Number(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return nil, false
}

func toBool(v any) (any, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch t {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	case nil:
		return false, true
	}
	if f, ok := Number(v); ok {
		switch f {
		case 1:
			return true, true
		case 0:
			return false, true
		}
	}
	return nil, false
}
