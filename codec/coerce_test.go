package codec

import (
	"encoding/json"
	"testing"
)

func TestCoerce_Number(t *testing.T) {
	cases := []struct {
		in   any
		want float64
		ok   bool
	}{
		{"99.99", 99.99, true},
		{" -114.0708 ", -114.0708, true},
		{"0", 0, true},
		{"-1", -1, true},
		{"1e3", 1000, true},
		{12, 12, true},
		{json.Number("7.5"), 7.5, true},
		{true, 1, true},
		{nil, 0, true},
		{"", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{[]any{1}, 0, false},
	}
	for _, c := range cases {
		got, ok := Coerce(c.in, TypeNumber)
		if ok != c.ok {
			t.Fatalf("Coerce(%#v): ok=%v want %v", c.in, ok, c.ok)
		}
		if ok && got.(float64) != c.want {
			t.Fatalf("Coerce(%#v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestCoerce_Integer(t *testing.T) {
	if v, ok := Coerce("42", TypeInteger); !ok || v.(int64) != 42 {
		t.Fatalf("expected 42, got %v %v", v, ok)
	}
	if _, ok := Coerce("4.2", TypeInteger); ok {
		t.Fatalf("expected non-integral value to fail")
	}
}

func TestCoerce_StringAndBool(t *testing.T) {
	if v, ok := Coerce(12.5, TypeString); !ok || v != "12.5" {
		t.Fatalf("unexpected: %v %v", v, ok)
	}
	if v, ok := Coerce(true, TypeString); !ok || v != "true" {
		t.Fatalf("unexpected: %v %v", v, ok)
	}
	if _, ok := Coerce(map[string]any{}, TypeString); ok {
		t.Fatalf("objects must not coerce to string")
	}
	if v, ok := Coerce("false", TypeBoolean); !ok || v != false {
		t.Fatalf("unexpected: %v %v", v, ok)
	}
	if _, ok := Coerce("yes", TypeBoolean); ok {
		t.Fatalf("expected yes to be rejected")
	}
}

func TestIsType(t *testing.T) {
	if !IsType(1.5, TypeNumber) || IsType("1.5", TypeNumber) {
		t.Fatalf("number type check mismatch")
	}
	if !IsType(int64(2), TypeInteger) || IsType(2.5, TypeInteger) {
		t.Fatalf("integer type check mismatch")
	}
	if !IsType(nil, TypeNull) || !IsType("x", "") {
		t.Fatalf("null/untyped check mismatch")
	}
}
