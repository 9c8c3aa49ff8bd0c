package jsonschema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	j "github.com/goccy/go-json"
)

var (
	// ErrDuplicateKey is returned when an object in a schema document repeats a key.
	ErrDuplicateKey = errors.New("jsonschema: duplicate key")
	// ErrNotObject is returned when a document root is not an object.
	ErrNotObject = errors.New("jsonschema: document root must be an object")
)

// Decode parses a JSON schema document into an ordered Map using the go-json
// token stream. Duplicate keys are rejected.
func Decode(data []byte) (*Map, error) {
	return DecodeReader(bytes.NewReader(data))
}

// DecodeReader is Decode for an io.Reader.
func DecodeReader(r io.Reader) (*Map, error) {
	dec := j.NewDecoder(r)
	dec.UseNumber()
	v, err := decodeValue(dec, "")
	if err != nil {
		return nil, err
	}
	root, ok := v.(*Map)
	if !ok {
		return nil, ErrNotObject
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			return nil, errors.New("jsonschema: trailing data after document")
		}
		return nil, fmt.Errorf("jsonschema: %w", err)
	}
	return root, nil
}

func decodeValue(dec *j.Decoder, path string) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("jsonschema: unexpected end of document at %s", pointerOrRoot(path))
		}
		return nil, fmt.Errorf("jsonschema: %w", err)
	}
	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			return decodeObject(dec, path)
		case '[':
			return decodeArray(dec, path)
		}
		return nil, fmt.Errorf("jsonschema: unexpected %q at %s", v, pointerOrRoot(path))
	case string, bool, nil:
		return v, nil
	case j.Number:
		return v, nil
	case float64:
		return j.Number(strconv.FormatFloat(v, 'g', -1, 64)), nil
	}
	return nil, fmt.Errorf("jsonschema: unexpected token %T at %s", tok, pointerOrRoot(path))
}

func decodeObject(dec *j.Decoder, path string) (*Map, error) {
	m := NewMap()
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("jsonschema: %w", err)
		}
		key, ok := kt.(string)
		if !ok {
			return nil, fmt.Errorf("jsonschema: expected object key at %s", pointerOrRoot(path))
		}
		child := path + "/" + escapePointer(key)
		if m.Has(key) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, child)
		}
		v, err := decodeValue(dec, child)
		if err != nil {
			return nil, err
		}
		m.Set(key, v)
	}
	if _, err := dec.Token(); err != nil { // closing '}'
		return nil, fmt.Errorf("jsonschema: %w", err)
	}
	return m, nil
}

func decodeArray(dec *j.Decoder, path string) ([]any, error) {
	arr := []any{}
	for i := 0; dec.More(); i++ {
		v, err := decodeValue(dec, path+"/"+strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
	if _, err := dec.Token(); err != nil { // closing ']'
		return nil, fmt.Errorf("jsonschema: %w", err)
	}
	return arr, nil
}

func escapePointer(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1")
}

func unescapePointer(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~1", "/"), "~0", "~")
}

func pointerOrRoot(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
