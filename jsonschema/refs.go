package jsonschema

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrUnresolvedRef is returned when a $ref target cannot be found.
	ErrUnresolvedRef = errors.New("jsonschema: unresolved $ref")
	// ErrCyclicRef is returned when expanding a $ref would recurse forever.
	ErrCyclicRef = errors.New("jsonschema: cyclic $ref")
)

// Loader fetches documents referenced by non-local $refs (for example
// "definitions.values.json#/ResultUnit"). Fetching from disk or the network
// is the caller's business; the resolver only asks for a decoded document.
type Loader interface {
	Load(uri string) (*Map, error)
}

// MapLoader is an in-memory Loader keyed by document URI.
type MapLoader map[string]*Map

// Load implements Loader.
func (l MapLoader) Load(uri string) (*Map, error) {
	if m, ok := l[uri]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("%w: document %q not registered", ErrUnresolvedRef, uri)
}

// ResolveOptions configures Resolve.
type ResolveOptions struct {
	// Loader resolves references into other documents. When nil, only local
	// references (#/...) are supported.
	Loader Loader
	// URI names the document being resolved, used in error messages and to
	// recognise self-references written with the document name.
	URI string
}

// Resolve returns a deep copy of root with every $ref inlined. Keys written
// next to a $ref take precedence over the referenced schema's keys.
func Resolve(root *Map, opts ResolveOptions) (*Map, error) {
	if root == nil {
		return nil, ErrNotObject
	}
	r := &resolver{loader: opts.Loader, self: opts.URI, visiting: map[string]bool{}}
	out, err := r.walk(root, root, opts.URI)
	if err != nil {
		return nil, err
	}
	m, ok := out.(*Map)
	if !ok {
		return nil, ErrNotObject
	}
	return m, nil
}

type resolver struct {
	loader   Loader
	self     string
	visiting map[string]bool
}

func (r *resolver) walk(v any, doc *Map, uri string) (any, error) {
	switch t := v.(type) {
	case *Map:
		if ref, ok := t.Get("$ref"); ok {
			if s, ok := ref.(string); ok {
				return r.expand(t, s, doc, uri)
			}
		}
		out := NewMap()
		for _, k := range t.keys {
			rv, err := r.walk(t.vals[k], doc, uri)
			if err != nil {
				return nil, err
			}
			out.Set(k, rv)
		}
		return out, nil
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			rv, err := r.walk(t[i], doc, uri)
			if err != nil {
				return nil, err
			}
			arr[i] = rv
		}
		return arr, nil
	default:
		return v, nil
	}
}

// expand resolves a single $ref node and merges its siblings (shallow).
func (r *resolver) expand(node *Map, ref string, doc *Map, uri string) (any, error) {
	target, tdoc, turi, err := r.lookup(ref, doc, uri)
	if err != nil {
		return nil, err
	}
	key := turi + "#" + fragmentOf(ref)
	if r.visiting[key] {
		return nil, fmt.Errorf("%w: %s", ErrCyclicRef, ref)
	}
	r.visiting[key] = true
	resolved, err := r.walk(target, tdoc, turi)
	delete(r.visiting, key)
	if err != nil {
		return nil, err
	}

	base, isMap := resolved.(*Map)
	if node.Len() == 1 {
		return resolved, nil
	}
	if !isMap {
		return nil, fmt.Errorf("jsonschema: $ref %q with sibling keywords must point to an object", ref)
	}
	out := NewMap()
	for _, k := range node.keys {
		if k == "$ref" {
			continue
		}
		rv, err := r.walk(node.vals[k], doc, uri)
		if err != nil {
			return nil, err
		}
		out.Set(k, rv)
	}
	for _, k := range base.keys {
		if !out.Has(k) {
			out.Set(k, base.vals[k])
		}
	}
	return out, nil
}

func (r *resolver) lookup(ref string, doc *Map, uri string) (any, *Map, string, error) {
	docPart, frag, _ := strings.Cut(ref, "#")
	target, turi := doc, uri
	if docPart != "" && docPart != uri && docPart != r.self {
		if r.loader == nil {
			return nil, nil, "", fmt.Errorf("%w: %s (no loader configured)", ErrUnresolvedRef, ref)
		}
		ext, err := r.loader.Load(docPart)
		if err != nil {
			if errors.Is(err, ErrUnresolvedRef) {
				return nil, nil, "", err
			}
			return nil, nil, "", fmt.Errorf("%w: %s: %v", ErrUnresolvedRef, ref, err)
		}
		target, turi = ext, docPart
	}
	v, ok := Pointer(target, frag)
	if !ok {
		return nil, nil, "", fmt.Errorf("%w: %s", ErrUnresolvedRef, ref)
	}
	return v, target, turi, nil
}

func fragmentOf(ref string) string {
	_, frag, _ := strings.Cut(ref, "#")
	return frag
}

// Pointer evaluates a JSON Pointer (RFC 6901) against doc. An empty pointer
// or "/" alone addresses the document itself.
func Pointer(doc *Map, ptr string) (any, bool) {
	if ptr == "" || ptr == "/" {
		return doc, true
	}
	var cur any = doc
	for _, seg := range strings.Split(strings.TrimPrefix(ptr, "/"), "/") {
		seg = unescapePointer(seg)
		switch t := cur.(type) {
		case *Map:
			v, ok := t.Get(seg)
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(t) {
				return nil, false
			}
			cur = t[i]
		default:
			return nil, false
		}
	}
	return cur, true
}
