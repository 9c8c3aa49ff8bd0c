package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	wqschema "github.com/reoring/wqschema"
	"github.com/reoring/wqschema/codec"
	"github.com/reoring/wqschema/jsonschema"
)

var (
	// ErrUnsupportedRule is returned for conditional constructs outside the
	// supported single-trigger form.
	ErrUnsupportedRule = errors.New("rules: unsupported rule")
	// ErrInvalidPattern is returned when a pattern does not compile.
	ErrInvalidPattern = errors.New("rules: invalid pattern")
	// ErrUnknownFormat is returned for format names that cannot be checked.
	ErrUnknownFormat = errors.New("rules: unknown format")
)

// Build compiles the conditional constructs of a record schema into a Table.
// Rules are collected in this order: if/then at the root, allOf entries,
// anyOf, oneOf, dependencies.
func Build(s *jsonschema.Schema) (Table, error) {
	if s == nil {
		return Table{}, jsonschema.ErrNotObject
	}
	b := &builder{}
	if err := b.group(s, "", true); err != nil {
		return Table{}, err
	}
	return Table{rules: b.rules}, nil
}

type builder struct {
	rules []Rule
}

// group collects rules from one schema node. Plain property constraints and
// required lists are only turned into rules below the root; at the root they
// are the general shape handled by the validator.
func (b *builder) group(s *jsonschema.Schema, name string, root bool) error {
	if s.If != nil {
		if err := b.conditional(s, join(name, "if")); err != nil {
			return err
		}
	}
	for i, sub := range s.AllOf {
		if err := b.group(sub, join(name, "allOf/"+strconv.Itoa(i)), false); err != nil {
			return err
		}
	}
	if len(s.AnyOf) > 0 {
		if err := b.composite(AnyOf, s.AnyOf, join(name, "anyOf")); err != nil {
			return err
		}
	}
	if len(s.OneOf) > 0 {
		if err := b.composite(OneOf, s.OneOf, join(name, "oneOf")); err != nil {
			return err
		}
	}
	for _, d := range s.Dependencies {
		if err := b.dependency(d, join(name, "dependencies/"+d.Property)); err != nil {
			return err
		}
	}
	if !root && s.If == nil && (len(s.Properties) > 0 || len(s.Required) > 0) {
		cs, err := consequences(s, name)
		if err != nil {
			return err
		}
		b.rules = append(b.rules, Rule{Name: name, Kind: Conditional, Consequences: cs})
	}
	return nil
}

func (b *builder) conditional(s *jsonschema.Schema, name string) error {
	trig, err := trigger(s.If, name)
	if err != nil {
		return err
	}
	if s.Then != nil {
		cs, err := consequences(s.Then, name)
		if err != nil {
			return err
		}
		b.rules = append(b.rules, Rule{Name: name, Kind: Conditional, Trigger: trig, Consequences: cs})
	}
	if s.Else != nil {
		cs, err := consequences(s.Else, name+"/else")
		if err != nil {
			return err
		}
		neg := trig
		neg.Negate = true
		b.rules = append(b.rules, Rule{Name: name + "/else", Kind: Conditional, Trigger: neg, Consequences: cs})
	}
	return nil
}

func (b *builder) composite(kind Kind, branches []*jsonschema.Schema, name string) error {
	r := Rule{Name: name, Kind: kind}
	for i, br := range branches {
		cs, err := consequences(br, name+"/"+strconv.Itoa(i))
		if err != nil {
			return err
		}
		r.Branches = append(r.Branches, cs)
	}
	b.rules = append(b.rules, r)
	return nil
}

func (b *builder) dependency(d jsonschema.Dependency, name string) error {
	r := Rule{Name: name, Kind: Dependency, Trigger: Trigger{Field: d.Property, Present: true}}
	for _, req := range d.Requires {
		r.Consequences = append(r.Consequences, Consequence{
			Field:      req,
			Constraint: Constraint{Kind: Required, ReportAs: wqschema.KeywordDependencies},
		})
	}
	if d.Schema != nil {
		cs, err := consequences(d.Schema, name)
		if err != nil {
			return err
		}
		r.Kind = Conditional
		r.Consequences = append(r.Consequences, cs...)
	}
	b.rules = append(b.rules, r)
	return nil
}

// trigger reads the single-property if clause.
func trigger(s *jsonschema.Schema, name string) (Trigger, error) {
	if len(s.Properties) != 1 {
		return Trigger{}, fmt.Errorf("%w: %s: if must constrain exactly one property", ErrUnsupportedRule, name)
	}
	p := s.Properties[0]
	for _, r := range s.Required {
		if r != p.Name {
			return Trigger{}, fmt.Errorf("%w: %s: if requires %q which is not its trigger", ErrUnsupportedRule, name, r)
		}
	}
	ps := p.Schema
	switch {
	case ps.Pattern != "":
		re, err := compilePattern(ps.Pattern, ps.IgnoreCase)
		if err != nil {
			return Trigger{}, fmt.Errorf("%w: %s: %v", ErrInvalidPattern, name, err)
		}
		return Trigger{Field: p.Name, Regexp: re}, nil
	case len(ps.Enum) > 0 || ps.HasConst:
		vals := ps.Enum
		if ps.HasConst {
			vals = []any{ps.Const}
		}
		set := make([]string, 0, len(vals))
		for _, v := range vals {
			sv, ok := v.(string)
			if !ok {
				return Trigger{}, fmt.Errorf("%w: %s: trigger values must be strings", ErrUnsupportedRule, name)
			}
			set = append(set, sv)
		}
		return NewTrigger(p.Name, set, ps.IgnoreCase), nil
	}
	return Trigger{}, fmt.Errorf("%w: %s: trigger on %q needs enum, const or pattern", ErrUnsupportedRule, name, p.Name)
}

// consequences turns a then/else/branch node into field constraints.
func consequences(s *jsonschema.Schema, name string) ([]Consequence, error) {
	var out []Consequence
	for _, req := range s.Required {
		out = append(out, Consequence{Field: req, Constraint: Constraint{Kind: Required}})
	}
	for _, p := range s.Properties {
		var cs []Constraint
		if p.Schema.Type != "" {
			cs = append(cs, Constraint{Kind: Type, Name: p.Schema.Type})
		}
		more, err := ConstraintsOf(p.Schema)
		if err != nil {
			return nil, fmt.Errorf("%s/%s: %w", name, p.Name, err)
		}
		for _, c := range append(cs, more...) {
			out = append(out, Consequence{Field: p.Name, Constraint: c})
		}
	}
	return out, nil
}

// ConstraintsOf compiles the value keywords of one property schema (all but
// type, which callers handle together with coercion). The order is the order
// errors are reported in: format, pattern, minLength, maxLength, enum, not,
// minimum, exclusiveMinimum, maximum, exclusiveMaximum.
func ConstraintsOf(s *jsonschema.Schema) ([]Constraint, error) {
	var out []Constraint
	if s.Format != "" {
		if !codec.KnownFormat(s.Format) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, s.Format)
		}
		out = append(out, Constraint{Kind: Format, Name: s.Format})
	}
	if s.Pattern != "" {
		re, err := compilePattern(s.Pattern, false)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
		}
		out = append(out, Constraint{Kind: Pattern, Regexp: re})
	}
	if s.MinLength != nil {
		out = append(out, Constraint{Kind: MinLength, Length: *s.MinLength})
	}
	if s.MaxLength != nil {
		out = append(out, Constraint{Kind: MaxLength, Length: *s.MaxLength})
	}
	if len(s.Enum) > 0 {
		out = append(out, Constraint{Kind: Enum, Values: s.Enum, Fold: s.IgnoreCase})
	}
	if s.HasConst {
		out = append(out, Constraint{Kind: Enum, Values: []any{s.Const}, Fold: s.IgnoreCase})
	}
	if s.Not != nil {
		n := s.Not
		switch {
		case len(n.Enum) > 0:
			out = append(out, Constraint{Kind: NotEnum, Values: n.Enum, Fold: n.IgnoreCase})
		case n.HasConst:
			out = append(out, Constraint{Kind: NotEnum, Values: []any{n.Const}, Fold: n.IgnoreCase})
		default:
			return nil, fmt.Errorf("%w: not supports enum or const only", ErrUnsupportedRule)
		}
	}
	if s.Minimum != nil {
		out = append(out, Constraint{Kind: Minimum, Limit: *s.Minimum})
	}
	if s.ExclusiveMinimum != nil {
		out = append(out, Constraint{Kind: ExclusiveMinimum, Limit: *s.ExclusiveMinimum})
	}
	if s.Maximum != nil {
		out = append(out, Constraint{Kind: Maximum, Limit: *s.Maximum})
	}
	if s.ExclusiveMaximum != nil {
		out = append(out, Constraint{Kind: ExclusiveMaximum, Limit: *s.ExclusiveMaximum})
	}
	return out, nil
}

func compilePattern(p string, fold bool) (*regexp.Regexp, error) {
	if fold {
		p = "(?i)" + p
	}
	return regexp.Compile(p)
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
