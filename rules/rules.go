// Package rules holds the conditional rule table compiled from a record
// schema and evaluates it against records.
//
// A table is flat data built once per schema: each Rule carries a trigger
// and the consequences that apply when it fires. Evaluation is a single pass
// over the table; every rule is evaluated independently and all resulting
// errors are returned, so no rule can hide another's failure.
package rules

import (
	"regexp"
	"strings"

	wqschema "github.com/reoring/wqschema"
	"github.com/reoring/wqschema/i18n"
)

// Kind tags the variant held by a Rule.
type Kind int

const (
	// Conditional applies Consequences when Trigger fires (if/then, else).
	Conditional Kind = iota
	// Dependency requires Consequences' fields when Trigger.Field is present.
	Dependency
	// AnyOf passes when at least one of Branches passes.
	AnyOf
	// OneOf passes when exactly one of Branches passes.
	OneOf
)

func (k Kind) String() string {
	switch k {
	case Conditional:
		return "conditional"
	case Dependency:
		return "dependency"
	case AnyOf:
		return "anyOf"
	case OneOf:
		return "oneOf"
	}
	return "unknown"
}

// Trigger selects the records a rule applies to.
type Trigger struct {
	// Field is the trigger field. Empty means the rule always applies.
	Field string
	// Values is the closed match set in declaration order.
	Values []string
	// Fold makes Values match case-insensitively.
	Fold bool
	// Regexp matches the field value instead of Values when set.
	Regexp *regexp.Regexp
	// Present fires on presence of Field alone.
	Present bool
	// Negate inverts the trigger (else branches).
	Negate bool

	set map[string]struct{}
}

// NewTrigger builds a match-set trigger with an indexed lookup. A Trigger
// literal scans Values instead.
func NewTrigger(field string, values []string, fold bool) Trigger {
	t := Trigger{Field: field, Values: append([]string(nil), values...), Fold: fold}
	t.set = make(map[string]struct{}, len(values))
	for _, v := range values {
		if fold {
			v = strings.ToLower(v)
		}
		t.set[v] = struct{}{}
	}
	return t
}

// Fires reports whether the trigger selects rec. A trigger never fires on a
// missing field or on a non-string value (except Present triggers, which only
// test presence).
func (t Trigger) Fires(rec wqschema.Record) bool {
	return t.matches(rec) != t.Negate
}

func (t Trigger) matches(rec wqschema.Record) bool {
	if t.Field == "" {
		return true
	}
	v, ok := rec[t.Field]
	if !ok {
		return false
	}
	if t.Present {
		return true
	}
	s, ok := v.(string)
	if !ok {
		return false
	}
	if t.Regexp != nil {
		return t.Regexp.MatchString(s)
	}
	if t.set == nil {
		for _, want := range t.Values {
			if s == want || (t.Fold && strings.EqualFold(s, want)) {
				return true
			}
		}
		return false
	}
	if t.Fold {
		s = strings.ToLower(s)
	}
	_, hit := t.set[s]
	return hit
}

// Consequence constrains one field once a rule applies.
type Consequence struct {
	Field      string
	Constraint Constraint
}

func (c Consequence) check(rec wqschema.Record) (wqschema.ValidationError, bool) {
	v, present := rec[c.Field]
	return c.Constraint.Check(wqschema.Root().Field(c.Field), v, present)
}

// Rule is one entry of the table.
type Rule struct {
	// Name locates the rule in the schema (for example "allOf/2").
	Name         string
	Kind         Kind
	Trigger      Trigger
	Consequences []Consequence
	// Branches are the alternatives of AnyOf and OneOf rules.
	Branches [][]Consequence
}

// Fields lists every consequence field of the rule.
func (r Rule) Fields() []string {
	var out []string
	add := func(cs []Consequence) {
		for _, c := range cs {
			out = append(out, c.Field)
		}
	}
	add(r.Consequences)
	for _, b := range r.Branches {
		add(b)
	}
	return out
}

// Table is an immutable, ordered list of rules. The zero value is an empty
// table. A Table is safe for concurrent use.
type Table struct {
	rules []Rule
}

// NewTable wraps rules in a Table. The slice is copied.
func NewTable(rules ...Rule) Table {
	return Table{rules: append([]Rule(nil), rules...)}
}

// Len returns the number of rules.
func (t Table) Len() int { return len(t.rules) }

// Rules returns a copy of the rule list.
func (t Table) Rules() []Rule { return append([]Rule(nil), t.rules...) }

// Evaluate checks rec against every rule and returns all violations in table
// order. An empty result means the record passes the conditional layer.
func (t Table) Evaluate(rec wqschema.Record) wqschema.Errors {
	var errs wqschema.Errors
	for i := range t.rules {
		errs = t.rules[i].evaluate(rec, errs)
	}
	return errs
}

func (r *Rule) evaluate(rec wqschema.Record, errs wqschema.Errors) wqschema.Errors {
	switch r.Kind {
	case Conditional, Dependency:
		if !r.Trigger.Fires(rec) {
			return errs
		}
		for _, c := range r.Consequences {
			if e, failed := c.check(rec); failed {
				e.Rule = r.Name
				errs = append(errs, e)
			}
		}
	case AnyOf:
		if !r.Trigger.Fires(rec) {
			return errs
		}
		for _, b := range r.Branches {
			if branchPasses(b, rec) {
				return errs
			}
		}
		errs = append(errs, r.compositeError(wqschema.KeywordAnyOf, nil))
	case OneOf:
		if !r.Trigger.Fires(rec) {
			return errs
		}
		var passing []int
		for i, b := range r.Branches {
			if branchPasses(b, rec) {
				passing = append(passing, i)
			}
		}
		if len(passing) != 1 {
			errs = append(errs, r.compositeError(wqschema.KeywordOneOf, passing))
		}
	}
	return errs
}

func branchPasses(b []Consequence, rec wqschema.Record) bool {
	for _, c := range b {
		if _, failed := c.check(rec); failed {
			return false
		}
	}
	return true
}

func (r *Rule) compositeError(keyword string, passing []int) wqschema.ValidationError {
	params := map[string]any{"branches": len(r.Branches)}
	if keyword == wqschema.KeywordOneOf {
		// nil when no branch passed
		params["passingSchemas"] = passing
	}
	e := wqschema.ErrorAt(wqschema.Root(), keyword, i18n.T(keyword, nil), params)
	e.Rule = r.Name
	return e
}
