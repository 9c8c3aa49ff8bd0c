// Package validator compiles a resolved record schema into an immutable
// Validator.
//
// A compiled Validator holds only read-only tables (field checks and the
// conditional rule table), so one instance can serve any number of
// goroutines. Each Validate call works on its own copy of the record and its
// own error list.
package validator

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	wqschema "github.com/reoring/wqschema"
	"github.com/reoring/wqschema/codec"
	"github.com/reoring/wqschema/fields"
	"github.com/reoring/wqschema/i18n"
	"github.com/reoring/wqschema/jsonschema"
	"github.com/reoring/wqschema/rules"
)

// Options configures Compile. The zero value coerces types, applies defaults
// and reports English messages.
type Options struct {
	// NoCoerce disables scalar coercion; values must already have their
	// declared types.
	NoCoerce bool
	// NoDefaults disables filling missing fields from schema defaults.
	NoDefaults bool
	// Language selects error messages ("en", "ja").
	Language string
	// Logger receives compile diagnostics. Nil means no logging.
	Logger *zap.Logger
}

// fieldCheck is the compiled general-shape check of one property.
type fieldCheck struct {
	name        string
	typ         string
	nullable    bool
	def         any
	hasDefault  bool
	constraints []rules.Constraint
}

// Validator is a compiled record schema.
type Validator struct {
	fields      []fields.FieldDescriptor
	checks      []fieldCheck
	required    []string
	closed      bool
	known       map[string]struct{}
	table       rules.Table
	coerce      bool
	defaults    bool
	tr          i18n.Translator
	fingerprint uint64
}

var _ wqschema.Validator = (*Validator)(nil)

// Compile builds a Validator from a resolved schema. Errors are fatal
// configuration problems (missing properties, bad patterns, unsupported
// conditional constructs).
func Compile(s *jsonschema.Schema, opts Options) (*Validator, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	fds, err := fields.Extract(s)
	if err != nil {
		return nil, fmt.Errorf("validator: %w", err)
	}
	v := &Validator{
		fields:   fds,
		required: append([]string(nil), s.Required...),
		closed:   s.AdditionalProperties != nil && !*s.AdditionalProperties,
		known:    make(map[string]struct{}, len(s.Properties)),
		coerce:   !opts.NoCoerce,
		defaults: !opts.NoDefaults,
	}
	if opts.Language != "" && opts.Language != "en" {
		v.tr = i18n.For(opts.Language)
	}
	for _, p := range s.Properties {
		cs, err := rules.ConstraintsOf(p.Schema)
		if err != nil {
			return nil, fmt.Errorf("validator: property %q: %w", p.Name, err)
		}
		v.known[p.Name] = struct{}{}
		v.checks = append(v.checks, fieldCheck{
			name:        p.Name,
			typ:         p.Schema.Type,
			nullable:    p.Schema.Nullable,
			def:         p.Schema.Default,
			hasDefault:  p.Schema.HasDefault,
			constraints: cs,
		})
	}
	v.table, err = rules.Build(s)
	if err != nil {
		return nil, fmt.Errorf("validator: %w", err)
	}
	if s.Source != nil {
		raw, err := s.Source.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("validator: fingerprint: %w", err)
		}
		v.fingerprint = fingerprint(raw, opts)
	}
	log.Debug("compiled validator",
		zap.Int("fields", len(v.checks)),
		zap.Int("required", len(v.required)),
		zap.Int("rules", v.table.Len()),
		zap.Bool("closed", v.closed),
		zap.Uint64("fingerprint", v.fingerprint),
	)
	return v, nil
}

// Fields returns the ordered field descriptors the validator was compiled from.
func (v *Validator) Fields() []fields.FieldDescriptor {
	return append([]fields.FieldDescriptor(nil), v.fields...)
}

// Rules returns the conditional rule table.
func (v *Validator) Rules() rules.Table { return v.table }

// Fingerprint identifies the schema and the options the validator was
// compiled with. It is zero for a schema without a source document.
func (v *Validator) Fingerprint() uint64 { return v.fingerprint }

func fingerprint(raw []byte, opts Options) uint64 {
	lang := opts.Language
	if lang == "" {
		lang = "en"
	}
	d := xxhash.New()
	_, _ = d.Write(raw)
	_, _ = d.WriteString(fmt.Sprintf("\x00coerce=%t defaults=%t lang=%s", !opts.NoCoerce, !opts.NoDefaults, lang))
	return d.Sum64()
}

// Validate checks one record and returns every violation in discovery order:
// required fields, additional properties, per-field checks in declaration
// order, then conditional rules. The input record is not modified.
func (v *Validator) Validate(rec wqschema.Record) wqschema.Result {
	out := rec.Clone()
	if v.defaults {
		for i := range v.checks {
			fc := &v.checks[i]
			if _, ok := out[fc.name]; !ok && fc.hasDefault {
				out[fc.name] = fc.def
			}
		}
	}

	typeErrs := make([]bool, len(v.checks))
	for i := range v.checks {
		typeErrs[i] = !v.normalize(&v.checks[i], out)
	}

	var errs wqschema.Errors
	for _, name := range v.required {
		_, present := out[name]
		if e, failed := (rules.Constraint{Kind: rules.Required}).Check(wqschema.Root().Field(name), nil, present); failed {
			errs = append(errs, e)
		}
	}
	if v.closed {
		errs = v.additional(out, errs)
	}
	for i := range v.checks {
		fc := &v.checks[i]
		val, present := out[fc.name]
		if !present {
			continue
		}
		ref := wqschema.Root().Field(fc.name)
		if typeErrs[i] {
			e, _ := (rules.Constraint{Kind: rules.Type, Name: fc.typ}).Check(ref, val, true)
			errs = append(errs, e)
			continue
		}
		if val == nil && fc.nullable {
			continue
		}
		for _, c := range fc.constraints {
			if e, failed := c.Check(ref, val, true); failed {
				errs = append(errs, e)
			}
		}
	}
	errs = append(errs, v.table.Evaluate(out)...)

	if v.tr != nil {
		rules.Localize(errs, v.tr)
	}
	return wqschema.NewResult(out, errs)
}

// normalize coerces the field value in place. It reports false when the value
// has the wrong type and cannot be converted.
func (v *Validator) normalize(fc *fieldCheck, out wqschema.Record) bool {
	val, ok := out[fc.name]
	if !ok || fc.typ == "" {
		return true
	}
	if val == nil && fc.nullable {
		return true
	}
	if codec.IsType(val, fc.typ) {
		return true
	}
	if !v.coerce {
		return false
	}
	cv, ok := codec.Coerce(val, fc.typ)
	if !ok {
		return false
	}
	out[fc.name] = cv
	return true
}

func (v *Validator) additional(out wqschema.Record, errs wqschema.Errors) wqschema.Errors {
	var extra []string
	for k := range out {
		if _, ok := v.known[k]; !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		e := wqschema.Root().Field(k).Error(wqschema.KeywordAdditionalProperties, "", "additionalProperty", k)
		e.Message = i18n.T(wqschema.KeywordAdditionalProperties, map[string]string{"property": k})
		errs = append(errs, e)
	}
	return errs
}
