package wqschema

import (
	"errors"
	"fmt"
	"strings"
)

// Validation keywords (exported consts for IDE completion and type safety by convention)
const (
	KeywordRequired             = "required"
	KeywordEnum                 = "enum"
	KeywordMinimum              = "minimum"
	KeywordMaximum              = "maximum"
	KeywordExclusiveMinimum     = "exclusiveMinimum"
	KeywordExclusiveMaximum     = "exclusiveMaximum"
	KeywordAdditionalProperties = "additionalProperties"
	KeywordOneOf                = "oneOf"
	KeywordAnyOf                = "anyOf"
	KeywordNot                  = "not"
	KeywordDependencies         = "dependencies"
	// General shape checks
	KeywordType      = "type"
	KeywordFormat    = "format"
	KeywordPattern   = "pattern"
	KeywordMinLength = "minLength"
	KeywordMaxLength = "maxLength"
)

// ValidationError represents a single failed constraint.
type ValidationError struct {
	Keyword string // One of the keywords listed above.
	Path    string // JSON Pointer to the offending field (for example: /ResultUnit).
	Message string
	// Params carries structured details such as missingProperty,
	// additionalProperty, passingSchemas or limit.
	Params map[string]any
	// Rule optionally records the conditional rule that produced this error.
	Rule string
}

// Error renders the entry as "keyword at /path".
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s at %s", e.Keyword, e.Path)
}

// Param returns the named parameter, or nil when absent.
func (e ValidationError) Param(name string) any {
	if e.Params == nil {
		return nil
	}
	return e.Params[name]
}

// Errors is a collection of validation errors that implements error.
type Errors []ValidationError

// Error summarizes the first few errors.
func (es Errors) Error() string {
	if len(es) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(es)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(es[i].Error())
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Has reports whether an error with the given keyword exists at path.
func (es Errors) Has(keyword, path string) bool {
	for _, e := range es {
		if e.Keyword == keyword && e.Path == path {
			return true
		}
	}
	return false
}

// AsErrors extracts Errors from an error using errors.As internally.
func AsErrors(err error) (Errors, bool) {
	if err == nil {
		return nil, false
	}
	var es Errors
	if errors.As(err, &es) {
		return es, true
	}
	return nil, false
}
