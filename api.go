package wqschema

// Validator is the compiled validation entry point. Implementations are
// immutable after construction and safe for concurrent use.
type Validator interface {
	// Validate checks one record and returns every failed constraint.
	Validate(rec Record) Result
}

// Is returns true if rec passes v.
func Is(v Validator, rec Record) bool {
	return v.Validate(rec).Valid
}

// Check validates rec and returns the error list as an error (nil when valid).
func Check(v Validator, rec Record) error {
	return v.Validate(rec).Err()
}

// NewResult builds a Result from an error list, keeping Valid consistent with
// the list.
func NewResult(rec Record, errs Errors) Result {
	return Result{Valid: len(errs) == 0, Errors: errs, Record: rec}
}
