package wqschema

// Record is one flat monitoring observation keyed by column name. Values are
// strings (as read from CSV) or already typed scalars.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Result is the outcome of validating one record.
type Result struct {
	// Valid is true iff Errors is empty.
	Valid bool
	// Errors lists every failed constraint in discovery order.
	Errors Errors
	// Record is the coerced copy of the input with defaults applied. The input
	// record is never modified.
	Record Record
}

// Err returns Errors as an error, or nil when the record is valid.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return r.Errors
}
