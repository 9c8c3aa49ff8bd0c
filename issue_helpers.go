package wqschema

// ErrorAt creates a ValidationError at the given path with provided keyword, message and params map.
// This is a convenience helper to improve readability at call sites with many parameters.
func ErrorAt(p PathRef, keyword, msg string, params map[string]any) ValidationError {
	return ValidationError{Path: p.Pointer(), Keyword: keyword, Message: msg, Params: params}
}
