package wqschema

// Package wqschema provides:
//
// - A stable validation error model (keyword, JSON Pointer path, params)
// - The Record/Result contract of compiled water-quality validators
//
// Layout:
// - jsonschema/ decodes and resolves schema documents (JSON and YAML).
// - fields/ extracts ordered field descriptors.
// - rules/ holds the conditional rule table and its evaluation.
// - validator/ compiles a resolved schema into an immutable Validator.
// - artifact/ derives the CSV header, table schema and SQL DDL.
// - build/ drives all of the above for a set of schema documents.
//
// Typical usage:
//
//  root, err := jsonschema.Decode(data)
//  resolved, err := jsonschema.Resolve(root, jsonschema.ResolveOptions{})
//  s, err := jsonschema.Parse(resolved)
//  v, err := validator.Compile(s, validator.Options{})
//  res := v.Validate(wqschema.Record{"CharacteristicName": "pH", "ResultValue": "7"})
//
