// Package ir provides the foundational value types for schemastore.
//
// This package contains the Address type, JSON Pointer and URI helpers,
// the structured error model, and canonical JSON serialization of parsed
// documents. All other internal packages import ir; ir imports nothing
// internal. This keeps ir as the foundational layer with no circular
// dependencies.
//
// Key design constraints:
//   - Address is a comparable value and is used directly as a map key
//   - Fragments are stored decoded; percent-encoding only happens in String()
//   - Document values are the goccy/go-json "any" tree with json.Number numbers
package ir
