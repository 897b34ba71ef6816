package schema

import (
	"fmt"
	"slices"
)

// Validation error codes (E200-E299)
const (
	ErrUnknownType        = "E201" // type name is not a JSON Schema type
	ErrDuplicateType      = "E202" // type listed twice
	ErrDuplicateRequired  = "E203" // required property listed twice
	ErrEmptyEnum          = "E204" // enum allows nothing
	ErrUndeclaredRequired = "E205" // required property cannot exist
)

// ValidationError represents a structural problem in a compiled schema.
type ValidationError struct {
	Address string `json:"address"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s: %s", e.Code, e.Address, e.Field, e.Message)
}

var validTypes = []string{"array", "boolean", "integer", "null", "number", "object", "string"}

// Validate checks s for structural problems.
// Returns all errors found (does not fail-fast).
func Validate(s *Schema) []ValidationError {
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{
			Address: s.Address,
			Field:   field,
			Message: fmt.Sprintf(format, args...),
			Code:    code,
		})
	}

	seenTypes := make(map[string]bool, len(s.Types))
	for _, t := range s.Types {
		if !slices.Contains(validTypes, t) {
			add("type", ErrUnknownType, "unknown type %q", t)
		}
		if seenTypes[t] {
			add("type", ErrDuplicateType, "type %q listed more than once", t)
		}
		seenTypes[t] = true
	}

	seenRequired := make(map[string]bool, len(s.Required))
	for _, name := range s.Required {
		if seenRequired[name] {
			add("required", ErrDuplicateRequired, "property %q listed more than once", name)
		}
		seenRequired[name] = true

		if s.Closed && !s.declares(name) {
			add("required", ErrUndeclaredRequired,
				"property %q is required but additional properties are not allowed", name)
		}
	}

	if s.Enum != nil && len(s.Enum) == 0 {
		add("enum", ErrEmptyEnum, "enum must allow at least one value")
	}

	return errs
}

func (s *Schema) declares(name string) bool {
	if _, ok := s.Properties[name]; ok {
		return true
	}
	return len(s.PatternProperties) > 0
}
