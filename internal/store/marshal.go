package store

import (
	"fmt"

	"github.com/roach88/schemastore/internal/ir"
)

// marshalValue converts a document or result to canonical JSON TEXT for
// storage. Uses RFC 8785 canonical JSON for deterministic serialization.
func marshalValue(v any) (string, error) {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal value: %w", err)
	}
	return string(data), nil
}

// unmarshalValue parses canonical JSON TEXT back into the document tree
// model. Numbers come back as json.Number so integers > 2^53 keep their
// precision.
func unmarshalValue(data string) (any, error) {
	v, err := ir.DecodeJSON([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal value: %w", err)
	}
	return v, nil
}
