package ir

import (
	"bytes"
	"slices"
	"unicode/utf16"

	json "github.com/goccy/go-json"
)

// Value kinds reported by KindOf.
const (
	KindObject = "object"
	KindArray  = "array"
	KindString = "string"
	KindNumber = "number"
	KindBool   = "boolean"
	KindNull   = "null"
)

// KindOf names the JSON kind of a document value. Values outside the document
// tree model report their Go type.
func KindOf(v any) string {
	switch v.(type) {
	case map[string]any:
		return KindObject
	case []any:
		return KindArray
	case string:
		return KindString
	case json.Number, float64, float32, int, int64, int32:
		return KindNumber
	case bool:
		return KindBool
	case nil:
		return KindNull
	default:
		return "unknown"
	}
}

// IsContainer reports whether v is a JSON object or array.
func IsContainer(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}

// ToValue converts an arbitrary Go value (structs, typed maps, yaml or cue
// output) into the document tree model by round-tripping it through JSON.
// Numbers come back as json.Number.
func ToValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return DecodeJSON(data)
}

// DecodeJSON parses JSON text into the document tree model, keeping numbers
// as json.Number so integer precision survives.
func DecodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// SortedKeys returns the keys of obj in RFC 8785 order (UTF-16 code units).
func SortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares keys by UTF-16 code units, which differs from
// Go's byte-wise string order for characters outside the BMP.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
