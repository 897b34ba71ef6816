package ir

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"number literal", json.Number("1.50"), "1.50"},
		{"int", 42, "42"},
		{"negative int64", int64(-100), "-100"},
		{"bool true", true, "true"},
		{"null", nil, "null"},
		{"empty array", []any{}, "[]"},
		{"empty object", map[string]any{}, "{}"},
		{"simple object", map[string]any{"a": json.Number("1")}, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := map[string]any{
		"zebra": 1,
		"alpha": 2,
		"beta":  map[string]any{"y": true, "x": false},
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"beta":{"x":false,"y":true},"zebra":1}`, string(result))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	result, err := MarshalCanonical("<a & b>")
	require.NoError(t, err)
	assert.Equal(t, `"<a & b>"`, string(result))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	// "e" followed by combining acute accent normalizes to U+00E9.
	result, err := MarshalCanonical("e\u0301")
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(result))
}

func TestMarshalCanonicalStruct(t *testing.T) {
	type outline struct {
		Type string `json:"type"`
		Min  int    `json:"min"`
	}

	result, err := MarshalCanonical(outline{Type: "string", Min: 1})
	require.NoError(t, err)
	assert.Equal(t, `{"min":1,"type":"string"}`, string(result))
}

func TestDocumentDigest_KeyOrderIndependent(t *testing.T) {
	a, err := DecodeJSON([]byte(`{"a": 1, "b": [true, null]}`))
	require.NoError(t, err)
	b, err := DecodeJSON([]byte(`{"b":[true,null],"a":1}`))
	require.NoError(t, err)

	da, err := DocumentDigest(a)
	require.NoError(t, err)
	db, err := DocumentDigest(b)
	require.NoError(t, err)

	assert.Equal(t, da, db)
	assert.Len(t, da, 64)

	dr, err := ResultDigest(a)
	require.NoError(t, err)
	assert.NotEqual(t, da, dr, "domain separation should change the digest")
}
