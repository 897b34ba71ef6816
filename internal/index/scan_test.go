package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/schemastore/internal/ir"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	v, err := ir.DecodeJSON([]byte(s))
	require.NoError(t, err)
	return v
}

func scan(t *testing.T, uri, doc string) (*Identifiers, *References) {
	t.Helper()
	ids := NewIdentifiers(false)
	refs := NewReferences()
	require.NoError(t, NewScanner(ids, refs, nil).Scan(uri, decode(t, doc)))
	return ids, refs
}

func TestScan_RootIdentifierAndLocalRef(t *testing.T) {
	ids, refs := scan(t, "file:///s.json", `{
		"$id": "http://ex.com/root",
		"definitions": {"a": {"type": "string"}},
		"properties": {"x": {"$ref": "#/definitions/a"}}
	}`)

	at, ok := ids.Lookup(ir.MustParseAddress("http://ex.com/root"))
	require.True(t, ok)
	assert.Equal(t, ir.MustParseAddress("file:///s.json"), at)

	// A '#' ref resolves against the physical document, not the identifier.
	target, ok := refs.Target(ir.MustParseAddress("file:///s.json#/properties/x"))
	require.True(t, ok)
	assert.Equal(t, ir.MustParseAddress("file:///s.json#/definitions/a"), target)
}

func TestScan_NestedIdentifierRebasesSubtree(t *testing.T) {
	ids, refs := scan(t, "file:///s.json", `{
		"$id": "http://ex.com/dir/root.json",
		"items": {
			"$id": "child.json",
			"$ref": "other.json"
		},
		"sibling": {"$ref": "other.json"}
	}`)

	at, ok := ids.Lookup(ir.MustParseAddress("http://ex.com/dir/child.json"))
	require.True(t, ok)
	assert.Equal(t, ir.MustParseAddress("file:///s.json#/items"), at)

	target, ok := refs.Target(ir.MustParseAddress("file:///s.json#/items"))
	require.True(t, ok)
	assert.Equal(t, "http://ex.com/dir/other.json", target.String())

	target, ok = refs.Target(ir.MustParseAddress("file:///s.json#/sibling"))
	require.True(t, ok)
	assert.Equal(t, "http://ex.com/dir/other.json", target.String())
}

func TestScan_IdentifierDoesNotLeakToSiblings(t *testing.T) {
	ids, refs := scan(t, "file:///dir/s.json", `{
		"a": {"$id": "http://ex.com/scoped/", "b": {"$ref": "x.json"}},
		"c": {"$ref": "x.json"}
	}`)

	assert.Equal(t, 1, ids.Len())

	target, _ := refs.Target(ir.MustParseAddress("file:///dir/s.json#/a/b"))
	assert.Equal(t, "http://ex.com/scoped/x.json", target.String())

	target, _ = refs.Target(ir.MustParseAddress("file:///dir/s.json#/c"))
	assert.Equal(t, "file:///dir/x.json", target.String())
}

func TestScan_ArraysAndEscapedKeys(t *testing.T) {
	_, refs := scan(t, "file:///s.json", `{
		"allOf": [{"type": "object"}, {"$ref": "#/defs/a~b"}],
		"paths": {"/pets": {"$ref": "#/defs/pet"}}
	}`)

	_, ok := refs.Target(ir.MustParseAddress("file:///s.json#/allOf/1"))
	assert.True(t, ok)

	_, ok = refs.Target(ir.Address{Document: "file:///s.json", Fragment: "/paths/~1pets"})
	assert.True(t, ok)
}

func TestScan_BaseDocument(t *testing.T) {
	ids, refs := scan(t, "", `{"$ref": "#/definitions/a", "definitions": {"a": {"$ref": "http://ex.com/remote.json"}}}`)

	assert.Equal(t, 0, ids.Len())

	target, ok := refs.Target(ir.Base)
	require.True(t, ok)
	assert.Equal(t, ir.Address{Fragment: "/definitions/a"}, target)

	target, ok = refs.Target(ir.Address{Fragment: "/definitions/a"})
	require.True(t, ok)
	assert.Equal(t, "http://ex.com/remote.json", target.String())
}

func TestScan_NonStringKeywordsIgnored(t *testing.T) {
	ids, refs := scan(t, "file:///s.json", `{"$id": 5, "properties": {"$ref": {"type": "string"}}}`)
	assert.Equal(t, 0, ids.Len())
	assert.Equal(t, 0, refs.Len())
}

func TestScan_StrictDuplicateFails(t *testing.T) {
	ids := NewIdentifiers(true)
	refs := NewReferences()
	s := NewScanner(ids, refs, nil)

	require.NoError(t, s.Scan("file:///a.json", decode(t, `{"$id": "http://ex.com/x"}`)))
	err := s.Scan("file:///b.json", decode(t, `{"$id": "http://ex.com/x"}`))
	require.Error(t, err)
	assert.True(t, ir.IsDuplicateIdentifierError(err))
}

func TestScan_FailedScanBindsNothing(t *testing.T) {
	ids := NewIdentifiers(true)
	refs := NewReferences()
	s := NewScanner(ids, refs, nil)

	require.NoError(t, s.Scan("file:///a.json", decode(t, `{"$id": "http://ex.com/x"}`)))
	err := s.Scan("file:///b.json", decode(t, `{
		"a": {"$id": "http://ex.com/fresh", "$ref": "#/c"},
		"b": {"$id": "http://ex.com/x"}
	}`))
	require.Error(t, err)
	assert.True(t, ir.IsDuplicateIdentifierError(err))

	assert.Equal(t, 1, ids.Len())
	_, ok := ids.Lookup(ir.MustParseAddress("http://ex.com/fresh"))
	assert.False(t, ok)
	assert.Equal(t, 0, refs.Len())
}

func TestScan_StrictDuplicateWithinDocument(t *testing.T) {
	ids := NewIdentifiers(true)
	refs := NewReferences()

	err := NewScanner(ids, refs, nil).Scan("file:///a.json", decode(t, `{
		"a": {"$id": "http://ex.com/x"},
		"b": {"$id": "http://ex.com/x"}
	}`))
	assert.True(t, ir.IsDuplicateIdentifierError(err))
	assert.Equal(t, 0, ids.Len())
}

func TestScan_MalformedURI(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"identifier", `{"definitions": {"a": {"$ref": "#/b"}}, "$id": "http://[::1"}`},
		{"reference", `{"$id": "http://ex.com/ok", "properties": {"x": {"$ref": "http://[::1"}}}`},
		{"fragment reference", `{"properties": {"x": {"$ref": "http://[::1#/a"}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := NewIdentifiers(false)
			refs := NewReferences()

			err := NewScanner(ids, refs, nil).Scan("file:///m.json", decode(t, tt.doc))
			require.Error(t, err)
			assert.True(t, ir.IsURIError(err))
			assert.Equal(t, 0, ids.Len())
			assert.Equal(t, 0, refs.Len())
		})
	}
}

func TestScan_DeterministicOrder(t *testing.T) {
	doc := `{"z": {"$ref": "#/a"}, "a": {"$ref": "#/m"}, "m": {"$ref": "#/z"}}`
	_, first := scan(t, "file:///o.json", doc)
	_, second := scan(t, "file:///o.json", doc)

	assert.Equal(t, first.All(), second.All())
	assert.Equal(t, "file:///o.json#/a", first.All()[0].From.String())
}

func TestScan_AllOfAliasBindsReference(t *testing.T) {
	_, refs := scan(t, "", `{"allOf": [{"$ref": "#/definitions/a"}], "definitions": {"a": {"type": "number"}}}`)

	target, ok := refs.Target(ir.Base)
	require.True(t, ok, "a lone allOf $ref makes the node an alias")
	assert.Equal(t, ir.Address{Fragment: "/definitions/a"}, target)

	// The element itself is still a reference node.
	_, ok = refs.Target(ir.Address{Fragment: "/allOf/0"})
	assert.True(t, ok)
}

func TestScan_AllOfAliasNeutralKeywords(t *testing.T) {
	_, refs := scan(t, "file:///w.json", `{
		"$id": "http://ex.com/w",
		"$schema": "http://json-schema.org/draft-07/schema#",
		"$comment": "wrapper",
		"allOf": [{"$ref": "#/definitions/d"}],
		"definitions": {"d": {"type": "string"}},
		"$defs": {}
	}`)

	target, ok := refs.Target(ir.MustParseAddress("file:///w.json"))
	require.True(t, ok)
	assert.Equal(t, "file:///w.json#/definitions/d", target.String())
	assert.Equal(t, []string{"$comment", "$defs", "$id", "$schema", "allOf", "definitions"}, AliasNeutralKeywords())
}

func TestScan_AllOfWithConstraintsIsNotAlias(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"sibling constraint", `{"allOf": [{"$ref": "#/d"}], "type": "object"}`},
		{"two members", `{"allOf": [{"$ref": "#/d"}, {"required": ["x"]}]}`},
		{"element with extras", `{"allOf": [{"$ref": "#/d", "minimum": 1}]}`},
		{"titled", `{"allOf": [{"$ref": "#/d"}], "title": "Named"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, refs := scan(t, "file:///w.json", tt.doc)
			_, ok := refs.Target(ir.MustParseAddress("file:///w.json"))
			assert.False(t, ok)
		})
	}
}
