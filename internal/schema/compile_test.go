package schema

import (
	"context"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/schemastore/internal/engine"
	"github.com/roach88/schemastore/internal/index"
	"github.com/roach88/schemastore/internal/ir"
	"github.com/roach88/schemastore/internal/testutil"
)

func processDocs(t *testing.T, root string, docs map[string]string) *engine.Engine {
	t.Helper()
	e := engine.New(Builder(),
		engine.WithFetcher(testutil.NewMapFetcher(docs)),
		engine.WithSessionGenerator(engine.NewFixedGenerator("test-session")),
	)
	ctx := context.Background()
	_, err := e.FollowAndQueue(ctx, ir.MustParseAddress(root))
	require.NoError(t, err)
	require.NoError(t, e.Process(ctx))
	return e
}

func outline(t *testing.T, e *engine.Engine, addr string) *Schema {
	t.Helper()
	v, ok := e.Result(ir.MustParseAddress(addr))
	require.True(t, ok, "%s not built", addr)
	s, ok := v.(*Schema)
	require.True(t, ok)
	return s
}

func TestCompile_ObjectSchema(t *testing.T) {
	e := processDocs(t, "http://ex/pet.json", map[string]string{
		"http://ex/pet.json": `{
			"$id": "http://ex/pet.json",
			"title": "Pet",
			"type": "object",
			"required": ["name"],
			"properties": {
				"name": {"type": "string"},
				"tag": {"$ref": "#/definitions/tag"},
				"owner": {"$ref": "http://ex/person.json"}
			},
			"additionalProperties": false,
			"definitions": {"tag": {"type": "string", "format": "slug"}}
		}`,
		"http://ex/person.json": `{"type": ["object", "null"]}`,
	})

	pet := outline(t, e, "http://ex/pet.json")
	assert.Equal(t, "Pet", pet.Title)
	assert.Equal(t, []string{"object"}, pet.Types)
	assert.Equal(t, []string{"name"}, pet.Required)
	assert.True(t, pet.Closed)
	assert.Equal(t, map[string]string{
		"name":  "http://ex/pet.json#/properties/name",
		"tag":   "http://ex/pet.json#/definitions/tag",
		"owner": "http://ex/person.json",
	}, pet.Properties)

	tag := outline(t, e, "http://ex/pet.json#/definitions/tag")
	assert.Equal(t, "slug", tag.Format)

	person := outline(t, e, "http://ex/person.json")
	assert.Equal(t, []string{"object", "null"}, person.Types)

	closed := outline(t, e, "http://ex/pet.json#/additionalProperties")
	require.NotNil(t, closed.Boolean)
	assert.False(t, *closed.Boolean)

	assert.Len(t, e.Built(), 5)
}

func TestCompile_ArraysAndCombinators(t *testing.T) {
	e := processDocs(t, "http://ex/s.json", map[string]string{
		"http://ex/s.json": `{
			"anyOf": [{"type": "string"}, {"$ref": "#/definitions/list"}],
			"not": {"const": 3},
			"definitions": {
				"list": {"type": "array", "items": {"enum": [1, 2]}},
				"tuple": {"items": [{"type": "string"}, true]}
			}
		}`,
	})

	root := outline(t, e, "http://ex/s.json")
	assert.Equal(t, []string{"http://ex/s.json#/anyOf/0", "http://ex/s.json#/definitions/list"}, root.AnyOf)
	assert.Equal(t, "http://ex/s.json#/not", root.Not)

	not := outline(t, e, "http://ex/s.json#/not")
	assert.Equal(t, []any{json.Number("3")}, not.Enum)

	list := outline(t, e, "http://ex/s.json#/definitions/list")
	assert.Equal(t, "http://ex/s.json#/definitions/list/items", list.Items)

	// Unreferenced definitions are not compiled.
	_, built := e.Result(ir.MustParseAddress("http://ex/s.json#/definitions/tuple"))
	assert.False(t, built)
}

func TestCompile_TupleItems(t *testing.T) {
	e := processDocs(t, "http://ex/t.json", map[string]string{
		"http://ex/t.json": `{"items": [{"type": "string"}, true], "prefixItems": [{"type": "number"}]}`,
	})

	root := outline(t, e, "http://ex/t.json")
	assert.Empty(t, root.Items)
	assert.Equal(t, []string{"http://ex/t.json#/prefixItems/0"}, root.PrefixItems, "prefixItems wins over tuple items")
}

func TestCompile_RecursiveSchemaTerminates(t *testing.T) {
	e := processDocs(t, "http://ex/tree.json", map[string]string{
		"http://ex/tree.json": `{
			"type": "object",
			"properties": {"children": {"type": "array", "items": {"$ref": "#"}}}
		}`,
	})

	children := outline(t, e, "http://ex/tree.json#/properties/children")
	assert.Equal(t, "http://ex/tree.json", children.Items)
	assert.Len(t, e.Built(), 2)
}

func TestCompile_EscapedPropertyNames(t *testing.T) {
	e := processDocs(t, "http://ex/p.json", map[string]string{
		"http://ex/p.json": `{"properties": {"a/b": {"type": "string"}, "c~d": {"type": "string"}}}`,
	})

	root := outline(t, e, "http://ex/p.json")
	assert.Equal(t, "http://ex/p.json#/properties/a~1b", root.Properties["a/b"])
	assert.Equal(t, "http://ex/p.json#/properties/c~0d", root.Properties["c~d"])
	outline(t, e, "http://ex/p.json#/properties/a~1b")
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		keyword string
	}{
		{"title not string", `{"title": 5}`, "title"},
		{"properties not object", `{"properties": []}`, "properties"},
		{"allOf not array", `{"allOf": {}}`, "allOf"},
		{"required element", `{"required": ["a", 1]}`, "required/1"},
		{"scalar subschema", `{"not": "nope"}`, "not"},
		{"scalar list subschema", `{"anyOf": [{}, 4]}`, "anyOf/1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := engine.New(Builder(),
				engine.WithFetcher(testutil.NewMapFetcher(map[string]string{"http://ex/bad.json": tt.doc})),
				engine.WithSessionGenerator(engine.NewFixedGenerator("s")),
			)
			ctx := context.Background()
			_, err := e.FollowAndQueue(ctx, ir.MustParseAddress("http://ex/bad.json"))
			require.NoError(t, err)

			err = e.Process(ctx)
			require.Error(t, err)
			assert.True(t, ir.IsBuildError(err))

			var cerr *CompileError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.keyword, cerr.Keyword)
			assert.Equal(t, "http://ex/bad.json", cerr.Address)
		})
	}
}

func TestCompile_NonSchemaValue(t *testing.T) {
	e := engine.New(nil,
		engine.WithFetcher(testutil.NewMapFetcher(map[string]string{"http://ex/a.json": `{"x": 5}`})),
		engine.WithSessionGenerator(engine.NewFixedGenerator("s")),
	)

	_, err := Compile(context.Background(), e, ir.MustParseAddress("http://ex/a.json#/x"))
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Message, "got number")
}

func TestSchema_Subschemas(t *testing.T) {
	s := &Schema{
		Properties: map[string]string{"b": "B", "a": "A"},
		Items:      "I",
		AllOf:      []string{"X", "Y"},
		Not:        "N",
	}
	assert.Equal(t, []string{"A", "B", "I", "X", "Y", "N"}, s.Subschemas())
}

func TestCompile_SlashFragmentIsRoot(t *testing.T) {
	e := processDocs(t, "http://ex/tree.json#/", map[string]string{
		"http://ex/tree.json": `{
			"type": "object",
			"properties": {
				"self": {"$ref": "#/"},
				"name": {"type": "string"}
			}
		}`,
	})

	assert.Empty(t, e.Unbuilt())
	require.Len(t, e.Built(), 2)

	root := outline(t, e, "http://ex/tree.json")
	assert.Equal(t, map[string]string{
		"self": "http://ex/tree.json",
		"name": "http://ex/tree.json#/properties/name",
	}, root.Properties)
}

func TestCompile_IgnoresAliasNeutralKeywords(t *testing.T) {
	samples := map[string]string{
		"$schema":     `"http://json-schema.org/draft-07/schema#"`,
		"$comment":    `"note"`,
		"$defs":       `{"x": {"type": "string"}}`,
		"definitions": `{"x": {"type": "string"}}`,
	}

	for _, kw := range index.AliasNeutralKeywords() {
		if kw == index.KeywordID || kw == index.KeywordAllOf {
			continue
		}
		t.Run(kw, func(t *testing.T) {
			raw, ok := samples[kw]
			require.True(t, ok, "no sample value for %s", kw)

			e := processDocs(t, "http://ex/n.json", map[string]string{
				"http://ex/n.json": `{"` + kw + `": ` + raw + `}`,
			})
			assert.Equal(t, &Schema{Address: "http://ex/n.json"}, outline(t, e, "http://ex/n.json"))
		})
	}
}
