package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/schemastore/internal/ir"
	"github.com/roach88/schemastore/internal/testutil"
)

const rootSchema = `{
  "$id": "http://example.com/root",
  "type": "object",
  "required": ["name"],
  "properties": {
    "name": {"$ref": "#/definitions/name"},
    "tags": {"type": "array", "items": {"$ref": "other.json#/definitions/tag"}}
  },
  "definitions": {
    "name": {"type": "string", "maxLength": 12345678901234567890}
  }
}`

const otherSchema = `{
  "$id": "http://example.com/other.json",
  "definitions": {
    "tag": {"type": "string"}
  }
}`

func writeSchemas(t *testing.T) string {
	t.Helper()
	return testutil.WriteTree(t, map[string]string{
		"root.json":  rootSchema,
		"other.json": otherSchema,
	})
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func decodeResponse(t *testing.T, out string) (CLIResponse, map[string]any) {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	data, _ := resp.Data.(map[string]any)
	return resp, data
}

// resolve

func TestResolvePointer(t *testing.T) {
	dir := writeSchemas(t)

	out, err := execute(t, NewResolveCommand(&RootOptions{Format: "text"}),
		filepath.Join(dir, "root.json"), "#/definitions/name")
	require.NoError(t, err)
	assert.Contains(t, out, `"type": "string"`)
	// Large integers keep their digits.
	assert.Contains(t, out, "12345678901234567890")
}

func TestResolveThroughIdentifierJSON(t *testing.T) {
	dir := writeSchemas(t)

	out, err := execute(t, NewResolveCommand(&RootOptions{Format: "json"}),
		dir, "http://example.com/other.json#/definitions/tag")
	require.NoError(t, err)

	resp, data := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Session)

	otherURI, err := ir.FileURI(filepath.Join(dir, "other.json"))
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/other.json#/definitions/tag", data["address"])
	assert.Equal(t, otherURI+"#/definitions/tag", data["physical"])
	assert.Equal(t, map[string]any{"type": "string"}, data["value"])
}

func TestResolveFollowsReference(t *testing.T) {
	dir := writeSchemas(t)

	out, err := execute(t, NewResolveCommand(&RootOptions{Format: "json"}),
		filepath.Join(dir, "root.json"), "#/properties/name")
	require.NoError(t, err)

	_, data := decodeResponse(t, out)
	rootURI, err := ir.FileURI(filepath.Join(dir, "root.json"))
	require.NoError(t, err)
	assert.Equal(t, rootURI+"#/definitions/name", data["queued"])
}

func TestResolveMissingPointer(t *testing.T) {
	dir := writeSchemas(t)

	out, err := execute(t, NewResolveCommand(&RootOptions{Format: "text"}),
		filepath.Join(dir, "root.json"), "#/definitions/missing")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "POINTER_UNRESOLVED")
}

func TestResolveNonExistentPath(t *testing.T) {
	out, err := execute(t, NewResolveCommand(&RootOptions{Format: "text"}), "/nonexistent/schema.json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E005")
}

func TestResolveDirectoryNeedsAddress(t *testing.T) {
	out, err := execute(t, NewResolveCommand(&RootOptions{Format: "text"}), writeSchemas(t))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "address is required")
}

func TestResolveWithRewrite(t *testing.T) {
	dir := writeSchemas(t)
	dirURI, err := ir.FileURI(dir)
	require.NoError(t, err)

	opts := &RootOptions{
		Format:   "json",
		Rewrites: []string{"http://mirror.example.com/=" + dirURI + "/"},
	}
	single := testutil.WriteTree(t, map[string]string{
		"entry.json": `{"$ref": "http://mirror.example.com/other.json#/definitions/tag"}`,
	})

	out, err := execute(t, NewResolveCommand(opts), filepath.Join(single, "entry.json"))
	require.NoError(t, err)

	_, data := decodeResponse(t, out)
	assert.Equal(t, dirURI+"/other.json#/definitions/tag", data["queued"])
}

// index

func TestIndexText(t *testing.T) {
	out, err := execute(t, NewIndexCommand(&RootOptions{Format: "text"}), writeSchemas(t))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Indexed 2 document(s): 2 identifier(s), 2 reference(s)")
	assert.Contains(t, out, "http://example.com/root →")
}

func TestIndexCycles(t *testing.T) {
	dir := testutil.WriteTree(t, map[string]string{
		"loop.json": `{"definitions": {"a": {"$ref": "#/definitions/b"}, "b": {"$ref": "#/definitions/a"}}}`,
	})

	out, err := execute(t, NewIndexCommand(&RootOptions{Format: "json"}), dir)
	require.NoError(t, err)

	_, data := decodeResponse(t, out)
	cycles, ok := data["cycles"].([]any)
	require.True(t, ok)
	assert.Len(t, cycles, 1)

	_, err = execute(t, NewIndexCommand(&RootOptions{Format: "text"}), "--fail-on-cycle", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestIndexStrictIdentifiers(t *testing.T) {
	dir := testutil.WriteTree(t, map[string]string{
		"a.json": `{"$id": "http://example.com/dup"}`,
		"b.json": `{"$id": "http://example.com/dup"}`,
	})

	out, err := execute(t, NewIndexCommand(&RootOptions{Format: "text", StrictIDs: true}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "DUPLICATE_IDENTIFIER")
}

// process and show

func TestProcessAndShow(t *testing.T) {
	dir := writeSchemas(t)
	db := filepath.Join(t.TempDir(), "schemastore.db")

	opts := &ProcessOptions{
		RootOptions:      &RootOptions{Format: "json"},
		Database:         db,
		SessionGenerator: testutil.NewFixedSessionGenerator("session-1"),
	}
	buf := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})

	err := runProcess(opts, dir, cmd)
	out := buf.String()
	require.NoError(t, err, out)

	resp, data := decodeResponse(t, out)
	assert.Equal(t, "session-1", resp.Session)

	rootURI, err := ir.FileURI(filepath.Join(dir, "root.json"))
	require.NoError(t, err)
	otherURI, err := ir.FileURI(filepath.Join(dir, "other.json"))
	require.NoError(t, err)

	built, ok := data["built"].([]any)
	require.True(t, ok)
	assert.Contains(t, built, rootURI)
	assert.Contains(t, built, rootURI+"#/definitions/name")
	assert.Contains(t, built, otherURI+"#/definitions/tag")
	assert.NotContains(t, built, rootURI+"#/properties/name")
	assert.Empty(t, data["problems"])

	// show reads the stored snapshot back.
	out, err = execute(t, NewShowCommand(&RootOptions{Format: "json"}), "--db", db, "session-1")
	require.NoError(t, err)
	_, snap := decodeResponse(t, out)
	assert.Equal(t, "session-1", snap["session"])
	assert.Len(t, snap["built"], len(built))

	out, err = execute(t, NewShowCommand(&RootOptions{Format: "text"}), "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "session-1")

	out, err = execute(t, NewShowCommand(&RootOptions{Format: "text"}), "--db", db, "missing")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "session not found")
}

func TestProcessReportsProblems(t *testing.T) {
	dir := testutil.WriteTree(t, map[string]string{
		"bad.json": `{"type": "strng", "required": ["a", "a"]}`,
	})

	out, err := execute(t, NewProcessCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Built 1 schema(s) with 2 problem(s)")
	assert.Contains(t, out, "E201")
	assert.Contains(t, out, "E203")
}

func TestProcessQuota(t *testing.T) {
	dir := writeSchemas(t)

	out, err := execute(t, NewProcessCommand(&RootOptions{Format: "json"}), "--max-builds", "1", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp, _ := decodeResponse(t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "QUOTA_EXCEEDED", resp.Error.Code)
}

func TestShowRequiresDatabase(t *testing.T) {
	out, err := execute(t, NewShowCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "no database")
}
