package store

import (
	"fmt"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/roach88/schemastore/internal/ir"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSnapshot creates a small snapshot with one of every row kind.
func createTestSnapshot(session string) ir.Snapshot {
	doc := map[string]any{
		"$id": "http://x/root",
		"definitions": map[string]any{
			"a": map[string]any{"type": "string", "maxLength": json.Number("3")},
			"b": map[string]any{"$ref": "#/definitions/a"},
		},
	}
	result := map[string]any{"type": []any{"string"}}
	return ir.Snapshot{
		Session: session,
		Documents: []ir.DocumentEntry{
			{URI: "file:///s/root.json", Digest: "digest-root", Content: doc},
			{URI: "file:///s/other.json", Digest: "digest-other", Content: []any{true, nil}},
		},
		Identifiers: []ir.BindingEntry{
			{From: "http://x/root", To: "file:///s/root.json"},
		},
		References: []ir.BindingEntry{
			{From: "file:///s/root.json#/definitions/b", To: "file:///s/root.json#/definitions/a"},
		},
		Built: []ir.BuiltEntry{
			{Address: "file:///s/root.json#/definitions/a", Seq: 1, Digest: "r1", Result: result},
			{Address: "file:///s/root.json", Seq: 2, Digest: "r2", Result: map[string]any{}},
		},
		Unbuilt: []string{"file:///s/other.json"},
	}
}

// verifyPragma checks that a pragma is set to the expected value.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
