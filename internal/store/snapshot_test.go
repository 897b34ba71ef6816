package store

import (
	"context"
	"errors"
	"testing"

	json "github.com/goccy/go-json"
)

func TestWriteSnapshot_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	want := createTestSnapshot("session-1")
	if err := s.WriteSnapshot(ctx, want); err != nil {
		t.Fatalf("WriteSnapshot() failed: %v", err)
	}

	got, err := s.ReadSnapshot(ctx, "session-1")
	if err != nil {
		t.Fatalf("ReadSnapshot() failed: %v", err)
	}

	if got.Session != want.Session {
		t.Errorf("Session = %q, want %q", got.Session, want.Session)
	}
	if len(got.Documents) != 2 {
		t.Fatalf("len(Documents) = %d, want 2", len(got.Documents))
	}
	// Position order is preserved, not URI order.
	if got.Documents[0].URI != "file:///s/root.json" || got.Documents[1].URI != "file:///s/other.json" {
		t.Errorf("document order = [%s %s]", got.Documents[0].URI, got.Documents[1].URI)
	}
	root, ok := got.Documents[0].Content.(map[string]any)
	if !ok {
		t.Fatalf("root content is %T, want map", got.Documents[0].Content)
	}
	defs := root["definitions"].(map[string]any)
	a := defs["a"].(map[string]any)
	if a["maxLength"] != json.Number("3") {
		t.Errorf("maxLength = %#v, want json.Number(\"3\")", a["maxLength"])
	}

	if len(got.Identifiers) != 1 || got.Identifiers[0] != want.Identifiers[0] {
		t.Errorf("Identifiers = %v, want %v", got.Identifiers, want.Identifiers)
	}
	if len(got.References) != 1 || got.References[0] != want.References[0] {
		t.Errorf("References = %v, want %v", got.References, want.References)
	}

	if len(got.Built) != 2 {
		t.Fatalf("len(Built) = %d, want 2", len(got.Built))
	}
	for i, b := range got.Built {
		if b.Seq != int64(i+1) {
			t.Errorf("Built[%d].Seq = %d, want %d", i, b.Seq, i+1)
		}
		if b.Address != want.Built[i].Address || b.Digest != want.Built[i].Digest {
			t.Errorf("Built[%d] = %s/%s, want %s/%s", i, b.Address, b.Digest, want.Built[i].Address, want.Built[i].Digest)
		}
	}

	if len(got.Unbuilt) != 1 || got.Unbuilt[0] != "file:///s/other.json" {
		t.Errorf("Unbuilt = %v", got.Unbuilt)
	}
}

func TestWriteSnapshot_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	snap := createTestSnapshot("session-1")
	if err := s.WriteSnapshot(ctx, snap); err != nil {
		t.Fatalf("first WriteSnapshot() failed: %v", err)
	}

	// A second write with different content is ignored.
	changed := createTestSnapshot("session-1")
	changed.Unbuilt = []string{"a", "b", "c"}
	if err := s.WriteSnapshot(ctx, changed); err != nil {
		t.Fatalf("second WriteSnapshot() failed: %v", err)
	}

	got, err := s.ReadSnapshot(ctx, "session-1")
	if err != nil {
		t.Fatalf("ReadSnapshot() failed: %v", err)
	}
	if len(got.Unbuilt) != 1 {
		t.Errorf("Unbuilt = %v, want the first write's rows", got.Unbuilt)
	}
}

func TestWriteSnapshot_EmptySession(t *testing.T) {
	s := createTestStore(t)

	if err := s.WriteSnapshot(context.Background(), createTestSnapshot("")); err == nil {
		t.Error("expected error for empty session id, got nil")
	}
}

func TestReadSnapshot_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadSnapshot(context.Background(), "nope")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("ReadSnapshot() error = %v, want ErrSessionNotFound", err)
	}
}

func TestReadSnapshot_EmptySlices(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.WriteSnapshot(ctx, createTestSnapshot("full")); err != nil {
		t.Fatalf("WriteSnapshot() failed: %v", err)
	}
	snap := createTestSnapshot("empty")
	snap.Documents = nil
	snap.Identifiers = nil
	snap.References = nil
	snap.Built = nil
	snap.Unbuilt = nil
	if err := s.WriteSnapshot(ctx, snap); err != nil {
		t.Fatalf("WriteSnapshot() failed: %v", err)
	}

	got, err := s.ReadSnapshot(ctx, "empty")
	if err != nil {
		t.Fatalf("ReadSnapshot() failed: %v", err)
	}
	if got.Documents == nil || got.Identifiers == nil || got.References == nil || got.Built == nil || got.Unbuilt == nil {
		t.Errorf("expected empty non-nil slices, got %+v", got)
	}
	if len(got.Documents) != 0 || len(got.Built) != 0 {
		t.Errorf("rows leaked across sessions: %+v", got)
	}
}

func TestListSessions(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"b", "a", "c"} {
		if err := s.WriteSnapshot(ctx, createTestSnapshot(id)); err != nil {
			t.Fatalf("WriteSnapshot(%s) failed: %v", id, err)
		}
	}

	sessions, err := s.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions() failed: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("len(sessions) = %d, want 3", len(sessions))
	}
	for i, want := range []string{"a", "b", "c"} {
		if sessions[i].ID != want {
			t.Errorf("sessions[%d].ID = %q, want %q", i, sessions[i].ID, want)
		}
	}
	if sessions[0].Documents != 2 || sessions[0].Built != 2 || sessions[0].Unbuilt != 1 {
		t.Errorf("summary = %+v, want 2 documents, 2 built, 1 unbuilt", sessions[0])
	}
}

func TestSessionsWithDocument(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first := createTestSnapshot("s2")
	second := createTestSnapshot("s1")
	second.Documents = second.Documents[1:]
	if err := s.WriteSnapshot(ctx, first); err != nil {
		t.Fatalf("WriteSnapshot() failed: %v", err)
	}
	if err := s.WriteSnapshot(ctx, second); err != nil {
		t.Fatalf("WriteSnapshot() failed: %v", err)
	}

	ids, err := s.SessionsWithDocument(ctx, "digest-other")
	if err != nil {
		t.Fatalf("SessionsWithDocument() failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != "s1" || ids[1] != "s2" {
		t.Errorf("SessionsWithDocument(digest-other) = %v, want [s1 s2]", ids)
	}

	ids, err = s.SessionsWithDocument(ctx, "digest-root")
	if err != nil {
		t.Fatalf("SessionsWithDocument() failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != "s2" {
		t.Errorf("SessionsWithDocument(digest-root) = %v, want [s2]", ids)
	}
}

func TestDeleteSession(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.WriteSnapshot(ctx, createTestSnapshot("s1")); err != nil {
		t.Fatalf("WriteSnapshot() failed: %v", err)
	}
	if err := s.DeleteSession(ctx, "s1"); err != nil {
		t.Fatalf("DeleteSession() failed: %v", err)
	}
	if _, err := s.ReadSnapshot(ctx, "s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("ReadSnapshot() after delete error = %v, want ErrSessionNotFound", err)
	}
	// Unknown session is not an error.
	if err := s.DeleteSession(ctx, "s1"); err != nil {
		t.Errorf("DeleteSession() on missing session failed: %v", err)
	}
}
