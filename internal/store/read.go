package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/schemastore/internal/ir"
)

// ErrSessionNotFound is returned when a session id has no stored snapshot.
var ErrSessionNotFound = errors.New("session not found")

// SessionSummary describes one stored session.
type SessionSummary struct {
	ID        string `json:"id"`
	Documents int    `json:"documents"`
	Built     int    `json:"built"`
	Unbuilt   int    `json:"unbuilt"`
}

// ReadSnapshot returns the snapshot stored for session.
// Returns ErrSessionNotFound if no such session exists.
//
// Slices are returned empty (not nil) when the session has no rows of a kind.
func (s *Store) ReadSnapshot(ctx context.Context, session string) (ir.Snapshot, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, session).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Snapshot{}, fmt.Errorf("read snapshot %s: %w", session, ErrSessionNotFound)
	}
	if err != nil {
		return ir.Snapshot{}, fmt.Errorf("read snapshot %s: %w", session, err)
	}

	snap := ir.Snapshot{Session: session}
	if snap.Documents, err = s.readDocuments(ctx, session); err != nil {
		return ir.Snapshot{}, err
	}
	if snap.Identifiers, err = s.readBindings(ctx, `
		SELECT id, address FROM identifiers
		WHERE session_id = ?
		ORDER BY position ASC
	`, session); err != nil {
		return ir.Snapshot{}, fmt.Errorf("read identifiers: %w", err)
	}
	if snap.References, err = s.readBindings(ctx, `
		SELECT source, target FROM refs
		WHERE session_id = ?
		ORDER BY position ASC
	`, session); err != nil {
		return ir.Snapshot{}, fmt.Errorf("read references: %w", err)
	}
	if snap.Built, err = s.readBuilt(ctx, session); err != nil {
		return ir.Snapshot{}, err
	}
	if snap.Unbuilt, err = s.readUnbuilt(ctx, session); err != nil {
		return ir.Snapshot{}, err
	}
	return snap, nil
}

func (s *Store) readDocuments(ctx context.Context, session string) ([]ir.DocumentEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT uri, digest, content FROM documents
		WHERE session_id = ?
		ORDER BY position ASC
	`, session)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	docs := []ir.DocumentEntry{}
	for rows.Next() {
		var doc ir.DocumentEntry
		var content string
		if err := rows.Scan(&doc.URI, &doc.Digest, &content); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if doc.Content, err = unmarshalValue(content); err != nil {
			return nil, fmt.Errorf("document %q: %w", doc.URI, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func (s *Store) readBindings(ctx context.Context, query, session string) ([]ir.BindingEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, session)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bindings := []ir.BindingEntry{}
	for rows.Next() {
		var b ir.BindingEntry
		if err := rows.Scan(&b.From, &b.To); err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}
	return bindings, rows.Err()
}

func (s *Store) readBuilt(ctx context.Context, session string) ([]ir.BuiltEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT address, seq, digest, result FROM built
		WHERE session_id = ?
		ORDER BY seq ASC, address COLLATE BINARY ASC
	`, session)
	if err != nil {
		return nil, fmt.Errorf("query built: %w", err)
	}
	defer rows.Close()

	built := []ir.BuiltEntry{}
	for rows.Next() {
		var b ir.BuiltEntry
		var result string
		if err := rows.Scan(&b.Address, &b.Seq, &b.Digest, &result); err != nil {
			return nil, fmt.Errorf("scan built: %w", err)
		}
		if b.Result, err = unmarshalValue(result); err != nil {
			return nil, fmt.Errorf("built %q: %w", b.Address, err)
		}
		built = append(built, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate built: %w", err)
	}
	return built, nil
}

func (s *Store) readUnbuilt(ctx context.Context, session string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT address FROM unbuilt
		WHERE session_id = ?
		ORDER BY position ASC
	`, session)
	if err != nil {
		return nil, fmt.Errorf("query unbuilt: %w", err)
	}
	defer rows.Close()

	unbuilt := []string{}
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, fmt.Errorf("scan unbuilt: %w", err)
		}
		unbuilt = append(unbuilt, addr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unbuilt: %w", err)
	}
	return unbuilt, nil
}

// ListSessions returns a summary of every stored session, ordered by id.
// Session ids from UUIDv7Generator sort by creation time.
func (s *Store) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, documents, built, unbuilt FROM sessions
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []SessionSummary{}
	for rows.Next() {
		var sum SessionSummary
		if err := rows.Scan(&sum.ID, &sum.Documents, &sum.Built, &sum.Unbuilt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// SessionsWithDocument returns the ids of sessions that cached a document
// with the given digest, ordered by id.
func (s *Store) SessionsWithDocument(ctx context.Context, digest string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT session_id FROM documents
		WHERE digest = ?
		ORDER BY session_id COLLATE BINARY ASC
	`, digest)
	if err != nil {
		return nil, fmt.Errorf("query sessions by digest: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session ids: %w", err)
	}
	return ids, nil
}
