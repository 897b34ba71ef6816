package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/schemastore/internal/ir"
)

// WriteSnapshot stores snap under snap.Session in a single transaction.
//
// Uses ON CONFLICT DO NOTHING for idempotency: writing a session that already
// exists leaves the stored rows untouched and returns nil.
func (s *Store) WriteSnapshot(ctx context.Context, snap ir.Snapshot) error {
	if snap.Session == "" {
		return fmt.Errorf("write snapshot: empty session id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write snapshot: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (id, documents, built, unbuilt)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, snap.Session, len(snap.Documents), len(snap.Built), len(snap.Unbuilt))
	if err != nil {
		return fmt.Errorf("write snapshot: insert session: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("write snapshot: rows affected: %w", err)
	}
	if rows == 0 {
		// Session already stored.
		return nil
	}

	writers := []func(context.Context, *sql.Tx, ir.Snapshot) error{
		writeDocuments,
		writeIdentifiers,
		writeReferences,
		writeBuilt,
		writeUnbuilt,
	}
	for _, write := range writers {
		if err := write(ctx, tx, snap); err != nil {
			return fmt.Errorf("write snapshot %s: %w", snap.Session, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write snapshot: commit: %w", err)
	}
	return nil
}

func writeDocuments(ctx context.Context, tx *sql.Tx, snap ir.Snapshot) error {
	for i, doc := range snap.Documents {
		content, err := marshalValue(doc.Content)
		if err != nil {
			return fmt.Errorf("document %q: %w", doc.URI, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO documents (session_id, position, uri, digest, content)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, snap.Session, i, doc.URI, doc.Digest, content)
		if err != nil {
			return fmt.Errorf("insert document %q: %w", doc.URI, err)
		}
	}
	return nil
}

func writeIdentifiers(ctx context.Context, tx *sql.Tx, snap ir.Snapshot) error {
	for i, b := range snap.Identifiers {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO identifiers (session_id, position, id, address)
			VALUES (?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, snap.Session, i, b.From, b.To)
		if err != nil {
			return fmt.Errorf("insert identifier %q: %w", b.From, err)
		}
	}
	return nil
}

func writeReferences(ctx context.Context, tx *sql.Tx, snap ir.Snapshot) error {
	for i, b := range snap.References {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO refs (session_id, position, source, target)
			VALUES (?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, snap.Session, i, b.From, b.To)
		if err != nil {
			return fmt.Errorf("insert reference %q: %w", b.From, err)
		}
	}
	return nil
}

func writeBuilt(ctx context.Context, tx *sql.Tx, snap ir.Snapshot) error {
	for _, b := range snap.Built {
		result, err := marshalValue(b.Result)
		if err != nil {
			return fmt.Errorf("result %q: %w", b.Address, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO built (session_id, seq, address, digest, result)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, snap.Session, b.Seq, b.Address, b.Digest, result)
		if err != nil {
			return fmt.Errorf("insert built %q: %w", b.Address, err)
		}
	}
	return nil
}

func writeUnbuilt(ctx context.Context, tx *sql.Tx, snap ir.Snapshot) error {
	for i, addr := range snap.Unbuilt {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO unbuilt (session_id, position, address)
			VALUES (?, ?, ?)
			ON CONFLICT DO NOTHING
		`, snap.Session, i, addr)
		if err != nil {
			return fmt.Errorf("insert unbuilt %q: %w", addr, err)
		}
	}
	return nil
}

// DeleteSession removes a session and all its rows. Deleting an unknown
// session is not an error.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}
