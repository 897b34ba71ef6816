// Package store provides SQLite-backed persistence for resolution session
// snapshots.
//
// A snapshot records, per session id:
//   - Documents: every cached document with its content digest
//   - Identifiers: $id bindings in declaration order
//   - References: $ref bindings in scan order
//   - Built: builder results ordered by logical seq
//   - Unbuilt: addresses still queued when the snapshot was taken
//
// # Critical Patterns
//
// Idempotent writes:
//   - Every INSERT uses ON CONFLICT DO NOTHING
//   - Writing the same snapshot twice leaves one copy
//
// Deterministic reads:
//   - Ordering uses position or seq columns, NEVER timestamps or rowid
//   - Reading a snapshot back yields the value that was written
//
// Canonical content:
//   - Documents and results are stored as RFC 8785 canonical JSON
//   - Digests come from internal/ir/hash.go
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
