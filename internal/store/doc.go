// Package store provides a SQLite-backed archive of computed summaries.
//
// Each row holds the JSON encoding of one FinalCycleSummary together with
// the run document it was computed from.
//
// # Identity
//
//   - content_hash: SHA-256 over the summary JSON with domain separation
//     (see ContentHash). UNIQUE, so saving an identical summary twice is a
//     no-op that returns the existing row.
//   - id: archive id from an IDGenerator (UUIDv7 by default).
//
// # Ordering
//
// All listings use ORDER BY seq ASC, id ASC COLLATE BINARY. seq is a
// logical counter assigned at insert time, never a timestamp.
//
// # Schema versions
//
// PRAGMA user_version counts the entries of migrations applied on top of
// schema.sql. Version 1 indexes (method, seq) for `history --method`.
package store
