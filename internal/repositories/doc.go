// Package repositories implements SQLite persistence for users and ingestion snapshots.
//
// Key Implementations:
//   - [UserRepository] : account persistence with username/email uniqueness and the embedded Spotify auth record
//   - [SnapshotRepository] : append-only ingestion snapshots, listed newest first per user
//
// Every id-taking method validates the storage identifier format first, and a
// malformed id reads as "not found". Read paths never return password hashes.
//
// Sequence numbers provide stable ordering for listings independent of UUIDs and timestamps.
// The [NextSequence] function atomically increments per-table counters kept in dedicated sequence tables.
package repositories
