// Package store provides SQLite-backed durable storage for attribution
// runs.
//
// A run is written once, after analysis completes, and read many times:
//   - Runs: replay name, stream fingerprint, match duration
//   - Lines: per-player stat lines
//   - Unresolved: decoded events the engine could not attribute
//
// Writes are idempotent on run id, so re-saving an identical run is a
// no-op. All queries order their results explicitly (entity id for lines,
// stream offset for unresolved rows), so reads are deterministic.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// The stream fingerprint is the domain-separated SHA-256 computed by
// internal/stream, which ties a run to the exact capture bytes it was
// computed from.
package store
