// Package repositories implements SQLite persistence for run history.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// All repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [RunRepository] : Check run persistence with target-based lookups
//   - [ResultRepository] : Per-assertion results with run and suite filters
//   - [History] : Converts run reports to and from their persisted form
//
// Sequence numbers provide stable, human-readable ordering (e.g., run #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
