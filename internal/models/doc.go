// Package models defines domain entities and persistence interfaces for the soundcheck run history.
//
// The package contains database-backed models with full lifecycle management:
//   - [PersistedRun] : One check run with its target, timing, and pass/fail tallies
//   - [PersistedResult] : One assertion within a run, with message and JSON details
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
