package models

import (
	"fmt"
	"time"
)

// PersistedRun is a database-backed record of one check run.
type PersistedRun struct {
	id         string
	sequence   int
	baseURL    string
	startedAt  time.Time
	finishedAt time.Time
	total      int
	passed     int
	failed     int
	createdAt  time.Time
	updatedAt  time.Time
	deletedAt  *time.Time
}

// NewPersistedRun creates a run record. The ID is assigned by the repository
// on Create.
func NewPersistedRun(baseURL string, startedAt, finishedAt time.Time, total, passed, failed int) *PersistedRun {
	now := time.Now()
	return &PersistedRun{
		baseURL:    baseURL,
		startedAt:  startedAt,
		finishedAt: finishedAt,
		total:      total,
		passed:     passed,
		failed:     failed,
		createdAt:  now,
		updatedAt:  now,
	}
}

func (r *PersistedRun) ID() string            { return r.id }
func (r *PersistedRun) Sequence() int         { return r.sequence }
func (r *PersistedRun) BaseURL() string       { return r.baseURL }
func (r *PersistedRun) StartedAt() time.Time  { return r.startedAt }
func (r *PersistedRun) FinishedAt() time.Time { return r.finishedAt }
func (r *PersistedRun) Total() int            { return r.total }
func (r *PersistedRun) Passed() int           { return r.passed }
func (r *PersistedRun) Failed() int           { return r.failed }
func (r *PersistedRun) CreatedAt() time.Time  { return r.createdAt }
func (r *PersistedRun) UpdatedAt() time.Time  { return r.updatedAt }
func (r *PersistedRun) DeletedAt() *time.Time { return r.deletedAt }

func (r *PersistedRun) SetID(id string)              { r.id = id }
func (r *PersistedRun) SetSequence(sequence int)     { r.sequence = sequence }
func (r *PersistedRun) SetCreatedAt(t time.Time)     { r.createdAt = t }
func (r *PersistedRun) SetUpdatedAt(t time.Time)     { r.updatedAt = t }
func (r *PersistedRun) SetDeletedAt(t *time.Time)    { r.deletedAt = t }
func (r *PersistedRun) SetStartedAt(t time.Time)     { r.startedAt = t }
func (r *PersistedRun) SetFinishedAt(t time.Time)    { r.finishedAt = t }
func (r *PersistedRun) SetCounts(total, passed, failed int) {
	r.total = total
	r.passed = passed
	r.failed = failed
}

// Validate checks run invariants: identity, target, and count arithmetic.
func (r *PersistedRun) Validate() error {
	if r.id == "" {
		return fmt.Errorf("run ID is required")
	}
	if r.baseURL == "" {
		return fmt.Errorf("run base URL is required")
	}
	if r.total < 0 || r.passed < 0 || r.failed < 0 {
		return fmt.Errorf("run counts cannot be negative")
	}
	if r.passed+r.failed != r.total {
		return fmt.Errorf("run counts do not add up: %d passed + %d failed != %d total", r.passed, r.failed, r.total)
	}
	return nil
}

// PersistedResult is a database-backed record of one check assertion.
type PersistedResult struct {
	id         string
	sequence   int
	runID      string
	suite      string
	name       string
	success    bool
	message    string
	details    string // JSON-encoded details, empty when none
	durationMS int64
	createdAt  time.Time
	updatedAt  time.Time
	deletedAt  *time.Time
}

// NewPersistedResult creates a result record bound to a run. The ID is
// assigned by the repository on Create.
func NewPersistedResult(runID, suite, name string, success bool, message, details string, duration time.Duration) *PersistedResult {
	now := time.Now()
	return &PersistedResult{
		runID:      runID,
		suite:      suite,
		name:       name,
		success:    success,
		message:    message,
		details:    details,
		durationMS: duration.Milliseconds(),
		createdAt:  now,
		updatedAt:  now,
	}
}

func (r *PersistedResult) ID() string            { return r.id }
func (r *PersistedResult) Sequence() int         { return r.sequence }
func (r *PersistedResult) RunID() string         { return r.runID }
func (r *PersistedResult) Suite() string         { return r.suite }
func (r *PersistedResult) Name() string          { return r.name }
func (r *PersistedResult) Success() bool         { return r.success }
func (r *PersistedResult) Message() string       { return r.message }
func (r *PersistedResult) Details() string       { return r.details }
func (r *PersistedResult) DurationMS() int64     { return r.durationMS }
func (r *PersistedResult) CreatedAt() time.Time  { return r.createdAt }
func (r *PersistedResult) UpdatedAt() time.Time  { return r.updatedAt }
func (r *PersistedResult) DeletedAt() *time.Time { return r.deletedAt }

func (r *PersistedResult) SetID(id string)           { r.id = id }
func (r *PersistedResult) SetSequence(sequence int)  { r.sequence = sequence }
func (r *PersistedResult) SetCreatedAt(t time.Time)  { r.createdAt = t }
func (r *PersistedResult) SetUpdatedAt(t time.Time)  { r.updatedAt = t }
func (r *PersistedResult) SetDeletedAt(t *time.Time) { r.deletedAt = t }

// Validate checks result invariants.
func (r *PersistedResult) Validate() error {
	if r.id == "" {
		return fmt.Errorf("result ID is required")
	}
	if r.runID == "" {
		return fmt.Errorf("result run ID is required")
	}
	if r.suite == "" {
		return fmt.Errorf("result suite is required")
	}
	if r.name == "" {
		return fmt.Errorf("result name is required")
	}
	if r.durationMS < 0 {
		return fmt.Errorf("result duration cannot be negative")
	}
	return nil
}
