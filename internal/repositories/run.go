package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/requestwave/soundcheck/internal/models"
	"github.com/requestwave/soundcheck/internal/shared"
)

// RunRepository implements models.Repository[*models.PersistedRun] for run history.
//
// Handles run CRUD operations with soft delete support.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new run into the database with generated ID and sequence.
// When the run already carries an ID (the engine's run ID) it is kept.
func (r *RunRepository) Create(run *models.PersistedRun) error {
	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if run.ID() == "" {
		run.SetID(shared.GenerateID())
	}
	run.SetSequence(sequence)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO runs (id, sequence, base_url, started_at, finished_at, total, passed, failed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		run.ID(),
		sequence,
		run.BaseURL(),
		run.StartedAt(),
		run.FinishedAt(),
		run.Total(),
		run.Passed(),
		run.Failed(),
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID, excluding soft-deleted runs
func (r *RunRepository) Get(id string) (*models.PersistedRun, error) {
	query := `
		SELECT id, sequence, base_url, started_at, finished_at, total, passed, failed, created_at, updated_at, deleted_at
		FROM runs
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// Update modifies an existing run in the database
func (r *RunRepository) Update(run *models.PersistedRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE runs
		SET finished_at = ?, total = ?, passed = ?, failed = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		run.FinishedAt(),
		run.Total(),
		run.Passed(),
		run.Failed(),
		now,
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRunNotFound, run.ID())
	}

	return nil
}

// Delete soft-deletes a run by ID
func (r *RunRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE runs
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRunNotFound, id)
	}

	return nil
}

// List retrieves all runs matching the given criteria, excluding soft-deleted
// runs, newest first.
func (r *RunRepository) List(criteria map[string]any) ([]*models.PersistedRun, error) {
	query := `
		SELECT id, sequence, base_url, started_at, finished_at, total, passed, failed, created_at, updated_at, deleted_at
		FROM runs
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if baseURL, ok := criteria["base_url"].(string); ok && baseURL != "" {
		query += " AND base_url = ?"
		args = append(args, baseURL)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.PersistedRun
	for rows.Next() {
		run, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// scanOne scans a single row into a [models.PersistedRun]
func (r *RunRepository) scanOne(row *sql.Row) (*models.PersistedRun, error) {
	var (
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
		deletedAt  sql.NullTime
	)

	err := row.Scan(&id, &sequence, &baseURL, &startedAt, &finishedAt, &total, &passed, &failed, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, shared.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run := models.NewPersistedRun(baseURL, startedAt, finishedAt, total, passed, failed)
	run.SetID(id)
	run.SetSequence(sequence)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		run.SetDeletedAt(&deletedAt.Time)
	}

	return run, nil
}

// scanRow scans a row from [sql.Rows] into a [models.PersistedRun]
func (r *RunRepository) scanRow(rows *sql.Rows) (*models.PersistedRun, error) {
	var (
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
		deletedAt  sql.NullTime
	)

	err := rows.Scan(&id, &sequence, &baseURL, &startedAt, &finishedAt, &total, &passed, &failed, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run := models.NewPersistedRun(baseURL, startedAt, finishedAt, total, passed, failed)
	run.SetID(id)
	run.SetSequence(sequence)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		run.SetDeletedAt(&deletedAt.Time)
	}

	return run, nil
}
