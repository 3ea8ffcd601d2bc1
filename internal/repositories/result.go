package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/requestwave/soundcheck/internal/models"
	"github.com/requestwave/soundcheck/internal/shared"
)

// ResultRepository implements models.Repository[*models.PersistedResult] for
// individual check results within a run.
type ResultRepository struct {
	db *sql.DB
}

// NewResultRepository creates a new ResultRepository with the given database connection
func NewResultRepository(db *sql.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// Create inserts a new result into the database with generated ID and sequence
func (r *ResultRepository) Create(result *models.PersistedResult) error {
	sequence, err := NextSequence(r.db, "results")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if result.ID() == "" {
		result.SetID(shared.GenerateID())
	}
	result.SetSequence(sequence)

	if err := result.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO results (id, sequence, run_id, suite, name, success, message, details, duration_ms, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		result.ID(),
		sequence,
		result.RunID(),
		result.Suite(),
		result.Name(),
		result.Success(),
		result.Message(),
		result.Details(),
		result.DurationMS(),
		result.CreatedAt(),
		result.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert result: %w", err)
	}

	return nil
}

// Get retrieves a result by ID, excluding soft-deleted results
func (r *ResultRepository) Get(id string) (*models.PersistedResult, error) {
	query := `
		SELECT id, sequence, run_id, suite, name, success, message, details, duration_ms, created_at, updated_at, deleted_at
		FROM results
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// Update modifies an existing result in the database
func (r *ResultRepository) Update(result *models.PersistedResult) error {
	if err := result.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	result.SetUpdatedAt(now)

	query := `
		UPDATE results
		SET success = ?, message = ?, details = ?, duration_ms = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	res, err := r.db.Exec(query,
		result.Success(),
		result.Message(),
		result.Details(),
		result.DurationMS(),
		now,
		result.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update result: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("result not found or already deleted: %s", result.ID())
	}

	return nil
}

// Delete soft-deletes a result by ID
func (r *ResultRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE results
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	res, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete result: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("result not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all results matching the given criteria, excluding
// soft-deleted results, in recording order.
func (r *ResultRepository) List(criteria map[string]any) ([]*models.PersistedResult, error) {
	query := `
		SELECT id, sequence, run_id, suite, name, success, message, details, duration_ms, created_at, updated_at, deleted_at
		FROM results
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if runID, ok := criteria["run_id"].(string); ok && runID != "" {
		query += " AND run_id = ?"
		args = append(args, runID)
	}

	if suite, ok := criteria["suite"].(string); ok && suite != "" {
		query += " AND suite = ?"
		args = append(args, suite)
	}

	if success, ok := criteria["success"].(bool); ok {
		query += " AND success = ?"
		args = append(args, success)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []*models.PersistedResult
	for rows.Next() {
		result, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return results, nil
}

// scanOne scans a single row into a [models.PersistedResult]
func (r *ResultRepository) scanOne(row *sql.Row) (*models.PersistedResult, error) {
	var (
		id         string
		sequence   int
		runID      string
		suite      string
		name       string
		success    bool
		message    string
		details    string
		durationMS int64
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := row.Scan(&id, &sequence, &runID, &suite, &name, &success, &message, &details, &durationMS, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("result not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan result: %w", err)
	}

	result := models.NewPersistedResult(runID, suite, name, success, message, details, time.Duration(durationMS)*time.Millisecond)
	result.SetID(id)
	result.SetSequence(sequence)
	result.SetCreatedAt(createdAt)
	result.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		result.SetDeletedAt(&deletedAt.Time)
	}

	return result, nil
}

// scanRow scans a row from [sql.Rows] into a [models.PersistedResult]
func (r *ResultRepository) scanRow(rows *sql.Rows) (*models.PersistedResult, error) {
	var (
		id         string
		sequence   int
		runID      string
		suite      string
		name       string
		success    bool
		message    string
		details    string
		durationMS int64
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := rows.Scan(&id, &sequence, &runID, &suite, &name, &success, &message, &details, &durationMS, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan result: %w", err)
	}

	result := models.NewPersistedResult(runID, suite, name, success, message, details, time.Duration(durationMS)*time.Millisecond)
	result.SetID(id)
	result.SetSequence(sequence)
	result.SetCreatedAt(createdAt)
	result.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		result.SetDeletedAt(&deletedAt.Time)
	}

	return result, nil
}
