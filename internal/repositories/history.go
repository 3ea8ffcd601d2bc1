package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/requestwave/soundcheck/internal/checks"
	"github.com/requestwave/soundcheck/internal/models"
	"github.com/requestwave/soundcheck/internal/shared"
)

// History persists check run reports and reconstructs them for later review.
type History struct {
	runs    *RunRepository
	results *ResultRepository
}

// NewHistory creates a History over the given database connection.
func NewHistory(db *sql.DB) *History {
	return &History{
		runs:    NewRunRepository(db),
		results: NewResultRepository(db),
	}
}

// Runs returns the underlying run repository.
func (h *History) Runs() *RunRepository {
	return h.runs
}

// SaveReport persists a run report and all its results. The report's run ID
// becomes the persisted run's ID so CLI output and history stay aligned.
func (h *History) SaveReport(report *checks.RunReport) error {
	run := models.NewPersistedRun(
		report.BaseURL,
		report.StartedAt,
		report.FinishedAt,
		report.Total,
		report.Passed,
		report.Failed,
	)
	run.SetID(report.RunID)

	if err := h.runs.Create(run); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	for _, result := range report.Results {
		details := ""
		if len(result.Details) > 0 {
			data, err := shared.MarshalJSON(result.Details, false)
			if err == nil {
				details = string(data)
			}
		}

		persisted := models.NewPersistedResult(
			report.RunID,
			result.Suite,
			result.Name,
			result.Success,
			result.Message,
			details,
			result.Duration,
		)
		if err := h.results.Create(persisted); err != nil {
			return fmt.Errorf("failed to save result: %w", err)
		}
	}

	return nil
}

// LoadReport reconstructs a run report from history by run ID.
func (h *History) LoadReport(runID string) (*checks.RunReport, error) {
	run, err := h.runs.Get(runID)
	if err != nil {
		return nil, err
	}

	persisted, err := h.results.List(map[string]any{"run_id": runID})
	if err != nil {
		return nil, err
	}

	report := &checks.RunReport{
		RunID:      run.ID(),
		BaseURL:    run.BaseURL(),
		StartedAt:  run.StartedAt(),
		FinishedAt: run.FinishedAt(),
		Total:      run.Total(),
		Passed:     run.Passed(),
		Failed:     run.Failed(),
	}

	seen := make(map[string]bool)
	for _, result := range persisted {
		if !seen[result.Suite()] {
			seen[result.Suite()] = true
			report.Suites = append(report.Suites, result.Suite())
		}

		var details map[string]any
		if raw := result.Details(); raw != "" {
			if err := json.Unmarshal([]byte(raw), &details); err != nil {
				return nil, fmt.Errorf("failed to decode result details for %s: %w", result.ID(), err)
			}
		}

		report.Results = append(report.Results, checks.Result{
			Suite:     result.Suite(),
			Name:      result.Name(),
			Success:   result.Success(),
			Message:   result.Message(),
			Details:   details,
			Duration:  time.Duration(result.DurationMS()) * time.Millisecond,
			Timestamp: result.CreatedAt(),
		})
	}

	return report, nil
}

// ListRuns returns up to limit recent runs, newest first. A limit of 0 means
// no limit.
func (h *History) ListRuns(limit int) ([]*models.PersistedRun, error) {
	criteria := map[string]any{}
	if limit > 0 {
		criteria["limit"] = limit
	}
	return h.runs.List(criteria)
}
