package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/requestwave/soundcheck/internal/report"
	"github.com/requestwave/soundcheck/internal/repositories"
	"github.com/requestwave/soundcheck/internal/shared"
	"github.com/urfave/cli/v3"
)

// openHistory opens the run history database.
func (r *Runner) openHistory() (*sql.DB, *repositories.History, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database (run 'soundcheck setup database' first): %w", err)
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	return db, repositories.NewHistory(db), nil
}

// ReportHistory lists recent persisted runs.
func (r *Runner) ReportHistory(ctx context.Context, cmd *cli.Command) error {
	limit := int(cmd.Int("limit"))

	db, history, err := r.openHistory()
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := history.ListRuns(limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		return r.writePlain("No runs recorded yet. Run 'soundcheck check run --save' first.\n")
	}

	r.writePlainHeader("Run History")
	for _, run := range runs {
		verdict := "✓"
		if run.Failed() > 0 {
			verdict = "✗"
		}
		r.writePlain("%s %s  %s  %d/%d passed  %s\n",
			verdict,
			run.ID(),
			run.StartedAt().Format(time.RFC3339),
			run.Passed(),
			run.Total(),
			run.BaseURL(),
		)
	}
	return nil
}

// ReportShow prints a persisted run's results.
func (r *Runner) ReportShow(ctx context.Context, cmd *cli.Command) error {
	runID := cmd.StringArg("run-id")
	if runID == "" {
		return fmt.Errorf("%w: run-id argument is required", shared.ErrMissingArgument)
	}

	db, history, err := r.openHistory()
	if err != nil {
		return err
	}
	defer db.Close()

	loaded, err := history.LoadReport(runID)
	if err != nil {
		return err
	}

	report.WriteSummary(r.output, loaded)
	return nil
}

// ReportExport writes a persisted run to a file in the requested format.
func (r *Runner) ReportExport(ctx context.Context, cmd *cli.Command) error {
	runID := cmd.StringArg("run-id")
	format := cmd.String("format")
	output := cmd.String("output")

	if runID == "" {
		return fmt.Errorf("%w: run-id argument is required", shared.ErrMissingArgument)
	}

	db, history, err := r.openHistory()
	if err != nil {
		return err
	}
	defer db.Close()

	loaded, err := history.LoadReport(runID)
	if err != nil {
		return err
	}

	var filename string
	switch format {
	case "json":
		filename, err = report.WriteJSONExport(loaded, output)
	case "csv":
		filename, err = report.WriteCSVExport(loaded, output)
	case "markdown", "md":
		filename, err = report.WriteMarkdownExport(loaded, output)
	default:
		return fmt.Errorf("%w: format must be json, csv, or markdown", shared.ErrInvalidFlag)
	}
	if err != nil {
		return err
	}

	r.logger.Info("run exported", "run_id", runID, "file", filename)
	return r.writePlain("✓ Exported to %s\n", filename)
}
