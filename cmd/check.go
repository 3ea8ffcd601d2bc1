package main

import (
	"context"
	"fmt"

	"github.com/requestwave/soundcheck/internal/checks"
	"github.com/requestwave/soundcheck/internal/repositories"
	"github.com/requestwave/soundcheck/internal/shared"
	"github.com/urfave/cli/v3"
)

// CheckRun executes the named suites (all by default) and reports the verdict.
//
// Exits non-zero exactly when at least one check failed, so CI and shell
// scripts can branch on the result.
func (r *Runner) CheckRun(ctx context.Context, cmd *cli.Command) error {
	suiteNames := cmd.StringArgs("suites")
	useJSON := cmd.Bool("json")
	save := cmd.Bool("save")

	if workers := int(cmd.Int("concurrency")); workers > 0 {
		r.config.Checks.Workers = workers
	}

	if !useJSON {
		r.writePlainHeader(fmt.Sprintf("soundcheck → %s", r.platform.BaseURL()))
	}

	report, err := r.engine.Run(ctx, nil, suiteNames...)
	if err != nil {
		return err
	}

	if save {
		if err := r.saveReport(report); err != nil {
			r.logger.Warn("failed to persist run", "error", err)
		} else {
			r.logger.Info("run saved", "run_id", report.RunID)
		}
	}

	if useJSON {
		if err := r.writeJSON(report, true); err != nil {
			return err
		}
	} else {
		r.writePlainln("%s", report.Verdict())
		r.writePlain("Run ID: %s\n", report.RunID)
	}

	if report.Failed > 0 {
		return fmt.Errorf("%w: %d of %d checks failed", shared.ErrCheckFailed, report.Failed, report.Total)
	}
	return nil
}

// CheckList lists the registered suites and their checks.
func (r *Runner) CheckList(ctx context.Context, cmd *cli.Command) error {
	for _, suite := range r.engine.Suites() {
		r.writePlain("%s — %s\n", suite.Name, suite.Description)
		for _, check := range suite.Checks {
			r.writePlain("  • %s\n", check.Name)
		}
	}
	return nil
}

// saveReport persists a run report to the history database.
func (r *Runner) saveReport(report *checks.RunReport) error {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return repositories.NewHistory(db).SaveReport(report)
}
