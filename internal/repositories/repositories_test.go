package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/requestwave/soundcheck/internal/checks"
	"github.com/requestwave/soundcheck/internal/models"
	"github.com/requestwave/soundcheck/internal/shared"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func testRun() *models.PersistedRun {
	started := time.Now().Add(-time.Minute)
	return models.NewPersistedRun("http://localhost:8001", started, time.Now(), 3, 2, 1)
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)

	first, err := NextSequence(db, "runs")
	if err != nil {
		t.Fatalf("failed to get sequence: %v", err)
	}
	second, err := NextSequence(db, "runs")
	if err != nil {
		t.Fatalf("failed to get sequence: %v", err)
	}

	if second != first+1 {
		t.Errorf("expected monotonic sequence, got %d then %d", first, second)
	}

	t.Run("independent per table", func(t *testing.T) {
		value, err := NextSequence(db, "results")
		if err != nil {
			t.Fatalf("failed to get sequence: %v", err)
		}
		if value != 1 {
			t.Errorf("results sequence should start at 1, got %d", value)
		}
	})
}

func TestRunRepository(t *testing.T) {
	t.Run("Create assigns ID and sequence", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))

		run := testRun()
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		if run.ID() == "" {
			t.Error("run ID should be assigned")
		}
		if run.Sequence() == 0 {
			t.Error("run sequence should be assigned")
		}
	})

	t.Run("Create keeps a pre-set ID", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))

		run := testRun()
		run.SetID("engine-run-id")
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		if run.ID() != "engine-run-id" {
			t.Errorf("pre-set ID should be kept, got %s", run.ID())
		}
	})

	t.Run("Create rejects invalid counts", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))

		run := models.NewPersistedRun("http://localhost:8001", time.Now(), time.Now(), 5, 2, 1)
		if err := repo.Create(run); err == nil {
			t.Error("expected validation error when counts do not add up")
		}
	})

	t.Run("Get round trip", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))

		run := testRun()
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		loaded, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}

		if loaded.BaseURL() != run.BaseURL() {
			t.Errorf("base URL mismatch: %s", loaded.BaseURL())
		}
		if loaded.Total() != 3 || loaded.Passed() != 2 || loaded.Failed() != 1 {
			t.Errorf("counts mismatch: %d/%d/%d", loaded.Total(), loaded.Passed(), loaded.Failed())
		}
	})

	t.Run("Get missing run", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))

		if _, err := repo.Get("nope"); !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))

		run := testRun()
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		run.SetCounts(4, 4, 0)
		run.SetFinishedAt(time.Now())
		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to update run: %v", err)
		}

		loaded, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to reload run: %v", err)
		}
		if loaded.Total() != 4 || loaded.Failed() != 0 {
			t.Errorf("update not persisted: %d/%d", loaded.Total(), loaded.Failed())
		}
	})

	t.Run("Delete is soft", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))

		run := testRun()
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		if err := repo.Delete(run.ID()); err != nil {
			t.Fatalf("failed to delete run: %v", err)
		}

		if _, err := repo.Get(run.ID()); !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("deleted run should not be retrievable, got %v", err)
		}
		if err := repo.Delete(run.ID()); err == nil {
			t.Error("second delete should fail")
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewRunRepository(db)

		for i := 0; i < 3; i++ {
			if err := repo.Create(testRun()); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}
		}

		other := models.NewPersistedRun("https://staging.example.com", time.Now(), time.Now(), 0, 0, 0)
		if err := repo.Create(other); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		t.Run("newest first", func(t *testing.T) {
			runs, err := repo.List(map[string]any{})
			if err != nil {
				t.Fatalf("failed to list runs: %v", err)
			}
			if len(runs) != 4 {
				t.Fatalf("expected 4 runs, got %d", len(runs))
			}
			if runs[0].Sequence() < runs[1].Sequence() {
				t.Error("runs should be ordered newest first")
			}
		})

		t.Run("filter by base URL", func(t *testing.T) {
			runs, err := repo.List(map[string]any{"base_url": "https://staging.example.com"})
			if err != nil {
				t.Fatalf("failed to list runs: %v", err)
			}
			if len(runs) != 1 {
				t.Errorf("expected 1 run, got %d", len(runs))
			}
		})

		t.Run("limit", func(t *testing.T) {
			runs, err := repo.List(map[string]any{"limit": 2})
			if err != nil {
				t.Fatalf("failed to list runs: %v", err)
			}
			if len(runs) != 2 {
				t.Errorf("expected 2 runs, got %d", len(runs))
			}
		})
	})
}

func TestResultRepository(t *testing.T) {
	createRun := func(t *testing.T, db *sql.DB) *models.PersistedRun {
		t.Helper()
		run := testRun()
		if err := NewRunRepository(db).Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
		return run
	}

	t.Run("Create and Get", func(t *testing.T) {
		db := setupTestDB(t)
		run := createRun(t, db)
		repo := NewResultRepository(db)

		result := models.NewPersistedResult(run.ID(), "auth", "login succeeds", true, "", "", 120*time.Millisecond)
		if err := repo.Create(result); err != nil {
			t.Fatalf("failed to create result: %v", err)
		}

		loaded, err := repo.Get(result.ID())
		if err != nil {
			t.Fatalf("failed to get result: %v", err)
		}

		if loaded.Suite() != "auth" || loaded.Name() != "login succeeds" {
			t.Errorf("identity mismatch: %s/%s", loaded.Suite(), loaded.Name())
		}
		if loaded.DurationMS() != 120 {
			t.Errorf("duration mismatch: %d", loaded.DurationMS())
		}
	})

	t.Run("Create rejects orphan results", func(t *testing.T) {
		repo := NewResultRepository(setupTestDB(t))

		result := models.NewPersistedResult("", "auth", "x", true, "", "", 0)
		if err := repo.Create(result); err == nil {
			t.Error("expected validation error for missing run ID")
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		run := createRun(t, db)
		repo := NewResultRepository(db)

		result := models.NewPersistedResult(run.ID(), "auth", "login succeeds", false, "flaky", "", 0)
		if err := repo.Create(result); err != nil {
			t.Fatalf("failed to create result: %v", err)
		}

		updated := models.NewPersistedResult(run.ID(), "auth", "login succeeds", true, "", "", time.Second)
		updated.SetID(result.ID())
		if err := repo.Update(updated); err != nil {
			t.Fatalf("failed to update result: %v", err)
		}

		loaded, err := repo.Get(result.ID())
		if err != nil {
			t.Fatalf("failed to reload result: %v", err)
		}
		if !loaded.Success() || loaded.Message() != "" {
			t.Errorf("update not persisted: success=%v message=%q", loaded.Success(), loaded.Message())
		}
	})

	t.Run("List filters", func(t *testing.T) {
		db := setupTestDB(t)
		run := createRun(t, db)
		repo := NewResultRepository(db)

		rows := []*models.PersistedResult{
			models.NewPersistedResult(run.ID(), "auth", "a", true, "", "", 0),
			models.NewPersistedResult(run.ID(), "auth", "b", false, "boom", "", 0),
			models.NewPersistedResult(run.ID(), "catalog", "c", true, "", "", 0),
		}
		for _, row := range rows {
			if err := repo.Create(row); err != nil {
				t.Fatalf("failed to create result: %v", err)
			}
		}

		t.Run("by run preserves order", func(t *testing.T) {
			results, err := repo.List(map[string]any{"run_id": run.ID()})
			if err != nil {
				t.Fatalf("failed to list results: %v", err)
			}
			if len(results) != 3 {
				t.Fatalf("expected 3 results, got %d", len(results))
			}
			if results[0].Name() != "a" || results[2].Name() != "c" {
				t.Error("results should come back in recording order")
			}
		})

		t.Run("by suite", func(t *testing.T) {
			results, err := repo.List(map[string]any{"suite": "catalog"})
			if err != nil {
				t.Fatalf("failed to list results: %v", err)
			}
			if len(results) != 1 || results[0].Name() != "c" {
				t.Errorf("unexpected results: %d", len(results))
			}
		})

		t.Run("by success", func(t *testing.T) {
			results, err := repo.List(map[string]any{"success": false})
			if err != nil {
				t.Fatalf("failed to list results: %v", err)
			}
			if len(results) != 1 || results[0].Message() != "boom" {
				t.Errorf("unexpected results: %d", len(results))
			}
		})
	})

	t.Run("Delete is soft", func(t *testing.T) {
		db := setupTestDB(t)
		run := createRun(t, db)
		repo := NewResultRepository(db)

		result := models.NewPersistedResult(run.ID(), "auth", "a", true, "", "", 0)
		if err := repo.Create(result); err != nil {
			t.Fatalf("failed to create result: %v", err)
		}

		if err := repo.Delete(result.ID()); err != nil {
			t.Fatalf("failed to delete result: %v", err)
		}
		if _, err := repo.Get(result.ID()); err == nil {
			t.Error("deleted result should not be retrievable")
		}
	})
}

func TestHistory(t *testing.T) {
	sample := func() *checks.RunReport {
		started := time.Now().Add(-2 * time.Second)
		return &checks.RunReport{
			RunID:      shared.GenerateID(),
			BaseURL:    "http://localhost:8001",
			StartedAt:  started,
			FinishedAt: time.Now(),
			Suites:     []string{"auth", "catalog"},
			Results: []checks.Result{
				{Suite: "auth", Name: "login succeeds", Success: true, Duration: time.Second},
				{Suite: "auth", Name: "me matches login", Success: true, Duration: time.Second},
				{Suite: "catalog", Name: "song round trip", Success: false, Message: "still listed",
					Details: map[string]any{"song_id": "s1"}, Duration: time.Second},
			},
			Total:  3,
			Passed: 2,
			Failed: 1,
		}
	}

	t.Run("SaveReport and LoadReport round trip", func(t *testing.T) {
		history := NewHistory(setupTestDB(t))
		report := sample()

		if err := history.SaveReport(report); err != nil {
			t.Fatalf("failed to save report: %v", err)
		}

		loaded, err := history.LoadReport(report.RunID)
		if err != nil {
			t.Fatalf("failed to load report: %v", err)
		}

		if loaded.RunID != report.RunID {
			t.Errorf("run ID mismatch: %s", loaded.RunID)
		}
		if loaded.Total != 3 || loaded.Passed != 2 || loaded.Failed != 1 {
			t.Errorf("counts mismatch: %d/%d/%d", loaded.Total, loaded.Passed, loaded.Failed)
		}
		if len(loaded.Results) != 3 {
			t.Fatalf("expected 3 results, got %d", len(loaded.Results))
		}
		if loaded.Results[2].Message != "still listed" {
			t.Errorf("failure message lost: %q", loaded.Results[2].Message)
		}
		if got := loaded.Results[2].Details["song_id"]; got != "s1" {
			t.Errorf("details lost on load: %v", loaded.Results[2].Details)
		}
		if loaded.Results[0].Details != nil {
			t.Errorf("empty details should load as nil, got %v", loaded.Results[0].Details)
		}
		if len(loaded.Suites) != 2 || loaded.Suites[0] != "auth" || loaded.Suites[1] != "catalog" {
			t.Errorf("suites should be reconstructed in order: %v", loaded.Suites)
		}
	})

	t.Run("LoadReport missing run", func(t *testing.T) {
		history := NewHistory(setupTestDB(t))

		if _, err := history.LoadReport("nope"); !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("ListRuns honors limit", func(t *testing.T) {
		history := NewHistory(setupTestDB(t))

		for i := 0; i < 5; i++ {
			if err := history.SaveReport(sample()); err != nil {
				t.Fatalf("failed to save report: %v", err)
			}
		}

		runs, err := history.ListRuns(3)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 3 {
			t.Errorf("expected 3 runs, got %d", len(runs))
		}

		all, err := history.ListRuns(0)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(all) != 5 {
			t.Errorf("expected 5 runs, got %d", len(all))
		}
	})
}
