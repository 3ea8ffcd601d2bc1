package report

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/requestwave/soundcheck/internal/checks"
	testutils "github.com/requestwave/soundcheck/internal/testing"
)

func sampleReport() *checks.RunReport {
	started := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	return &checks.RunReport{
		RunID:      "run-123",
		BaseURL:    "http://localhost:8001",
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		Suites:     []string{"auth", "catalog"},
		Results: []checks.Result{
			{Suite: "auth", Name: "login succeeds", Success: true, Duration: time.Second, Timestamp: started},
			{Suite: "auth", Name: "me matches login", Success: true, Duration: time.Second, Timestamp: started},
			{Suite: "catalog", Name: "song round trip", Success: false, Message: "song still listed after delete", Duration: time.Second, Timestamp: started},
		},
		Total:  3,
		Passed: 2,
		Failed: 1,
	}
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	WriteSummary(&buf, sampleReport())

	out := buf.String()
	for _, want := range []string{
		"Run run-123 against http://localhost:8001",
		"✓ [auth] login succeeds",
		"✗ [catalog] song round trip: song still listed after delete",
		"2 passed, 1 failed, 3 total",
		"1 of 3 checks failed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestExportToCSV(t *testing.T) {
	data, err := ExportToCSV(sampleReport())
	if err != nil {
		t.Fatalf("failed to export: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}

	if len(records) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d", len(records))
	}
	if records[0][0] != "Suite" || records[0][2] != "Success" {
		t.Errorf("unexpected header: %v", records[0])
	}
	if records[3][2] != "false" || records[3][3] != "song still listed after delete" {
		t.Errorf("unexpected failure row: %v", records[3])
	}
}

func TestExportToMarkdown(t *testing.T) {
	data, err := ExportToMarkdown(sampleReport())
	if err != nil {
		t.Fatalf("failed to export: %v", err)
	}

	out := string(data)
	for _, want := range []string{
		"# Run run-123",
		"**Target**: http://localhost:8001",
		"## auth",
		"## catalog",
		"- ✓ login succeeds",
		"- ✗ song round trip",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}

	if strings.Index(out, "## auth") > strings.Index(out, "## catalog") {
		t.Error("suites should appear in run order")
	}
}

func TestExportToJSON(t *testing.T) {
	data, err := ExportToJSON(sampleReport())
	if err != nil {
		t.Fatalf("failed to export: %v", err)
	}

	out := string(data)
	if !strings.Contains(out, `"run_id": "run-123"`) {
		t.Errorf("JSON missing run ID:\n%s", out)
	}
	if !strings.Contains(out, `"song still listed after delete"`) {
		t.Errorf("JSON missing failure message:\n%s", out)
	}
}

func TestWriteExports(t *testing.T) {
	report := sampleReport()

	t.Run("csv", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), "out")
		path, err := WriteCSVExport(report, base)
		if err != nil {
			t.Fatalf("failed to write: %v", err)
		}
		if path != base+".csv" {
			t.Errorf("unexpected path: %s", path)
		}
		testutils.AssertFileExists(t, path)
	})

	t.Run("markdown", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), "out")
		path, err := WriteMarkdownExport(report, base)
		if err != nil {
			t.Fatalf("failed to write: %v", err)
		}
		testutils.AssertFileExists(t, path)
	})

	t.Run("json", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), "out")
		path, err := WriteJSONExport(report, base)
		if err != nil {
			t.Fatalf("failed to write: %v", err)
		}
		testutils.AssertFileExists(t, path)
	})

	t.Run("defaults base to run ID", func(t *testing.T) {
		wd := testutils.MustGetwd(t)
		testutils.MustChdir(t, t.TempDir())
		defer testutils.MustChdir(t, wd)

		path, err := WriteJSONExport(report, "")
		if err != nil {
			t.Fatalf("failed to write: %v", err)
		}
		if path != report.RunID+".json" {
			t.Errorf("unexpected path: %s", path)
		}
		testutils.AssertFileExists(t, path)
	})
}
