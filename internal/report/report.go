// package report renders check run reports to terminal, CSV, Markdown, and JSON
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/requestwave/soundcheck/internal/checks"
	"github.com/requestwave/soundcheck/internal/shared"
)

// WriteSummary renders a human-readable run summary to w.
func WriteSummary(w io.Writer, report *checks.RunReport) {
	fmt.Fprintf(w, "Run %s against %s\n", report.RunID, report.BaseURL)
	fmt.Fprintf(w, "Started %s, took %s\n\n",
		report.StartedAt.Format(time.RFC3339),
		report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))

	for _, result := range report.Results {
		mark := "✓"
		if !result.Success {
			mark = "✗"
		}
		line := fmt.Sprintf("  %s [%s] %s", mark, result.Suite, result.Name)
		if result.Message != "" {
			line += ": " + result.Message
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintf(w, "\n%d passed, %d failed, %d total\n",
		report.Passed, report.Failed, report.Total)
	fmt.Fprintln(w, report.Verdict())
}

// ExportToCSV converts a run report to CSV with columns: Suite, Name, Success, Message, Duration, Timestamp
func ExportToCSV(report *checks.RunReport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Suite", "Name", "Success", "Message", "Duration", "Timestamp"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, result := range report.Results {
		record := []string{
			result.Suite,
			result.Name,
			strconv.FormatBool(result.Success),
			result.Message,
			result.Duration.String(),
			result.Timestamp.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a run report to Markdown grouped by suite.
func ExportToMarkdown(report *checks.RunReport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Run %s\n\n", report.RunID))
	buf.WriteString(fmt.Sprintf("**Target**: %s\n", report.BaseURL))
	buf.WriteString(fmt.Sprintf("**Started**: %s\n", report.StartedAt.Format(time.RFC3339)))
	buf.WriteString(fmt.Sprintf("**Result**: %s\n\n", report.Verdict()))

	bySuite := make(map[string][]checks.Result)
	for _, result := range report.Results {
		bySuite[result.Suite] = append(bySuite[result.Suite], result)
	}

	for _, suite := range report.Suites {
		results, ok := bySuite[suite]
		if !ok {
			continue
		}

		buf.WriteString(fmt.Sprintf("## %s\n\n", suite))
		for _, result := range results {
			mark := "✓"
			if !result.Success {
				mark = "✗"
			}
			buf.WriteString(fmt.Sprintf("- %s %s", mark, result.Name))
			if result.Message != "" {
				buf.WriteString(fmt.Sprintf(" — %s", result.Message))
			}
			buf.WriteString("\n")
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a run report to indented JSON.
func ExportToJSON(report *checks.RunReport) ([]byte, error) {
	return shared.MarshalJSON(report, true)
}

// WriteCSVExport writes a run report to {base}.csv, defaulting base to the run ID.
func WriteCSVExport(report *checks.RunReport, baseFilepath string) (string, error) {
	if baseFilepath == "" {
		baseFilepath = report.RunID
	}

	csvData, err := ExportToCSV(report)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	filename := baseFilepath + ".csv"
	if err := os.WriteFile(filename, csvData, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}

	return filename, nil
}

// WriteMarkdownExport writes a run report to {base}.md, defaulting base to the run ID.
func WriteMarkdownExport(report *checks.RunReport, baseFilepath string) (string, error) {
	if baseFilepath == "" {
		baseFilepath = report.RunID
	}

	mdData, err := ExportToMarkdown(report)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	filename := baseFilepath + ".md"
	if err := os.WriteFile(filename, mdData, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return filename, nil
}

// WriteJSONExport writes a run report to {base}.json, defaulting base to the run ID.
func WriteJSONExport(report *checks.RunReport, baseFilepath string) (string, error) {
	if baseFilepath == "" {
		baseFilepath = report.RunID
	}

	jsonData, err := ExportToJSON(report)
	if err != nil {
		return "", fmt.Errorf("failed to generate JSON: %w", err)
	}

	filename := baseFilepath + ".json"
	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write JSON file: %w", err)
	}

	return filename, nil
}
