package checks

import (
	"context"
	"fmt"
)

// analyticsWindowDays is the window compared against the full request log.
// Wide enough that every logged request should fall inside it on the
// deployments the harness targets.
const analyticsWindowDays = 90

// AnalyticsSuite verifies the analytics endpoints agree with the request log.
//
// Replaces the old incident scripts that hard-coded expected totals: instead
// of asserting magic numbers, the suite compares the two endpoints that are
// supposed to describe the same data.
func AnalyticsSuite() Suite {
	return Suite{
		Name:        "analytics",
		Description: "Request log vs analytics consistency",
		Checks: []Check{
			{Name: "request log and analytics agree", Fn: checkAnalyticsConsistency},
			{Name: "daily buckets sum to the reported total", Fn: checkAnalyticsBuckets},
		},
	}
}

func checkAnalyticsConsistency(ctx context.Context, env *Env, rec *Recorder) error {
	const name = "request log and analytics agree"

	requests, err := env.Platform.Requests(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch request log: %w", err)
	}

	summary, err := env.Platform.AnalyticsDaily(ctx, analyticsWindowDays)
	if err != nil {
		return fmt.Errorf("failed to fetch analytics: %w", err)
	}

	details := map[string]any{
		"request_log_count": len(requests),
		"analytics_total":   summary.TotalRequests,
		"window_days":       analyticsWindowDays,
	}

	if summary.TotalRequests == len(requests) {
		rec.Record("analytics", name, true, "", details)
		return nil
	}

	message := fmt.Sprintf("analytics reports %d of %d logged requests",
		summary.TotalRequests, len(requests))
	if summary.TotalRequests < len(requests) {
		message += "; total is below the request log, suspect a row limit or date filter in the analytics query"
	}

	rec.Record("analytics", name, false, message, details)
	return nil
}

func checkAnalyticsBuckets(ctx context.Context, env *Env, rec *Recorder) error {
	const name = "daily buckets sum to the reported total"

	summary, err := env.Platform.AnalyticsDaily(ctx, analyticsWindowDays)
	if err != nil {
		return fmt.Errorf("failed to fetch analytics: %w", err)
	}

	sum := 0
	for _, day := range summary.Days {
		sum += day.Requests
	}

	details := map[string]any{
		"bucket_sum":      sum,
		"analytics_total": summary.TotalRequests,
		"bucket_count":    len(summary.Days),
	}

	if sum != summary.TotalRequests {
		rec.Record("analytics", name, false,
			fmt.Sprintf("daily buckets sum to %d but total_requests is %d", sum, summary.TotalRequests),
			details)
		return nil
	}

	rec.Record("analytics", name, true, "", details)
	return nil
}
