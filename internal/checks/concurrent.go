package checks

import (
	"context"
	"fmt"
	"sync"

	"github.com/requestwave/soundcheck/internal/services"
	"github.com/requestwave/soundcheck/internal/shared"
	"golang.org/x/time/rate"
)

// ProbeOpts configures a concurrent request probe.
type ProbeOpts struct {
	Workers   int     // concurrent submitters, default 5
	Requests  int     // total requests to dispatch, default Workers
	RateLimit float64 // dispatch rate in requests/sec, 0 means the client default
	Slug      string  // musician page to submit against
}

// ProbeOutcome is one dispatched request's result.
type ProbeOutcome struct {
	Worker    int    `json:"worker"`
	RequestID string `json:"request_id,omitempty"`
	Err       string `json:"error,omitempty"`
}

// ProbeResult aggregates a concurrent probe run.
type ProbeResult struct {
	Dispatched int            `json:"dispatched"`
	Collected  int            `json:"collected"`
	Succeeded  int            `json:"succeeded"`
	Failed     int            `json:"failed"`
	Outcomes   []ProbeOutcome `json:"outcomes"`
}

type probeJob struct {
	index  int
	worker int
}

// RunConcurrentProbe submits opts.Requests audience requests from opts.Workers
// goroutines and verifies every dispatched request produces exactly one
// outcome. Created requests are deleted afterwards.
func RunConcurrentProbe(ctx context.Context, env *Env, opts ProbeOpts, progress chan<- ProgressUpdate) (*ProbeResult, error) {
	if opts.Workers <= 0 {
		opts.Workers = 5
	}
	if opts.Requests <= 0 {
		opts.Requests = opts.Workers
	}
	if opts.Slug == "" {
		opts.Slug = env.Platform.MusicianSlug()
	}
	if opts.Slug == "" {
		return nil, fmt.Errorf("%w: no musician slug for the probe", shared.ErrNotAuthenticated)
	}

	songs, err := env.Platform.Songs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}
	if len(songs) == 0 {
		return nil, fmt.Errorf("%w: catalog is empty", shared.ErrSongNotFound)
	}

	limiter := env.Platform.Limiter()
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	jobs := make(chan probeJob, opts.Requests)
	outcomes := make(chan ProbeOutcome, opts.Requests)

	var wg sync.WaitGroup
	for worker := 0; worker < opts.Workers; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for job := range jobs {
				job.worker = worker
				outcomes <- submitProbeRequest(ctx, env, opts.Slug, songs[job.index%len(songs)], job)
			}
		}(worker)
	}

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	dispatched := 0
	for i := 0; i < opts.Requests; i++ {
		if err := limiter.Wait(ctx); err != nil {
			break
		}
		jobs <- probeJob{index: i}
		dispatched++
		sendProbeProgress(progress, probeDispatchUpdate(dispatched, opts.Requests))
	}
	close(jobs)

	result := &ProbeResult{Dispatched: dispatched}
	for outcome := range outcomes {
		result.Collected++
		result.Outcomes = append(result.Outcomes, outcome)
		if outcome.Err == "" {
			result.Succeeded++
		} else {
			result.Failed++
		}
		sendProbeProgress(progress, probeCollectUpdate(result.Collected, dispatched, outcome.Err == ""))
	}

	cleanupProbeRequests(ctx, env, result)

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

func submitProbeRequest(ctx context.Context, env *Env, slug string, song services.Song, job probeJob) ProbeOutcome {
	marker := "soundcheck-probe-" + shared.GenerateID()[:8]

	created, err := env.Platform.CreateRequest(ctx, slug, services.SongRequest{
		SongID:        song.ID,
		RequesterName: marker,
	})
	if err != nil {
		return ProbeOutcome{Worker: job.worker, Err: err.Error()}
	}
	return ProbeOutcome{Worker: job.worker, RequestID: created.ID}
}

func cleanupProbeRequests(ctx context.Context, env *Env, result *ProbeResult) {
	for _, outcome := range result.Outcomes {
		if outcome.RequestID == "" {
			continue
		}
		if err := env.Platform.DeleteRequest(ctx, outcome.RequestID); err != nil {
			env.Logger.Warn("failed to clean up probe request", "id", outcome.RequestID, "error", err)
		}
	}
}

func sendProbeProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// ConcurrentSuite wraps the probe as a check: every dispatched request must
// be collected and none may fail.
func ConcurrentSuite() Suite {
	return Suite{
		Name:        "concurrent",
		Description: "Concurrent request submission",
		Checks: []Check{
			{Name: "concurrent submissions all land", Fn: checkConcurrentSubmissions},
		},
	}
}

func checkConcurrentSubmissions(ctx context.Context, env *Env, rec *Recorder) error {
	const name = "concurrent submissions all land"

	opts := ProbeOpts{
		Workers:  env.Config.Checks.Workers,
		Requests: env.Config.Checks.Requests,
	}

	result, err := RunConcurrentProbe(ctx, env, opts, nil)
	if err != nil {
		return err
	}

	details := map[string]any{
		"dispatched": result.Dispatched,
		"collected":  result.Collected,
		"succeeded":  result.Succeeded,
		"failed":     result.Failed,
	}

	if result.Collected != result.Dispatched {
		rec.Record("concurrent", name, false,
			fmt.Sprintf("dispatched %d requests but collected %d outcomes",
				result.Dispatched, result.Collected), details)
		return nil
	}
	if result.Failed > 0 {
		rec.Record("concurrent", name, false,
			fmt.Sprintf("%d of %d concurrent submissions failed",
				result.Failed, result.Dispatched), details)
		return nil
	}

	rec.Record("concurrent", name, true, "", details)
	return nil
}
