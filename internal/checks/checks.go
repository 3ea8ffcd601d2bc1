// package checks implements the smoke-test suites run against a deployment.
//
// The core abstractions are Recorder, which captures one Result per assertion,
// and Engine, which runs registered suites and produces a RunReport. Long
// operations emit progress updates via channels for non-blocking status
// reporting to CLI/UI layers.
package checks

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/requestwave/soundcheck/internal/services"
	"github.com/requestwave/soundcheck/internal/shared"
)

// Result captures one assertion's outcome for later reporting.
type Result struct {
	Suite     string         `json:"suite"`
	Name      string         `json:"name"`
	Success   bool           `json:"success"`
	Message   string         `json:"message,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Duration  time.Duration  `json:"duration"`
	Timestamp time.Time      `json:"timestamp"`
}

// Recorder collects results in memory and prints one line per assertion.
//
// Safe for concurrent use. Recording cannot fail; write errors on the
// optional output writer are ignored.
type Recorder struct {
	mu      sync.Mutex
	results []Result
	last    time.Time
	logger  *log.Logger
	output  io.Writer
}

// NewRecorder creates a Recorder that logs each result through logger and
// prints ✓/✗ lines to output. Both may be nil.
func NewRecorder(logger *log.Logger, output io.Writer) *Recorder {
	return &Recorder{
		logger: logger,
		output: output,
		last:   time.Now(),
	}
}

// Record appends exactly one result. Duration is the elapsed time since the
// previous record, approximating the cost of the calls leading up to this
// assertion.
func (r *Recorder) Record(suite, name string, success bool, message string, details map[string]any) {
	now := time.Now()

	r.mu.Lock()
	result := Result{
		Suite:     suite,
		Name:      name,
		Success:   success,
		Message:   message,
		Details:   details,
		Duration:  now.Sub(r.last),
		Timestamp: now,
	}
	r.results = append(r.results, result)
	r.last = now
	output := r.output
	r.mu.Unlock()

	mark := "✓"
	if !success {
		mark = "✗"
	}

	if output != nil {
		line := fmt.Sprintf("  %s [%s] %s", mark, suite, name)
		if message != "" {
			line += ": " + message
		}
		fmt.Fprintln(output, line)
	}

	if r.logger != nil {
		if success {
			r.logger.Info("check passed", "suite", suite, "name", name)
		} else {
			r.logger.Warn("check failed", "suite", suite, "name", name, "message", message)
		}
	}
}

// Results returns a snapshot copy of all recorded results.
func (r *Recorder) Results() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Result, len(r.results))
	copy(out, r.results)
	return out
}

// Counts tallies passed and failed results.
func (r *Recorder) Counts() (passed, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, result := range r.results {
		if result.Success {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}

// Env holds the clients and configuration a check needs.
type Env struct {
	Platform *services.PlatformService
	API      *services.APIService
	Spotify  *services.SpotifyService
	Config   *shared.Config
	Logger   *log.Logger
}

// CheckFunc performs one scripted scenario, recording assertions on rec.
// A returned error means the scenario could not execute; the engine records
// it as a failure.
type CheckFunc func(ctx context.Context, env *Env, rec *Recorder) error

// Check is a named scenario within a suite.
type Check struct {
	Name string
	Fn   CheckFunc
}

// Suite groups related checks.
type Suite struct {
	Name        string
	Description string
	Checks      []Check
}

// RunReport summarizes one engine run.
type RunReport struct {
	RunID      string    `json:"run_id"`
	BaseURL    string    `json:"base_url"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Suites     []string  `json:"suites"`
	Results    []Result  `json:"results"`
	Total      int       `json:"total"`
	Passed     int       `json:"passed"`
	Failed     int       `json:"failed"`
}

// Verdict returns a one-line human-readable summary of the run.
func (r *RunReport) Verdict() string {
	if r.Total == 0 {
		return "no checks ran"
	}
	if r.Failed == 0 {
		return fmt.Sprintf("all %d checks passed", r.Total)
	}
	return fmt.Sprintf("%d of %d checks failed", r.Failed, r.Total)
}

// Engine runs suites against an environment.
type Engine struct {
	env      *Env
	recorder *Recorder
	suites   []Suite
}

// NewEngine creates an engine for the given environment and suites.
func NewEngine(env *Env, recorder *Recorder, suites ...Suite) *Engine {
	return &Engine{
		env:      env,
		recorder: recorder,
		suites:   suites,
	}
}

// Suites returns the registered suites.
func (e *Engine) Suites() []Suite {
	return e.suites
}

// Recorder returns the engine's recorder.
func (e *Engine) Recorder() *Recorder {
	return e.recorder
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// resolve selects suites by name; an empty list selects all.
func (e *Engine) resolve(names []string) ([]Suite, error) {
	if len(names) == 0 {
		return e.suites, nil
	}

	byName := make(map[string]Suite, len(e.suites))
	for _, suite := range e.suites {
		byName[suite.Name] = suite
	}

	var selected []Suite
	for _, name := range names {
		suite, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", shared.ErrUnknownSuite, name)
		}
		selected = append(selected, suite)
	}
	return selected, nil
}

// Run executes the named suites (all when names is empty) and returns the
// aggregated report. The report includes only results recorded during this
// run. A failing check does not return an error; callers inspect the report.
func (e *Engine) Run(ctx context.Context, progress chan<- ProgressUpdate, names ...string) (*RunReport, error) {
	if e.env == nil || e.env.Platform == nil {
		return nil, fmt.Errorf("%w: platform client not initialized", shared.ErrServiceUnavailable)
	}

	suites, err := e.resolve(names)
	if err != nil {
		return nil, err
	}

	report := &RunReport{
		RunID:     shared.GenerateID(),
		BaseURL:   e.env.Platform.BaseURL(),
		StartedAt: time.Now(),
	}

	before := len(e.recorder.Results())

	totalChecks := 0
	for _, suite := range suites {
		totalChecks += len(suite.Checks)
	}

	step := 0
	for _, suite := range suites {
		report.Suites = append(report.Suites, suite.Name)
		e.sendProgress(progress, suiteStartUpdate(suite, step, totalChecks))

		for _, check := range suite.Checks {
			step++
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			e.sendProgress(progress, checkStartUpdate(suite, check, step, totalChecks))

			if err := check.Fn(ctx, e.env, e.recorder); err != nil {
				e.recorder.Record(suite.Name, check.Name, false, err.Error(), nil)
			}

			success := true
			if results := e.recorder.Results(); len(results) > 0 {
				success = results[len(results)-1].Success
			}
			e.sendProgress(progress, checkDoneUpdate(suite, check, step, totalChecks, success))
		}
	}

	all := e.recorder.Results()
	report.Results = all[before:]
	report.FinishedAt = time.Now()
	report.Total = len(report.Results)
	for _, result := range report.Results {
		if result.Success {
			report.Passed++
		} else {
			report.Failed++
		}
	}

	e.sendProgress(progress, runDoneUpdate(report, totalChecks))
	return report, nil
}

// DefaultSuites returns the standard suite set in execution order.
func DefaultSuites() []Suite {
	return []Suite{
		AuthSuite(),
		CatalogSuite(),
		AnalyticsSuite(),
		BillingSuite(),
		PlaylistSuite(),
		SpotifySyncSuite(),
		ConcurrentSuite(),
	}
}
