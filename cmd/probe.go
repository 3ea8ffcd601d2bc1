package main

import (
	"context"
	"fmt"

	"github.com/requestwave/soundcheck/internal/checks"
	"github.com/requestwave/soundcheck/internal/shared"
	"github.com/urfave/cli/v3"
)

// ProbeConcurrent submits audience requests from concurrent workers and
// verifies every dispatched request produced exactly one outcome.
func (r *Runner) ProbeConcurrent(ctx context.Context, cmd *cli.Command) error {
	opts := checks.ProbeOpts{
		Workers:   int(cmd.Int("workers")),
		Requests:  int(cmd.Int("requests")),
		RateLimit: cmd.Float("rate"),
		Slug:      cmd.String("slug"),
	}
	useJSON := cmd.Bool("json")

	if r.platform.Token() == "" && opts.Slug == "" {
		target := r.config.Target
		if target.Email == "" || target.Password == "" {
			return fmt.Errorf("%w: login first or pass --slug", shared.ErrNotAuthenticated)
		}
		if _, err := r.platform.Login(ctx, target.Email, target.Password); err != nil {
			return err
		}
	}

	env := &checks.Env{
		Platform: r.platform,
		API:      r.api,
		Spotify:  r.spotify,
		Config:   r.config,
		Logger:   r.logger,
	}

	progress := make(chan checks.ProgressUpdate, 50)
	done := make(chan struct{})
	if !useJSON {
		go func() {
			defer close(done)
			for update := range progress {
				r.writePlain("%s\n", update.Message)
			}
		}()
	} else {
		close(done)
		progress = nil
	}

	result, err := checks.RunConcurrentProbe(ctx, env, opts, progress)
	if progress != nil {
		close(progress)
		<-done
	}
	if err != nil {
		return err
	}

	if useJSON {
		if err := r.writeJSON(result, true); err != nil {
			return err
		}
	} else {
		r.writePlainln("Dispatched: %d  Collected: %d  Succeeded: %d  Failed: %d",
			result.Dispatched, result.Collected, result.Succeeded, result.Failed)
	}

	if result.Collected != result.Dispatched || result.Failed > 0 {
		return fmt.Errorf("%w: %d dispatched, %d collected, %d failed",
			shared.ErrCheckFailed, result.Dispatched, result.Collected, result.Failed)
	}
	return nil
}
