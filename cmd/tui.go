package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/requestwave/soundcheck/internal/checks"
	"github.com/requestwave/soundcheck/internal/shared"
	"github.com/requestwave/soundcheck/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for running check suites.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.platform == nil {
		return fmt.Errorf("%w: platform client not initialized", shared.ErrServiceUnavailable)
	}
	if r.engine == nil {
		return fmt.Errorf("%w: check engine not initialized", shared.ErrServiceUnavailable)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/soundcheck-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	// A quiet recorder: per-check lines would corrupt the TUI, progress
	// updates carry the same information to the run view.
	env := &checks.Env{
		Platform: r.platform,
		API:      r.api,
		Spotify:  r.spotify,
		Config:   r.config,
		Logger:   fileLogger,
	}
	engine := checks.NewEngine(env, checks.NewRecorder(fileLogger, nil), checks.DefaultSuites()...)

	model := ui.NewModel(ctx, engine)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
