package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/requestwave/soundcheck/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request to the backend
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	pretty := cmd.Bool("pretty")

	if path == "" {
		return fmt.Errorf("%w: path argument is required", shared.ErrMissingArgument)
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.api.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// APIPost makes a direct POST request to the backend
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	data := cmd.String("data")

	if path == "" {
		return fmt.Errorf("%w: path argument is required", shared.ErrMissingArgument)
	}
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	r.logger.Info("POST request", "path", path)

	var jsonTest any
	if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}

	resp, err := r.api.Post(ctx, path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, true)
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// APIDump fetches and displays the authenticated account's state.
func (r *Runner) APIDump(ctx context.Context, cmd *cli.Command) error {
	pretty := cmd.Bool("pretty")
	save := cmd.Bool("save")

	r.logger.Info("dumping account state")
	r.writePlain("Fetching account state...\n\n")

	type DumpData struct {
		Health       any   `json:"health"`
		Profile      any   `json:"profile,omitempty"`
		Songs        any   `json:"songs,omitempty"`
		Requests     any   `json:"requests,omitempty"`
		Playlists    any   `json:"playlists,omitempty"`
		Subscription any   `json:"subscription,omitempty"`
		Analytics    any   `json:"analytics,omitempty"`
		Errors       []any `json:"errors,omitempty"`
	}

	dump := DumpData{
		Errors: []any{},
	}

	endpoints := []struct {
		label  string
		path   string
		target *any
	}{
		{"health status", "/health", &dump.Health},
		{"profile", "/api/musicians/me", &dump.Profile},
		{"songs", "/api/songs", &dump.Songs},
		{"requests", "/api/requests", &dump.Requests},
		{"playlists", "/api/playlists", &dump.Playlists},
		{"subscription", "/api/subscription/status", &dump.Subscription},
		{"analytics", "/api/analytics/daily?days=7", &dump.Analytics},
	}

	for _, endpoint := range endpoints {
		r.writePlain("Fetching %s...\n", endpoint.label)
		resp, err := r.api.Get(ctx, endpoint.path)
		if err != nil {
			dump.Errors = append(dump.Errors, map[string]string{"endpoint": endpoint.path, "error": err.Error()})
			r.logger.Warn("failed to fetch", "endpoint", endpoint.path, "error", err)
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			dump.Errors = append(dump.Errors, map[string]string{
				"endpoint": endpoint.path,
				"error":    fmt.Sprintf("status %d", resp.StatusCode),
			})
			continue
		}
		*endpoint.target = resp.JSONData
	}

	r.writePlain("\n")

	if save {
		data, err := shared.MarshalJSON(dump, true)
		if err != nil {
			return fmt.Errorf("failed to marshal dump: %w", err)
		}
		if err := os.WriteFile("account_dump.json", data, 0644); err != nil {
			return fmt.Errorf("failed to save dump: %w", err)
		}
		r.logger.Info("dump saved", "path", "account_dump.json")
		return r.writePlain("✓ Dump saved to account_dump.json\n")
	}

	return r.writeJSON(dump, pretty)
}
