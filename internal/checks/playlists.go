package checks

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/requestwave/soundcheck/internal/services"
)

// PlaylistSuite verifies playlist CRUD and the pro gate around it.
//
// The expectation flips on the account's tier: free accounts must be refused
// with 402/403, pro accounts must get the full round-trip.
func PlaylistSuite() Suite {
	return Suite{
		Name:        "playlists",
		Description: "Playlist round-trip and pro gating",
		Checks: []Check{
			{Name: "playlist create honors the account tier", Fn: checkPlaylistRoundTrip},
			{Name: "playlist song counts are consistent", Fn: checkPlaylistCounts},
		},
	}
}

func checkPlaylistRoundTrip(ctx context.Context, env *Env, rec *Recorder) error {
	const name = "playlist create honors the account tier"

	musician, err := env.Platform.Me(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch profile: %w", err)
	}

	created, err := env.Platform.CreatePlaylist(ctx, services.Playlist{
		Name:   "soundcheck probe playlist",
		Public: false,
	})

	if err != nil {
		var statusErr *services.StatusError
		gated := errors.As(err, &statusErr) &&
			(statusErr.StatusCode == http.StatusPaymentRequired || statusErr.StatusCode == http.StatusForbidden)

		if gated && !musician.ProAccess {
			rec.Record("playlists", name, true, "free account correctly gated",
				map[string]any{"status": statusErr.StatusCode})
			return nil
		}
		if gated {
			rec.Record("playlists", name, false,
				fmt.Sprintf("pro account gated with %d", statusErr.StatusCode),
				map[string]any{"status": statusErr.StatusCode, "pro_access": musician.ProAccess})
			return nil
		}
		rec.Record("playlists", name, false, err.Error(), nil)
		return nil
	}

	if !musician.ProAccess {
		// Created despite a free tier: clean up and flag the missing gate.
		if created.ID != "" {
			if err := env.Platform.DeletePlaylist(ctx, created.ID); err != nil {
				env.Logger.Warn("failed to clean up probe playlist", "id", created.ID, "error", err)
			}
		}
		rec.Record("playlists", name, false,
			"free account was allowed to create a playlist",
			map[string]any{"playlist_id": created.ID})
		return nil
	}

	playlists, err := env.Platform.Playlists(ctx)
	if err != nil {
		rec.Record("playlists", name, false,
			fmt.Sprintf("playlist list fetch failed: %v", err), nil)
		return nil
	}

	found := false
	for _, playlist := range playlists {
		if playlist.ID == created.ID {
			found = true
			break
		}
	}

	if err := env.Platform.DeletePlaylist(ctx, created.ID); err != nil {
		env.Logger.Warn("failed to clean up probe playlist", "id", created.ID, "error", err)
	}

	if !found {
		rec.Record("playlists", name, false,
			"created playlist missing from the playlist list",
			map[string]any{"playlist_id": created.ID})
		return nil
	}

	rec.Record("playlists", name, true, "",
		map[string]any{"playlist_id": created.ID})
	return nil
}

// checkPlaylistCounts verifies each playlist's reported song_count matches
// the songs actually returned when the playlist is fetched.
func checkPlaylistCounts(ctx context.Context, env *Env, rec *Recorder) error {
	const name = "playlist song counts are consistent"

	playlists, err := env.Platform.Playlists(ctx)
	if err != nil {
		var statusErr *services.StatusError
		if errors.As(err, &statusErr) &&
			(statusErr.StatusCode == http.StatusPaymentRequired || statusErr.StatusCode == http.StatusForbidden) {
			rec.Record("playlists", name, true, "skipped: playlists gated for this account", nil)
			return nil
		}
		return fmt.Errorf("failed to fetch playlists: %w", err)
	}

	if len(playlists) == 0 {
		rec.Record("playlists", name, true, "skipped: no playlists", nil)
		return nil
	}

	for _, summary := range playlists {
		playlist, err := env.Platform.Playlist(ctx, summary.ID)
		if err != nil {
			rec.Record("playlists", name, false,
				fmt.Sprintf("failed to fetch playlist %s: %v", summary.ID, err),
				map[string]any{"playlist_id": summary.ID})
			return nil
		}

		if playlist.SongCount != len(playlist.Songs) {
			rec.Record("playlists", name, false,
				fmt.Sprintf("playlist %q reports %d songs but returns %d",
					playlist.Name, playlist.SongCount, len(playlist.Songs)),
				map[string]any{
					"playlist_id": playlist.ID,
					"song_count":  playlist.SongCount,
					"songs":       len(playlist.Songs),
				})
			return nil
		}
	}

	rec.Record("playlists", name, true, "",
		map[string]any{"playlists": len(playlists)})
	return nil
}
