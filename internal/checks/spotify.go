package checks

import (
	"context"
	"errors"
	"fmt"

	"github.com/requestwave/soundcheck/internal/services"
	"github.com/requestwave/soundcheck/internal/shared"
)

// SpotifySyncSuite verifies imported playlists still match their Spotify
// source. Skips cleanly when no Spotify session is configured or no imported
// playlists exist.
func SpotifySyncSuite() Suite {
	return Suite{
		Name:        "spotify-sync",
		Description: "Imported playlists match their Spotify source",
		Checks: []Check{
			{Name: "imported playlists match their source", Fn: checkSpotifySync},
		},
	}
}

// playlistDiff describes how a platform playlist diverges from its source.
type playlistDiff struct {
	Missing []string // in the source, not on the platform
	Extra   []string // on the platform, not in the source
}

// diffSongs compares two song sets by normalized title|artist key.
func diffSongs(source, imported []services.Song) playlistDiff {
	sourceKeys := make(map[string]string, len(source))
	for _, song := range source {
		sourceKeys[shared.NormalizeSongKey(song.Title, song.Artist)] = song.Title
	}

	importedKeys := make(map[string]string, len(imported))
	for _, song := range imported {
		importedKeys[shared.NormalizeSongKey(song.Title, song.Artist)] = song.Title
	}

	var diff playlistDiff
	for key, title := range sourceKeys {
		if _, ok := importedKeys[key]; !ok {
			diff.Missing = append(diff.Missing, title)
		}
	}
	for key, title := range importedKeys {
		if _, ok := sourceKeys[key]; !ok {
			diff.Extra = append(diff.Extra, title)
		}
	}
	return diff
}

func checkSpotifySync(ctx context.Context, env *Env, rec *Recorder) error {
	const name = "imported playlists match their source"

	if env.Spotify == nil {
		rec.Record("spotify-sync", name, true,
			"skipped: no Spotify session configured", nil)
		return nil
	}

	playlists, err := env.Platform.Playlists(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch playlists: %w", err)
	}

	var linked, unlinked []services.Playlist
	for _, playlist := range playlists {
		if playlist.Source != "spotify" {
			continue
		}
		if playlist.SpotifyID != "" {
			linked = append(linked, playlist)
		} else {
			unlinked = append(unlinked, playlist)
		}
	}

	if len(linked) == 0 && len(unlinked) == 0 {
		rec.Record("spotify-sync", name, true,
			"skipped: no imported playlists", nil)
		return nil
	}

	for _, summary := range linked {
		platformCopy, err := env.Platform.Playlist(ctx, summary.ID)
		if err != nil {
			rec.Record("spotify-sync", name, false,
				fmt.Sprintf("failed to fetch platform playlist %s: %v", summary.ID, err),
				map[string]any{"playlist_id": summary.ID})
			return nil
		}

		source, err := env.Spotify.Playlist(ctx, summary.SpotifyID)
		if err != nil {
			rec.Record("spotify-sync", name, false,
				fmt.Sprintf("failed to fetch Spotify source %s: %v", summary.SpotifyID, err),
				map[string]any{"playlist_id": summary.ID, "spotify_id": summary.SpotifyID})
			return nil
		}

		diff := diffSongs(source.Songs, platformCopy.Songs)
		if len(diff.Missing) > 0 || len(diff.Extra) > 0 {
			rec.Record("spotify-sync", name, false,
				fmt.Sprintf("playlist %q drifted: %d missing, %d extra",
					platformCopy.Name, len(diff.Missing), len(diff.Extra)),
				map[string]any{
					"playlist_id": platformCopy.ID,
					"spotify_id":  summary.SpotifyID,
					"missing":     diff.Missing,
					"extra":       diff.Extra,
				})
			return nil
		}
	}

	// Imported playlists that lost their source link can't be diffed wholesale.
	// Fall back to resolving each song individually.
	for _, summary := range unlinked {
		platformCopy, err := env.Platform.Playlist(ctx, summary.ID)
		if err != nil {
			rec.Record("spotify-sync", name, false,
				fmt.Sprintf("failed to fetch platform playlist %s: %v", summary.ID, err),
				map[string]any{"playlist_id": summary.ID})
			return nil
		}

		var unresolved []string
		for _, song := range platformCopy.Songs {
			if _, err := env.Spotify.SearchTrack(ctx, song.Title, song.Artist); err != nil {
				if errors.Is(err, shared.ErrSongNotFound) {
					unresolved = append(unresolved, song.Title)
					continue
				}
				rec.Record("spotify-sync", name, false,
					fmt.Sprintf("track lookup failed for %q: %v", song.Title, err),
					map[string]any{"playlist_id": summary.ID})
				return nil
			}
		}

		if len(unresolved) > 0 {
			rec.Record("spotify-sync", name, false,
				fmt.Sprintf("playlist %q has no source link and %d songs not found on Spotify",
					platformCopy.Name, len(unresolved)),
				map[string]any{
					"playlist_id": platformCopy.ID,
					"unresolved":  unresolved,
				})
			return nil
		}
	}

	rec.Record("spotify-sync", name, true, "",
		map[string]any{"linked": len(linked), "unlinked": len(unlinked)})
	return nil
}
