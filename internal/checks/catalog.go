package checks

import (
	"context"
	"fmt"

	"github.com/requestwave/soundcheck/internal/services"
	"github.com/requestwave/soundcheck/internal/shared"
)

// CatalogSuite verifies the song catalog and the audience request flow.
func CatalogSuite() Suite {
	return Suite{
		Name:        "catalog",
		Description: "Song catalog and audience request round-trip",
		Checks: []Check{
			{Name: "catalog lists songs", Fn: checkSongList},
			{Name: "audience request appears in the log", Fn: checkRequestRoundTrip},
		},
	}
}

func checkSongList(ctx context.Context, env *Env, rec *Recorder) error {
	songs, err := env.Platform.Songs(ctx)
	if err != nil {
		rec.Record("catalog", "catalog lists songs", false, err.Error(), nil)
		return nil
	}

	for _, song := range songs {
		if song.ID == "" || song.Title == "" {
			rec.Record("catalog", "catalog lists songs", false,
				"catalog entry missing id or title",
				map[string]any{"count": len(songs), "song_id": song.ID})
			return nil
		}
	}

	rec.Record("catalog", "catalog lists songs", true, "",
		map[string]any{"count": len(songs)})
	return nil
}

// checkRequestRoundTrip submits an audience request against the authenticated
// musician's public page and verifies it lands in the request log, then
// removes it.
func checkRequestRoundTrip(ctx context.Context, env *Env, rec *Recorder) error {
	const name = "audience request appears in the log"

	slug := env.Platform.MusicianSlug()
	if slug == "" {
		return fmt.Errorf("%w: no musician slug; login check must run first", shared.ErrNotAuthenticated)
	}

	songs, err := env.Platform.Songs(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch catalog: %w", err)
	}
	if len(songs) == 0 {
		rec.Record("catalog", name, true, "skipped: catalog is empty", nil)
		return nil
	}

	marker := "soundcheck-" + shared.GenerateID()[:8]
	created, err := env.Platform.CreateRequest(ctx, slug, services.SongRequest{
		SongID:        songs[0].ID,
		RequesterName: marker,
		Dedication:    "harness round-trip probe",
	})
	if err != nil {
		rec.Record("catalog", name, false,
			fmt.Sprintf("request submission failed: %v", err),
			map[string]any{"song_id": songs[0].ID})
		return nil
	}

	requests, err := env.Platform.Requests(ctx)
	if err != nil {
		rec.Record("catalog", name, false,
			fmt.Sprintf("request log fetch failed: %v", err), nil)
		return nil
	}

	found := false
	for _, request := range requests {
		if request.ID == created.ID || request.RequesterName == marker {
			found = true
			break
		}
	}

	// Best-effort cleanup either way.
	if created.ID != "" {
		if err := env.Platform.DeleteRequest(ctx, created.ID); err != nil {
			env.Logger.Warn("failed to clean up probe request", "id", created.ID, "error", err)
		}
	}

	if !found {
		rec.Record("catalog", name, false,
			"created request missing from the request log",
			map[string]any{"request_id": created.ID, "log_size": len(requests)})
		return nil
	}

	rec.Record("catalog", name, true, "",
		map[string]any{"request_id": created.ID})
	return nil
}
