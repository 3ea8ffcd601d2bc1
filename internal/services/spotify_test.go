package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/requestwave/soundcheck/internal/shared"
	testutils "github.com/requestwave/soundcheck/internal/testing"
	"golang.org/x/oauth2"
)

func spotifyTestService(t *testing.T, body string) *SpotifyService {
	t.Helper()

	svc, err := NewSpotifyService(map[string]string{
		"client_id":     "id",
		"client_secret": "secret",
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	svc.token = &oauth2.Token{AccessToken: "tok"}
	svc.httpClient = &http.Client{
		Transport: testutils.NewMockRoundTripper(&http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(strings.NewReader(body)),
		}, nil),
	}
	return svc
}

func TestNewSpotifyService(t *testing.T) {
	t.Run("requires client credentials", func(t *testing.T) {
		if _, err := NewSpotifyService(map[string]string{"client_id": "id"}); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("defaults the redirect URI", func(t *testing.T) {
		svc, err := NewSpotifyService(map[string]string{
			"client_id":     "id",
			"client_secret": "secret",
		})
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}
		if svc.config.RedirectURL != "http://localhost:8080/callback" {
			t.Errorf("unexpected redirect URI: %s", svc.config.RedirectURL)
		}
	})
}

func TestSearchTrack(t *testing.T) {
	t.Run("returns the best match as a song", func(t *testing.T) {
		svc := spotifyTestService(t, `{
			"tracks": {"items": [{
				"id": "track-1",
				"name": "Wonderwall",
				"artists": [{"name": "Oasis"}],
				"album": {"name": "Morning Glory"},
				"duration_ms": 258000
			}]}
		}`)

		song, err := svc.SearchTrack(context.Background(), "Wonderwall", "Oasis")
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if song.ID != "track-1" || song.Title != "Wonderwall" || song.Artist != "Oasis" {
			t.Errorf("unexpected song: %+v", song)
		}
		if song.DurationSec != 258 {
			t.Errorf("expected duration in seconds, got %d", song.DurationSec)
		}
	})

	t.Run("no results is a song-not-found error", func(t *testing.T) {
		svc := spotifyTestService(t, `{"tracks": {"items": []}}`)

		if _, err := svc.SearchTrack(context.Background(), "Nonexistent", "Nobody"); !errors.Is(err, shared.ErrSongNotFound) {
			t.Errorf("expected ErrSongNotFound, got %v", err)
		}
	})

	t.Run("requires a session", func(t *testing.T) {
		svc, err := NewSpotifyService(map[string]string{
			"client_id":     "id",
			"client_secret": "secret",
		})
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		if _, err := svc.SearchTrack(context.Background(), "Wonderwall", "Oasis"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}

type stubTokenSource struct {
	tokens []*oauth2.Token
	calls  int
}

func (s *stubTokenSource) Token() (*oauth2.Token, error) {
	i := s.calls
	if i >= len(s.tokens) {
		i = len(s.tokens) - 1
	}
	s.calls++
	return s.tokens[i], nil
}

func TestRefreshableTokenSource(t *testing.T) {
	t.Run("callback fires once per token change", func(t *testing.T) {
		var seen []string
		source := &refreshableTokenSource{
			source: &stubTokenSource{tokens: []*oauth2.Token{
				{AccessToken: "first"},
				{AccessToken: "first"},
				{AccessToken: "second"},
			}},
			callback: func(token *oauth2.Token) {
				seen = append(seen, token.AccessToken)
			},
		}

		for i := 0; i < 3; i++ {
			if _, err := source.Token(); err != nil {
				t.Fatalf("token fetch failed: %v", err)
			}
		}

		if len(seen) != 2 || seen[0] != "first" || seen[1] != "second" {
			t.Errorf("expected one callback per distinct token, got %v", seen)
		}
	})

	t.Run("nil callback is safe", func(t *testing.T) {
		source := &refreshableTokenSource{
			source: &stubTokenSource{tokens: []*oauth2.Token{{AccessToken: "only"}}},
		}

		token, err := source.Token()
		if err != nil {
			t.Fatalf("token fetch failed: %v", err)
		}
		if token.AccessToken != "only" {
			t.Errorf("unexpected token: %s", token.AccessToken)
		}
	})
}
