// Spotify Web API client used to verify playlist imports
//
// The platform lets musicians build their catalog by importing Spotify
// playlists. Several incidents involved imported playlists drifting from
// their source, so the harness fetches the source playlist directly and
// diffs it against the platform copy.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/requestwave/soundcheck/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// spotifyTrack is the subset of Spotify's track object the harness compares on.
type spotifyTrack struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Name string `json:"name"`
	} `json:"album"`
	DurationMS int `json:"duration_ms"`
}

func (t spotifyTrack) toSong() Song {
	song := Song{
		ID:          t.ID,
		Title:       t.Name,
		Album:       t.Album.Name,
		DurationSec: t.DurationMS / 1000,
	}
	if len(t.Artists) > 0 {
		song.Artist = t.Artists[0].Name
	}
	return song
}

// SpotifyPlaylist represents a Spotify playlist with its tracks flattened to songs.
type SpotifyPlaylist struct {
	ID          string
	Name        string
	Description string
	Public      bool
	Songs       []Song
}

// SpotifyService wraps the Spotify Web API with [oauth2] authentication.
type SpotifyService struct {
	config         *oauth2.Config
	token          *oauth2.Token
	httpClient     *http.Client
	onTokenRefresh func(*oauth2.Token)
}

// NewSpotifyService creates a Spotify client with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"playlist-read-private",
			"playlist-read-collaborative",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
	}, nil
}

// Name returns the service name.
func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig returns the underlying OAuth2 config, used by the local
// callback server to exchange the authorization code.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// SetTokenRefreshCallback registers a callback invoked whenever the underlying
// token source produces a new token, so refreshed tokens can be persisted.
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.onTokenRefresh = fn
}

// Authenticate establishes a Spotify session. Expects either an "access_token"
// (optionally with "refresh_token") or an "auth_code" in credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		s.token = &oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: credentials["refresh_token"],
		}
		s.installClient(ctx)
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
		}
		s.token = token
		s.installClient(ctx)
		return nil
	}

	return fmt.Errorf("%w: missing access_token or auth_code", shared.ErrMissingCredentials)
}

// SetToken installs an already-obtained token (e.g. from the callback server flow).
func (s *SpotifyService) SetToken(ctx context.Context, token *oauth2.Token) {
	s.token = token
	s.installClient(ctx)
}

func (s *SpotifyService) installClient(ctx context.Context) {
	source := &refreshableTokenSource{
		source:   s.config.TokenSource(ctx, s.token),
		callback: s.onTokenRefresh,
	}
	s.httpClient = oauth2.NewClient(ctx, source)
}

// doRequest performs an authenticated HTTP GET against the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, spotifyBaseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("spotify API error: status %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Playlist retrieves a playlist by ID, following track pagination.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*SpotifyPlaylist, error) {
	var response struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Public      bool   `json:"public"`
		Tracks      struct {
			Total int `json:"total"`
			Items []struct {
				Track spotifyTrack `json:"track"`
			} `json:"items"`
			Next *string `json:"next"`
		} `json:"tracks"`
	}

	endpoint := fmt.Sprintf("/playlists/%s", url.PathEscape(playlistID))
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	playlist := &SpotifyPlaylist{
		ID:          response.ID,
		Name:        response.Name,
		Description: response.Description,
		Public:      response.Public,
	}

	for _, item := range response.Tracks.Items {
		playlist.Songs = append(playlist.Songs, item.Track.toSong())
	}

	offset := len(response.Tracks.Items)
	for offset < response.Tracks.Total {
		page, err := s.playlistTracksPage(ctx, playlistID, offset)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		playlist.Songs = append(playlist.Songs, page...)
		offset += len(page)
	}

	return playlist, nil
}

// playlistTracksPage fetches one page of a playlist's tracks.
func (s *SpotifyService) playlistTracksPage(ctx context.Context, playlistID string, offset int) ([]Song, error) {
	var response struct {
		Items []struct {
			Track spotifyTrack `json:"track"`
		} `json:"items"`
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=100&offset=%d", url.PathEscape(playlistID), offset)
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	songs := make([]Song, 0, len(response.Items))
	for _, item := range response.Items {
		songs = append(songs, item.Track.toSong())
	}
	return songs, nil
}

// SearchTrack searches for a track by title and artist and returns the best match.
func (s *SpotifyService) SearchTrack(ctx context.Context, title, artist string) (*Song, error) {
	query := title
	if artist != "" {
		query = fmt.Sprintf("track:%s artist:%s", title, artist)
	}

	var response struct {
		Tracks struct {
			Items []spotifyTrack `json:"items"`
		} `json:"tracks"`
	}

	endpoint := fmt.Sprintf("/search?type=track&limit=1&q=%s", url.QueryEscape(query))
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	if len(response.Tracks.Items) == 0 {
		return nil, fmt.Errorf("%w: %s - %s", shared.ErrSongNotFound, artist, title)
	}

	song := response.Tracks.Items[0].toSong()
	return &song, nil
}

// refreshableTokenSource wraps an [oauth2.TokenSource] and invokes a callback
// when the access token changes, so refreshed tokens can be written back to
// the config file.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)
	mu       sync.Mutex
	last     string
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	changed := token.AccessToken != r.last
	if changed {
		r.last = token.AccessToken
	}
	r.mu.Unlock()

	if changed && r.callback != nil {
		r.callback(token)
	}

	return token, nil
}
