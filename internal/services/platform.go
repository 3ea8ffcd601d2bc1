// RequestWave platform API client
//
// Wraps the song request backend's REST API with bearer token injection, a
// single configured timeout, and a shared rate limiter. Consolidates the
// header construction and status handling that the investigation scripts
// used to reimplement per file.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/requestwave/soundcheck/internal/shared"
	"golang.org/x/time/rate"
)

const defaultPlatformBaseURL = "http://localhost:8001"

// PlatformService is the authenticated client for the song request platform.
//
// Session state (token, musician identity) is set once by Login or SetToken
// and read by subsequent calls.
type PlatformService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter

	token         string
	musicianID    string
	musicianSlug  string
	musicianEmail string
}

// PlatformOpts contains configuration options for creating a PlatformService.
type PlatformOpts struct {
	BaseURL    string
	Timeout    time.Duration
	RateLimit  float64
	HTTPClient *http.Client
}

// NewPlatformService creates a platform client with the unified timeout and
// rate limit policy applied to every request.
func NewPlatformService(opts PlatformOpts) *PlatformService {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultPlatformBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 10
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}

	return &PlatformService{
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
	}
}

// Name returns the service name.
func (p *PlatformService) Name() string {
	return "RequestWave"
}

// BaseURL returns the configured backend base URL.
func (p *PlatformService) BaseURL() string {
	return p.baseURL
}

// Token returns the current session token, empty if not authenticated.
func (p *PlatformService) Token() string {
	return p.token
}

// SetToken seeds the session with an existing bearer token.
func (p *PlatformService) SetToken(token string) {
	p.token = token
}

// MusicianID returns the authenticated musician's ID, empty before login.
func (p *PlatformService) MusicianID() string {
	return p.musicianID
}

// MusicianSlug returns the authenticated musician's slug, empty before login.
func (p *PlatformService) MusicianSlug() string {
	return p.musicianSlug
}

// MusicianEmail returns the authenticated musician's email, empty before login.
func (p *PlatformService) MusicianEmail() string {
	return p.musicianEmail
}

// Limiter returns the client's shared rate limiter.
func (p *PlatformService) Limiter() *rate.Limiter {
	return p.limiter
}

// apiError is the backend's error envelope.
type apiError struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

// StatusError reports a non-2xx platform response with its decoded detail.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("platform API error (status %d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("platform API error: status %d", e.StatusCode)
}

// doRequest performs an authenticated HTTP request against the platform API.
//
// Injects the bearer token when a session is active and decodes the response
// into result. A non-2xx status returns a *StatusError so callers can branch
// on the code without string matching.
func (p *PlatformService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	apiURL := p.baseURL + endpoint

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp apiError
		detail := ""
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			detail = errResp.Detail
			if detail == "" {
				detail = errResp.Error
			}
		}
		return &StatusError{StatusCode: resp.StatusCode, Detail: detail}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Health retrieves the backend health status. Does not require a session.
func (p *PlatformService) Health(ctx context.Context) (*Health, error) {
	var health Health
	if err := p.doRequest(ctx, http.MethodGet, "/health", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Login authenticates with email and password, storing the session token and
// musician identity on success.
func (p *PlatformService) Login(ctx context.Context, email, password string) (*Musician, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password required", shared.ErrMissingCredentials)
	}

	body := map[string]string{"email": email, "password": password}

	var loginResp struct {
		Token    string   `json:"token"`
		Musician Musician `json:"musician"`
	}

	if err := p.doRequest(ctx, http.MethodPost, "/api/auth/login", body, &loginResp); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}

	if loginResp.Token == "" {
		return nil, fmt.Errorf("%w: login response missing token", shared.ErrAuthFailed)
	}

	p.token = loginResp.Token
	p.musicianID = loginResp.Musician.ID
	p.musicianSlug = loginResp.Musician.Slug
	p.musicianEmail = loginResp.Musician.Email

	return &loginResp.Musician, nil
}

// Me retrieves the authenticated musician's profile.
func (p *PlatformService) Me(ctx context.Context) (*Musician, error) {
	if p.token == "" {
		return nil, shared.ErrNotAuthenticated
	}

	var musician Musician
	if err := p.doRequest(ctx, http.MethodGet, "/api/musicians/me", nil, &musician); err != nil {
		return nil, err
	}
	return &musician, nil
}

// Musician retrieves a musician's public profile by slug. No session required.
func (p *PlatformService) Musician(ctx context.Context, slug string) (*Musician, error) {
	var musician Musician
	endpoint := fmt.Sprintf("/api/musicians/%s", url.PathEscape(slug))
	if err := p.doRequest(ctx, http.MethodGet, endpoint, nil, &musician); err != nil {
		return nil, err
	}
	return &musician, nil
}

// Songs retrieves the authenticated musician's catalog.
func (p *PlatformService) Songs(ctx context.Context) ([]Song, error) {
	var songs []Song
	if err := p.doRequest(ctx, http.MethodGet, "/api/songs", nil, &songs); err != nil {
		return nil, err
	}
	return songs, nil
}

// CreateSong adds a song to the catalog.
func (p *PlatformService) CreateSong(ctx context.Context, song Song) (*Song, error) {
	var created Song
	if err := p.doRequest(ctx, http.MethodPost, "/api/songs", song, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteSong removes a song from the catalog.
func (p *PlatformService) DeleteSong(ctx context.Context, songID string) error {
	endpoint := fmt.Sprintf("/api/songs/%s", url.PathEscape(songID))
	return p.doRequest(ctx, http.MethodDelete, endpoint, nil, nil)
}

// CreateRequest submits an audience song request for the given musician slug.
// The request endpoint is public and does not require a session.
func (p *PlatformService) CreateRequest(ctx context.Context, slug string, request SongRequest) (*SongRequest, error) {
	endpoint := fmt.Sprintf("/api/musicians/%s/requests", url.PathEscape(slug))

	var created SongRequest
	if err := p.doRequest(ctx, http.MethodPost, endpoint, request, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Requests retrieves the authenticated musician's request log.
func (p *PlatformService) Requests(ctx context.Context) ([]SongRequest, error) {
	var requests []SongRequest
	if err := p.doRequest(ctx, http.MethodGet, "/api/requests", nil, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// DeleteRequest removes a request from the log.
func (p *PlatformService) DeleteRequest(ctx context.Context, requestID string) error {
	endpoint := fmt.Sprintf("/api/requests/%s", url.PathEscape(requestID))
	return p.doRequest(ctx, http.MethodDelete, endpoint, nil, nil)
}

// Playlists retrieves the authenticated musician's playlists.
func (p *PlatformService) Playlists(ctx context.Context) ([]Playlist, error) {
	var playlists []Playlist
	if err := p.doRequest(ctx, http.MethodGet, "/api/playlists", nil, &playlists); err != nil {
		return nil, err
	}
	return playlists, nil
}

// Playlist retrieves a playlist with its songs.
func (p *PlatformService) Playlist(ctx context.Context, playlistID string) (*Playlist, error) {
	endpoint := fmt.Sprintf("/api/playlists/%s", url.PathEscape(playlistID))

	var playlist Playlist
	if err := p.doRequest(ctx, http.MethodGet, endpoint, nil, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// CreatePlaylist creates a playlist. Pro-gated on the backend.
func (p *PlatformService) CreatePlaylist(ctx context.Context, playlist Playlist) (*Playlist, error) {
	var created Playlist
	if err := p.doRequest(ctx, http.MethodPost, "/api/playlists", playlist, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// DeletePlaylist removes a playlist.
func (p *PlatformService) DeletePlaylist(ctx context.Context, playlistID string) error {
	endpoint := fmt.Sprintf("/api/playlists/%s", url.PathEscape(playlistID))
	return p.doRequest(ctx, http.MethodDelete, endpoint, nil, nil)
}

// AnalyticsDaily retrieves the daily analytics report for the last N days.
func (p *PlatformService) AnalyticsDaily(ctx context.Context, days int) (*AnalyticsSummary, error) {
	if days <= 0 {
		days = 7
	}

	endpoint := fmt.Sprintf("/api/analytics/daily?days=%d", days)

	var summary AnalyticsSummary
	if err := p.doRequest(ctx, http.MethodGet, endpoint, nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// SubscriptionStatus retrieves the authenticated musician's billing state.
func (p *PlatformService) SubscriptionStatus(ctx context.Context) (*Subscription, error) {
	var sub Subscription
	if err := p.doRequest(ctx, http.MethodGet, "/api/subscription/status", nil, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// CreateCheckout starts a Stripe checkout session for the pro plan.
func (p *PlatformService) CreateCheckout(ctx context.Context, plan string) (*CheckoutSession, error) {
	if plan == "" {
		plan = "pro"
	}

	body := map[string]string{"plan": plan}

	var session CheckoutSession
	if err := p.doRequest(ctx, http.MethodPost, "/api/subscription/checkout", body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// PostWebhook delivers a raw Stripe webhook payload with the given signature
// header. Returns the *StatusError for non-2xx responses so checks can assert
// that unsigned payloads are rejected.
func (p *PlatformService) PostWebhook(ctx context.Context, payload []byte, signature string) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/stripe/webhook", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode}
	}

	return nil
}
