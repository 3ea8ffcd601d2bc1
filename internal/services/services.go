// package services defines typed HTTP clients for the backends the harness talks to
//
// RequestWave platform API, Spotify (for playlist source verification)
package services

import "time"

// Musician represents a musician account on the platform.
type Musician struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Slug      string `json:"slug"`
	ProAccess bool   `json:"pro_access"`
}

// Song represents an entry in a musician's requestable catalog.
type Song struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Artist      string   `json:"artist"`
	Album       string   `json:"album,omitempty"`
	DurationSec int      `json:"duration_seconds,omitempty"`
	Genres      []string `json:"genres,omitempty"`
	Requestable bool     `json:"requestable"`
}

// SongRequest represents an audience song request.
type SongRequest struct {
	ID            string    `json:"id"`
	SongID        string    `json:"song_id"`
	SongTitle     string    `json:"song_title,omitempty"`
	RequesterName string    `json:"requester_name"`
	Dedication    string    `json:"dedication,omitempty"`
	Status        string    `json:"status"` // pending, played, rejected
	TipAmount     float64   `json:"tip_amount,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Playlist represents a musician playlist, optionally imported from Spotify.
type Playlist struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SongCount int    `json:"song_count"`
	Public    bool   `json:"public"`
	Source    string `json:"source,omitempty"` // manual, spotify
	SpotifyID string `json:"spotify_id,omitempty"`
	Songs     []Song `json:"songs,omitempty"`
}

// AnalyticsDay is one day's aggregate in the analytics report.
type AnalyticsDay struct {
	Date     string  `json:"date"`
	Requests int     `json:"requests"`
	Tips     float64 `json:"tips"`
}

// AnalyticsSummary is the response of the daily analytics endpoint.
type AnalyticsSummary struct {
	TotalRequests int            `json:"total_requests"`
	TotalTips     float64        `json:"total_tips"`
	Days          []AnalyticsDay `json:"days"`
}

// Subscription describes a musician's billing state.
type Subscription struct {
	Plan             string     `json:"plan"`   // free, trial, pro
	Status           string     `json:"status"` // active, trialing, canceled, none
	ProAccess        bool       `json:"pro_access"`
	SignupDate       *time.Time `json:"signup_date,omitempty"`
	TrialEndsAt      *time.Time `json:"trial_ends_at,omitempty"`
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
}

// CheckoutSession is the response of the subscription checkout endpoint.
type CheckoutSession struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// Health is the response of the platform health endpoint.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}
