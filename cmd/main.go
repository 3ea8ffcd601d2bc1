package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/requestwave/soundcheck/internal/services"
	"github.com/requestwave/soundcheck/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	platform := services.NewPlatformService(services.PlatformOpts{
		BaseURL:   config.Target.BaseURL,
		Timeout:   time.Duration(config.Target.TimeoutSeconds) * time.Second,
		RateLimit: config.Target.RateLimit,
	})
	if config.Target.Token != "" {
		platform.SetToken(config.Target.Token)
	}

	api := services.NewAPIService(config.Target.BaseURL, nil)
	if config.Target.Token != "" {
		api.SetToken(config.Target.Token)
	}

	var spotify *services.SpotifyService
	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if svc, err := services.NewSpotifyService(map[string]string{
			"client_id":     config.Credentials.Spotify.ClientID,
			"client_secret": config.Credentials.Spotify.ClientSecret,
			"redirect_uri":  config.Credentials.Spotify.RedirectURI,
		}); err == nil {
			spotify = svc
			spotify.SetTokenRefreshCallback(func(token *oauth2.Token) {
				if err := config.Credentials.Spotify.Update(token); err != nil {
					logger.Warn("failed to update spotify credentials", "error", err)
					return
				}
				if err := shared.SaveConfig("config.toml", config); err != nil {
					logger.Warn("failed to persist refreshed spotify token", "error", err)
				}
			})
			if config.Credentials.Spotify.AccessToken != "" {
				spotify.Authenticate(context.Background(), map[string]string{
					"access_token":  config.Credentials.Spotify.AccessToken,
					"refresh_token": config.Credentials.Spotify.RefreshToken,
				})
			}
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:   config,
		Platform: platform,
		API:      api,
		Spotify:  spotify,
		Logger:   logger,
	})

	app := &cli.Command{
		Name:     "soundcheck",
		Usage:    "Diagnostics and smoke tests for the song request platform",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrCheckFailed) {
			os.Exit(1)
		}
		logger.Fatalf("application error: %v", err)
	}
}
