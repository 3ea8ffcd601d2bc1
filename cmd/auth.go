package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/requestwave/soundcheck/internal/server"
	"github.com/requestwave/soundcheck/internal/services"
	"github.com/requestwave/soundcheck/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// AuthLogin authenticates with the configured credentials and verifies the session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	password := cmd.String("password")
	if email == "" {
		email = r.config.Target.Email
	}
	if password == "" {
		password = r.config.Target.Password
	}

	if email == "" || password == "" {
		return fmt.Errorf("%w: set target.email and target.password in config.toml or pass --email/--password", shared.ErrMissingCredentials)
	}

	r.logger.Info("logging in", "base_url", r.platform.BaseURL(), "email", email)

	musician, err := r.platform.Login(ctx, email, password)
	if err != nil {
		return err
	}

	r.api.SetToken(r.platform.Token())

	configPath := cmd.String("config")
	r.config.Target.Token = r.platform.Token()
	if err := shared.SaveConfig(configPath, r.config); err != nil {
		r.logger.Warn("failed to persist token to config", "error", err)
	} else {
		r.logger.Info("token saved", "path", configPath)
	}

	r.writePlain("✓ Logged in as %s\n", musician.Name)
	r.writePlain("Slug: %s\n", musician.Slug)
	if musician.ProAccess {
		r.writePlain("Tier: pro\n")
	} else {
		r.writePlain("Tier: free\n")
	}
	return nil
}

// AuthStatus checks backend health and the current session state.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("checking auth status")

	health, err := r.platform.Health(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	r.writePlain("✓ Backend is reachable\n")
	r.writePlain("Status: %s\n", health.Status)
	if health.Version != "" {
		r.writePlain("Version: %s\n", health.Version)
	}

	if r.platform.Token() == "" {
		r.writePlain("Session: ✗ Not authenticated\n")
		return nil
	}

	musician, err := r.platform.Me(ctx)
	if err != nil {
		r.writePlain("Session: ✗ Token rejected (%v)\n", err)
		return nil
	}

	r.writePlain("Session: ✓ Authenticated as %s (%s)\n", musician.Name, musician.Slug)
	return nil
}

// AuthSpotify performs the OAuth2 authentication flow for Spotify.
//
// Starts a local HTTP server, opens the browser for user authorization, and
// exchanges the auth code for tokens.
func (r *Runner) AuthSpotify(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config := r.config
	if config == nil {
		var err error
		if _, statErr := os.Stat(configPath); statErr == nil {
			config, err = shared.LoadConfig(configPath)
			if err != nil {
				r.logger.Warnf("failed to load config, using defaults %v", err)
				config = shared.DefaultConfig()
			}
		} else {
			config = shared.DefaultConfig()
		}
	}

	if config.Credentials.Spotify.ClientID == "" || config.Credentials.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in config.toml", shared.ErrInvalidArgument)
	}

	spotifyService, err := services.NewSpotifyService(config.Credentials.Spotify.Map())
	if err != nil {
		return fmt.Errorf("failed to create Spotify service: %w", err)
	}

	spotifyService.SetTokenRefreshCallback(func(token *oauth2.Token) {
		if err := config.Credentials.Spotify.Update(token); err != nil {
			r.logger.Warn("failed to update spotify credentials", "error", err)
			return
		}
		if err := shared.SaveConfig(configPath, config); err != nil {
			r.logger.Warn("failed to persist refreshed spotify token", "error", err)
		}
	})

	token, err := r.doOAuth(config, spotifyService)
	if err != nil {
		return err
	}

	if err := config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}

	if err := shared.SaveConfig(configPath, config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	spotifyService.SetToken(ctx, token)
	r.spotify = spotifyService

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n\n", configPath)
	r.writePlain("The spotify-sync suite will now verify imported playlists against their source.\n")

	return nil
}

// doOAuth runs the authorization code flow through a local callback server.
func (r *Runner) doOAuth(config *shared.Config, spotifyService *services.SpotifyService) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := spotifyService.GetAuthURL(state)
	oauthHandler := server.NewOAuthHandler(spotifyService.GetOAuthConfig(), state)
	router := server.NewBasicRouter()
	router.Use(server.LoggingMiddleware(r.logger))
	router.Handler(oauthHandler)

	serverAddr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("no token received")
	}

	return result.Token, nil
}
