package checks

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/requestwave/soundcheck/internal/services"
)

// AuthSuite verifies login, credential rejection, and endpoint protection.
func AuthSuite() Suite {
	return Suite{
		Name:        "auth",
		Description: "Login, token issuance, and endpoint protection",
		Checks: []Check{
			{Name: "login issues a session token", Fn: checkLogin},
			{Name: "wrong password is rejected", Fn: checkWrongPassword},
			{Name: "request log requires a session", Fn: checkProtectedEndpoint},
		},
	}
}

// checkLogin authenticates the main platform client. Later suites depend on
// the session this establishes, so a failure here cascades.
func checkLogin(ctx context.Context, env *Env, rec *Recorder) error {
	target := env.Config.Target

	if env.Platform.Token() != "" && target.Password == "" {
		// Session seeded from config or a parsed cURL command.
		musician, err := env.Platform.Me(ctx)
		if err != nil {
			rec.Record("auth", "login issues a session token", false,
				fmt.Sprintf("seeded token rejected: %v", err), nil)
			return nil
		}
		rec.Record("auth", "login issues a session token", true, "existing session valid",
			map[string]any{"musician_id": musician.ID, "slug": musician.Slug})
		return nil
	}

	musician, err := env.Platform.Login(ctx, target.Email, target.Password)
	if err != nil {
		rec.Record("auth", "login issues a session token", false, err.Error(), nil)
		return nil
	}

	if musician.ID == "" || musician.Slug == "" {
		rec.Record("auth", "login issues a session token", false,
			"login response missing musician identity",
			map[string]any{"musician_id": musician.ID, "slug": musician.Slug})
		return nil
	}

	rec.Record("auth", "login issues a session token", true, "",
		map[string]any{"musician_id": musician.ID, "slug": musician.Slug})
	return nil
}

// checkWrongPassword uses a fresh client so the main session is untouched.
func checkWrongPassword(ctx context.Context, env *Env, rec *Recorder) error {
	target := env.Config.Target
	if target.Email == "" || target.Password == "" {
		rec.Record("auth", "wrong password is rejected", true,
			"skipped: no password credentials configured", nil)
		return nil
	}

	client := services.NewPlatformService(services.PlatformOpts{
		BaseURL:   target.BaseURL,
		RateLimit: target.RateLimit,
	})

	_, err := client.Login(ctx, target.Email, target.Password+"-wrong")
	if err == nil {
		rec.Record("auth", "wrong password is rejected", false,
			"backend accepted an invalid password", nil)
		return nil
	}

	var statusErr *services.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized {
		rec.Record("auth", "wrong password is rejected", true, "",
			map[string]any{"status": statusErr.StatusCode})
		return nil
	}

	rec.Record("auth", "wrong password is rejected", false,
		fmt.Sprintf("expected 401, got: %v", err), nil)
	return nil
}

// checkProtectedEndpoint verifies the request log rejects sessionless calls.
func checkProtectedEndpoint(ctx context.Context, env *Env, rec *Recorder) error {
	client := services.NewPlatformService(services.PlatformOpts{
		BaseURL:   env.Config.Target.BaseURL,
		RateLimit: env.Config.Target.RateLimit,
	})

	_, err := client.Requests(ctx)
	if err == nil {
		rec.Record("auth", "request log requires a session", false,
			"request log served without authentication", nil)
		return nil
	}

	var statusErr *services.StatusError
	if errors.As(err, &statusErr) &&
		(statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden) {
		rec.Record("auth", "request log requires a session", true, "",
			map[string]any{"status": statusErr.StatusCode})
		return nil
	}

	rec.Record("auth", "request log requires a session", false,
		fmt.Sprintf("expected 401/403, got: %v", err), nil)
	return nil
}
