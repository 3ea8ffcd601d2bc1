package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPlatformService(t *testing.T) {
	t.Run("Login", func(t *testing.T) {
		t.Run("stores token and identity", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/auth/login" || r.Method != http.MethodPost {
					t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
				}

				var body map[string]string
				json.NewDecoder(r.Body).Decode(&body)
				if body["email"] != "m@example.com" {
					t.Errorf("unexpected email: %s", body["email"])
				}

				json.NewEncoder(w).Encode(map[string]any{
					"token": "session-token",
					"musician": map[string]any{
						"id":    "m1",
						"name":  "Test Musician",
						"slug":  "test-musician",
						"email": "m@example.com",
					},
				})
			}))
			defer server.Close()

			svc := NewPlatformService(PlatformOpts{BaseURL: server.URL})

			musician, err := svc.Login(context.Background(), "m@example.com", "pw")
			if err != nil {
				t.Fatalf("login failed: %v", err)
			}

			if svc.Token() != "session-token" {
				t.Errorf("token not stored: %q", svc.Token())
			}
			if svc.MusicianSlug() != "test-musician" {
				t.Errorf("slug not stored: %q", svc.MusicianSlug())
			}
			if svc.MusicianEmail() != "m@example.com" {
				t.Errorf("email not stored: %q", svc.MusicianEmail())
			}
			if musician.ID != "m1" {
				t.Errorf("unexpected musician: %+v", musician)
			}
		})

		t.Run("missing token in response fails", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{"musician": map[string]any{"id": "m1"}})
			}))
			defer server.Close()

			svc := NewPlatformService(PlatformOpts{BaseURL: server.URL})
			if _, err := svc.Login(context.Background(), "m@example.com", "pw"); err == nil {
				t.Error("expected error for missing token")
			}
		})

		t.Run("missing credentials fail without a request", func(t *testing.T) {
			svc := NewPlatformService(PlatformOpts{BaseURL: "http://unreachable.invalid"})
			if _, err := svc.Login(context.Background(), "", ""); err == nil {
				t.Error("expected error for empty credentials")
			}
		})

		t.Run("wrong password surfaces StatusError", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"detail": "invalid credentials"})
			}))
			defer server.Close()

			svc := NewPlatformService(PlatformOpts{BaseURL: server.URL})
			_, err := svc.Login(context.Background(), "m@example.com", "wrong")
			if err == nil {
				t.Fatal("expected error")
			}

			var statusErr *StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("expected StatusError in chain, got %v", err)
			}
			if statusErr.StatusCode != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", statusErr.StatusCode)
			}
			if statusErr.Detail != "invalid credentials" {
				t.Errorf("expected decoded detail, got %q", statusErr.Detail)
			}
		})
	})

	t.Run("bearer header", func(t *testing.T) {
		t.Run("sent when session active", func(t *testing.T) {
			var gotAuth string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				json.NewEncoder(w).Encode([]Song{})
			}))
			defer server.Close()

			svc := NewPlatformService(PlatformOpts{BaseURL: server.URL})
			svc.SetToken("tok123")

			if _, err := svc.Songs(context.Background()); err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if gotAuth != "Bearer tok123" {
				t.Errorf("expected bearer header, got %q", gotAuth)
			}
		})

		t.Run("omitted without session", func(t *testing.T) {
			var gotAuth string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				json.NewEncoder(w).Encode(Health{Status: "ok"})
			}))
			defer server.Close()

			svc := NewPlatformService(PlatformOpts{BaseURL: server.URL})

			if _, err := svc.Health(context.Background()); err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if gotAuth != "" {
				t.Errorf("expected no auth header, got %q", gotAuth)
			}
		})
	})

	t.Run("Me requires session", func(t *testing.T) {
		svc := NewPlatformService(PlatformOpts{BaseURL: "http://unreachable.invalid"})
		if _, err := svc.Me(context.Background()); err == nil {
			t.Error("expected error without session")
		}
	})

	t.Run("AnalyticsDaily", func(t *testing.T) {
		t.Run("passes days parameter", func(t *testing.T) {
			var gotQuery string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotQuery = r.URL.RawQuery
				json.NewEncoder(w).Encode(AnalyticsSummary{TotalRequests: 3})
			}))
			defer server.Close()

			svc := NewPlatformService(PlatformOpts{BaseURL: server.URL})
			summary, err := svc.AnalyticsDaily(context.Background(), 30)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}

			if gotQuery != "days=30" {
				t.Errorf("expected days=30, got %q", gotQuery)
			}
			if summary.TotalRequests != 3 {
				t.Errorf("unexpected summary: %+v", summary)
			}
		})

		t.Run("defaults days when non-positive", func(t *testing.T) {
			var gotQuery string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotQuery = r.URL.RawQuery
				json.NewEncoder(w).Encode(AnalyticsSummary{})
			}))
			defer server.Close()

			svc := NewPlatformService(PlatformOpts{BaseURL: server.URL})
			if _, err := svc.AnalyticsDaily(context.Background(), 0); err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if gotQuery != "days=7" {
				t.Errorf("expected default days=7, got %q", gotQuery)
			}
		})
	})

	t.Run("PostWebhook", func(t *testing.T) {
		t.Run("sets signature header when provided", func(t *testing.T) {
			var gotSig string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotSig = r.Header.Get("Stripe-Signature")
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			svc := NewPlatformService(PlatformOpts{BaseURL: server.URL})
			if err := svc.PostWebhook(context.Background(), []byte(`{}`), "t=1,v1=sig"); err != nil {
				t.Fatalf("webhook post failed: %v", err)
			}
			if gotSig != "t=1,v1=sig" {
				t.Errorf("expected signature header, got %q", gotSig)
			}
		})

		t.Run("omits signature header when empty", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if _, ok := r.Header["Stripe-Signature"]; ok {
					t.Error("signature header should be absent")
				}
				w.WriteHeader(http.StatusBadRequest)
			}))
			defer server.Close()

			svc := NewPlatformService(PlatformOpts{BaseURL: server.URL})
			err := svc.PostWebhook(context.Background(), []byte(`{}`), "")
			if err == nil {
				t.Fatal("expected error for 400 response")
			}

			var statusErr *StatusError
			if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadRequest {
				t.Errorf("expected StatusError 400, got %v", err)
			}
		})
	})

	t.Run("defaults", func(t *testing.T) {
		svc := NewPlatformService(PlatformOpts{})
		if svc.BaseURL() != defaultPlatformBaseURL {
			t.Errorf("unexpected default base URL: %s", svc.BaseURL())
		}
		if svc.httpClient.Timeout != 15*time.Second {
			t.Errorf("unexpected default timeout: %v", svc.httpClient.Timeout)
		}
	})
}
