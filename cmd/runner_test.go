package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/requestwave/soundcheck/internal/checks"
	"github.com/requestwave/soundcheck/internal/services"
	"github.com/requestwave/soundcheck/internal/shared"
	testutils "github.com/requestwave/soundcheck/internal/testing"
)

func testSuite(name string, pass bool) checks.Suite {
	return checks.Suite{
		Name:        name,
		Description: "test suite",
		Checks: []checks.Check{
			{Name: name + " check", Fn: func(ctx context.Context, env *checks.Env, rec *checks.Recorder) error {
				rec.Record(name, name+" check", pass, "", nil)
				return nil
			}},
		},
	}
}

func testRunner(t *testing.T, output *bytes.Buffer, suites ...checks.Suite) *Runner {
	t.Helper()

	return NewRunner(RunnerOpts{
		Platform: services.NewPlatformService(services.PlatformOpts{BaseURL: "http://localhost:8001"}),
		Output:   output,
		Suites:   suites,
	})
}

func TestNewRunner(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})

		if runner.config == nil {
			t.Error("config should default")
		}
		if runner.logger == nil {
			t.Error("logger should default")
		}
		if runner.output == nil {
			t.Error("output should default")
		}
		if len(runner.engine.Suites()) != len(checks.DefaultSuites()) {
			t.Errorf("expected default suites, got %d", len(runner.engine.Suites()))
		}
	})

	t.Run("keeps provided suites", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Suites: []checks.Suite{testSuite("only", true)}})

		suites := runner.engine.Suites()
		if len(suites) != 1 || suites[0].Name != "only" {
			t.Errorf("unexpected suites: %v", suites)
		}
	})
}

func TestWriteJSON(t *testing.T) {
	data := map[string]string{"key": "value"}

	t.Run("compact", func(t *testing.T) {
		var buf bytes.Buffer
		runner := testRunner(t, &buf)

		if err := runner.writeJSON(data, false); err != nil {
			t.Fatalf("failed to write: %v", err)
		}
		if buf.String() != `{"key":"value"}`+"\n" {
			t.Errorf("unexpected output: %q", buf.String())
		}
	})

	t.Run("pretty", func(t *testing.T) {
		var buf bytes.Buffer
		runner := testRunner(t, &buf)

		if err := runner.writeJSON(data, true); err != nil {
			t.Fatalf("failed to write: %v", err)
		}
		if !strings.Contains(buf.String(), "  \"key\": \"value\"") {
			t.Errorf("output should be indented: %q", buf.String())
		}
	})

	t.Run("unmarshalable data fails", func(t *testing.T) {
		runner := testRunner(t, &bytes.Buffer{})

		if err := runner.writeJSON(make(chan int), false); err == nil {
			t.Error("expected marshal error")
		}
	})

	t.Run("failing writer surfaces the error", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &testutils.FWriter{}})

		if err := runner.writeJSON(data, false); err == nil {
			t.Error("expected write error")
		}
	})

	t.Run("write limit hit on trailing newline", func(t *testing.T) {
		var buf bytes.Buffer
		limited := testutils.NewLimitedWriter(1, 0, &buf)
		runner := NewRunner(RunnerOpts{Output: &limited})

		if err := runner.writeJSON(data, false); err == nil {
			t.Error("expected error when the newline write fails")
		}
	})
}

func TestWritePlain(t *testing.T) {
	t.Run("writePlain formats in place", func(t *testing.T) {
		var buf bytes.Buffer
		runner := testRunner(t, &buf)

		runner.writePlain("count: %d\n", 3)
		if buf.String() != "count: 3\n" {
			t.Errorf("unexpected output: %q", buf.String())
		}
	})

	t.Run("writePlainln pads with blank line", func(t *testing.T) {
		var buf bytes.Buffer
		runner := testRunner(t, &buf)

		runner.writePlainln("done")
		if buf.String() != "\ndone\n" {
			t.Errorf("unexpected output: %q", buf.String())
		}
	})

	t.Run("writePlainHeader frames the title", func(t *testing.T) {
		var buf bytes.Buffer
		runner := testRunner(t, &buf)

		runner.writePlainHeader("soundcheck")
		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected 3 lines, got %d", len(lines))
		}
		if lines[1] != "soundcheck" {
			t.Errorf("unexpected title line: %q", lines[1])
		}
		if !strings.HasPrefix(lines[0], "═") || lines[0] != lines[2] {
			t.Error("title should be framed by matching rules")
		}
	})
}

func TestCheckList(t *testing.T) {
	var buf bytes.Buffer
	runner := testRunner(t, &buf, testSuite("auth", true), testSuite("catalog", true))

	if err := runner.CheckList(context.Background(), nil); err != nil {
		t.Fatalf("list failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"auth", "catalog", "auth check", "catalog check"} {
		if !strings.Contains(out, want) {
			t.Errorf("listing missing %q:\n%s", want, out)
		}
	}
}

func TestCheckRunCommand(t *testing.T) {
	t.Run("passing run", func(t *testing.T) {
		var buf bytes.Buffer
		runner := testRunner(t, &buf, testSuite("demo", true))
		cmd := checkCommand(runner)

		if err := cmd.Run(context.Background(), []string{"check", "run"}); err != nil {
			t.Fatalf("run failed: %v", err)
		}

		out := buf.String()
		if !strings.Contains(out, "all 1 checks passed") {
			t.Errorf("verdict missing:\n%s", out)
		}
		if !strings.Contains(out, "Run ID: ") {
			t.Errorf("run ID missing:\n%s", out)
		}
	})

	t.Run("failing run returns check failure", func(t *testing.T) {
		var buf bytes.Buffer
		runner := testRunner(t, &buf, testSuite("demo", false))
		cmd := checkCommand(runner)

		err := cmd.Run(context.Background(), []string{"check", "run"})
		if !errors.Is(err, shared.ErrCheckFailed) {
			t.Errorf("expected ErrCheckFailed, got %v", err)
		}
	})

	t.Run("suite selection by argument", func(t *testing.T) {
		var buf bytes.Buffer
		runner := testRunner(t, &buf, testSuite("good", true), testSuite("bad", false))
		cmd := checkCommand(runner)

		if err := cmd.Run(context.Background(), []string{"check", "run", "good"}); err != nil {
			t.Fatalf("run failed: %v", err)
		}
		if !strings.Contains(buf.String(), "all 1 checks passed") {
			t.Errorf("only the good suite should have run:\n%s", buf.String())
		}
	})

	t.Run("unknown suite errors", func(t *testing.T) {
		var buf bytes.Buffer
		runner := testRunner(t, &buf, testSuite("demo", true))
		cmd := checkCommand(runner)

		err := cmd.Run(context.Background(), []string{"check", "run", "nope"})
		if !errors.Is(err, shared.ErrUnknownSuite) {
			t.Errorf("expected ErrUnknownSuite, got %v", err)
		}
	})

	t.Run("json output", func(t *testing.T) {
		var buf bytes.Buffer
		runner := testRunner(t, &buf, testSuite("demo", true))
		cmd := checkCommand(runner)

		if err := cmd.Run(context.Background(), []string{"check", "run", "--json"}); err != nil {
			t.Fatalf("run failed: %v", err)
		}

		out := buf.String()
		if !strings.Contains(out, `"run_id"`) || !strings.Contains(out, `"passed": 1`) {
			t.Errorf("expected JSON report:\n%s", out)
		}
	})
}

func TestAuthLoginCommand(t *testing.T) {
	loginBackend := func() *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/auth/login" {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"token": "tok-123", "musician": {"id": "m1", "name": "Test Musician", "slug": "test-musician", "pro_access": false}}`)
		}))
	}

	loginRunner := func(baseURL string, output *bytes.Buffer) *Runner {
		return NewRunner(RunnerOpts{
			Config:   shared.DefaultConfig(),
			Platform: services.NewPlatformService(services.PlatformOpts{BaseURL: baseURL}),
			API:      services.NewAPIService(baseURL, nil),
			Output:   output,
			Logger:   shared.NewLogger(io.Discard),
		})
	}

	t.Run("persists the session token to config", func(t *testing.T) {
		server := loginBackend()
		defer server.Close()

		configPath := filepath.Join(t.TempDir(), "config.toml")

		var buf bytes.Buffer
		runner := loginRunner(server.URL, &buf)

		err := authCommand(runner).Run(context.Background(),
			[]string{"auth", "login", "--email", "tester@example.com", "--password", "pw", "--config", configPath})
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}

		if !strings.Contains(buf.String(), "Logged in as Test Musician") {
			t.Errorf("missing login confirmation:\n%s", buf.String())
		}

		saved, err := shared.LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}
		if saved.Target.Token != "tok-123" {
			t.Errorf("token not persisted: %q", saved.Target.Token)
		}
	})

	t.Run("flags override configured credentials", func(t *testing.T) {
		var gotEmail string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
				gotEmail = body["email"]
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"token": "tok-123", "musician": {"id": "m1", "name": "Test Musician", "slug": "test-musician"}}`)
		}))
		defer server.Close()

		var buf bytes.Buffer
		runner := loginRunner(server.URL, &buf)
		runner.config.Target.Email = "configured@example.com"
		runner.config.Target.Password = "configured-pw"

		configPath := filepath.Join(t.TempDir(), "config.toml")
		err := authCommand(runner).Run(context.Background(),
			[]string{"auth", "login", "--email", "override@example.com", "--config", configPath})
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
		if gotEmail != "override@example.com" {
			t.Errorf("flag should override configured email, sent %q", gotEmail)
		}
	})

	t.Run("missing credentials fail before any request", func(t *testing.T) {
		var buf bytes.Buffer
		runner := loginRunner("http://localhost:1", &buf)

		err := authCommand(runner).Run(context.Background(), []string{"auth", "login"})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})
}
