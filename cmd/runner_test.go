package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/gaelon/internal/auth"
	"github.com/desertthunder/gaelon/internal/repositories"
	"github.com/desertthunder/gaelon/internal/server"
	"github.com/desertthunder/gaelon/internal/shared"
	tu "github.com/desertthunder/gaelon/internal/testing"
)

func track(id string) map[string]any {
	return map[string]any{
		"id": id, "name": "Track " + id,
		"artists": []map[string]any{{"name": "Artist"}},
		"album":   map[string]any{"id": "al", "name": "Album"},
	}
}

func routes() map[string]tu.Route {
	return map[string]tu.Route{
		"/me": {Body: map[string]any{"id": "u1", "display_name": "Ana", "product": "premium"}},
		"/me/playlists?limit=50": {Body: map[string]any{
			"items": []map[string]any{{"id": "p1", "name": "Road Trip", "owner": map[string]any{"display_name": "Ana"}}},
		}},
		"/me/top/tracks?limit=10&time_range=short_term": {Body: map[string]any{
			"items": []any{track("s1"), track("s2")},
		}},
		"/me/top/artists?limit=10&time_range=short_term": {Body: map[string]any{"items": []any{}}},
		"/me/playlists?limit=10":                         {Body: map[string]any{"items": []any{}}},
	}
}

type fixture struct {
	runner    *Runner
	out       *bytes.Buffer
	persister *auth.MemoryPersister
	stub      *tu.SpotifyStub
}

func newFixture(t *testing.T, token string, routes map[string]tu.Route) *fixture {
	t.Helper()

	stub := tu.NewSpotifyStub(routes)
	api := httptest.NewServer(stub)
	t.Cleanup(api.Close)

	config := shared.DefaultConfig()
	config.API.BaseURL = api.URL + "/v1"
	config.API.RateLimit = 0
	config.Credentials.Spotify.ClientID = "client-123"

	persister := auth.NewMemoryPersister()
	if token != "" {
		persister.Set(context.Background(), auth.TokenKey, token)
	}

	out := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:    config,
		Persister: persister,
		Logger:    shared.NewLogger(io.Discard),
		Output:    out,
	})
	return &fixture{runner: runner, out: out, persister: persister, stub: stub}
}

func (f *fixture) run(args ...string) error {
	return newApp(f.runner).Run(context.Background(), append([]string{"gaelon"}, args...))
}

func freeAddr(t *testing.T) (string, int) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find a free port: %v", err)
	}
	defer l.Close()
	return "127.0.0.1", l.Addr().(*net.TCPAddr).Port
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.configPath != "config.toml" {
				t.Errorf("expected default config path, got %s", runner.configPath)
			}
			if runner.session != nil {
				t.Error("session should wait for Init without config")
			}
		})

		t.Run("with config and persister wires the session", func(t *testing.T) {
			httpClient := &http.Client{}
			runner := NewRunner(RunnerOpts{
				Config:     shared.DefaultConfig(),
				Persister:  auth.NewMemoryPersister(),
				HTTPClient: httpClient,
			})

			if runner.session == nil || runner.store == nil || runner.client == nil {
				t.Fatal("expected session, store and client to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be kept")
			}
		})
	})

	t.Run("Init", func(t *testing.T) {
		writeConfig := func(t *testing.T) (string, string) {
			dir := t.TempDir()
			config := shared.DefaultConfig()
			config.Database.Path = filepath.Join(dir, "gaelon.db")
			path := filepath.Join(dir, "config.toml")
			if err := shared.SaveConfig(path, config); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}
			return path, config.Database.Path
		}

		t.Run("opens the token database", func(t *testing.T) {
			path, dbPath := writeConfig(t)
			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: &bytes.Buffer{}})

			if err := newApp(runner).Run(context.Background(), []string{"gaelon", "--config", path, "auth", "logout"}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if _, ok := runner.persister.(*repositories.TokenRepository); !ok {
				t.Errorf("expected a TokenRepository, got %T", runner.persister)
			}
			tu.AssertFileExists(t, dbPath)
			if runner.db != nil {
				t.Error("database should be closed after the command")
			}
		})

		t.Run("ephemeral keeps the token in memory", func(t *testing.T) {
			path, dbPath := writeConfig(t)
			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: &bytes.Buffer{}})

			args := []string{"gaelon", "--config", path, "--ephemeral", "auth", "logout"}
			if err := newApp(runner).Run(context.Background(), args); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if _, ok := runner.persister.(*auth.MemoryPersister); !ok {
				t.Errorf("expected a MemoryPersister, got %T", runner.persister)
			}
			if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
				t.Error("ephemeral run should not create the database")
			}
		})

		t.Run("invalid config", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			os.WriteFile(path, []byte("[api\nbroken"), 0644)
			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: &bytes.Buffer{}})

			if err := newApp(runner).Run(context.Background(), []string{"gaelon", "--config", path, "auth", "logout"}); err == nil {
				t.Error("expected a config parse error")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if result := output.String(); result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}
		for _, want := range []string{
			"setup", "auth", "playlists", "discover", "recent", "stats", "profile", "api", "export", "serve", "tui",
		} {
			if !names[want] {
				t.Errorf("expected %q to be registered", want)
			}
		}
	})
}

func TestPanelCommands(t *testing.T) {
	t.Run("playlists as text", func(t *testing.T) {
		f := newFixture(t, "tok", routes())

		if err := f.run("playlists"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		out := f.out.String()
		for _, want := range []string{"Playlists", "Road Trip", "Ana"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}
		if got := f.stub.LastAuthorization(); got != "Bearer tok" {
			t.Errorf("unexpected authorization %q", got)
		}
	})

	t.Run("stats as JSON", func(t *testing.T) {
		f := newFixture(t, "tok", routes())

		if err := f.run("stats", "--range", "short", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if out := f.out.String(); !strings.Contains(out, `"time_range":"short_term"`) {
			t.Errorf("expected compact JSON with time range, got %s", out)
		}
	})

	t.Run("bad flags do not reach Spotify", func(t *testing.T) {
		f := newFixture(t, "tok", routes())

		if err := f.run("stats", "--range", "decade"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if err := f.run("discover", "--mood", "angry"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
		if n := len(f.stub.Requests()); n != 0 {
			t.Errorf("expected no requests, got %d", n)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		f := newFixture(t, "", routes())

		if err := f.run("profile"); !errors.Is(err, auth.ErrAuthMissing) {
			t.Errorf("expected ErrAuthMissing, got %v", err)
		}
	})

	t.Run("rejected token is cleared", func(t *testing.T) {
		r := routes()
		r["/me"] = tu.Route{Status: http.StatusUnauthorized, Body: tu.ErrorBody(401, "The access token expired")}
		f := newFixture(t, "stale", r)

		if err := f.run("profile"); !errors.Is(err, shared.ErrSessionExpired) {
			t.Errorf("expected ErrSessionExpired, got %v", err)
		}
		if _, ok, _ := f.persister.Get(context.Background(), auth.TokenKey); ok {
			t.Error("token should be cleared")
		}
	})
}

func TestAPIGet(t *testing.T) {
	t.Run("prints the body", func(t *testing.T) {
		f := newFixture(t, "tok", routes())

		if err := f.run("api", "get", "--pretty=false", "/me"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if out := f.out.String(); out != `{"display_name":"Ana","id":"u1","product":"premium"}`+"\n" {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("field selects a value", func(t *testing.T) {
		f := newFixture(t, "tok", routes())

		if err := f.run("api", "get", "--field", "display_name", "me"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if out := f.out.String(); out != "Ana\n" {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("field over an array", func(t *testing.T) {
		f := newFixture(t, "tok", routes())

		if err := f.run("api", "get", "--pretty=false", "--field", "items.#.name", "/me/playlists?limit=50"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if out := f.out.String(); out != `["Road Trip"]`+"\n" {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("absent field prints nothing", func(t *testing.T) {
		f := newFixture(t, "tok", routes())

		if err := f.run("api", "get", "--field", "email", "/me"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if f.out.Len() != 0 {
			t.Errorf("expected no output, got %q", f.out.String())
		}
	})

	t.Run("missing path", func(t *testing.T) {
		f := newFixture(t, "tok", routes())

		if err := f.run("api", "get"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestAuthCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("status without a token", func(t *testing.T) {
		f := newFixture(t, "", routes())

		if err := f.run("auth", "status"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if out := f.out.String(); !strings.Contains(out, "Not authenticated") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("status with an accepted token", func(t *testing.T) {
		f := newFixture(t, "secret-token", routes())

		if err := f.run("auth", "status"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		out := f.out.String()
		if !strings.Contains(out, "Authenticated as Ana (Premium)") {
			t.Errorf("unexpected output %q", out)
		}
		if strings.Contains(out, "secret-token") {
			t.Error("token should be redacted")
		}
	})

	t.Run("status with a rejected token", func(t *testing.T) {
		r := routes()
		r["/me"] = tu.Route{Status: http.StatusUnauthorized, Body: tu.ErrorBody(401, "Invalid access token")}
		f := newFixture(t, "stale", r)

		if err := f.run("auth", "status"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if out := f.out.String(); !strings.Contains(out, "Session expired") {
			t.Errorf("unexpected output %q", out)
		}
		if _, ok, _ := f.persister.Get(ctx, auth.TokenKey); ok {
			t.Error("token should be cleared")
		}
	})

	t.Run("logout", func(t *testing.T) {
		f := newFixture(t, "tok", routes())

		if err := f.run("auth", "logout"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, ok, _ := f.persister.Get(ctx, auth.TokenKey); ok {
			t.Error("token should be cleared")
		}
	})

	t.Run("url", func(t *testing.T) {
		f := newFixture(t, "", routes())

		if err := f.run("auth", "url"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		u, err := url.Parse(strings.TrimSpace(f.out.String()))
		if err != nil {
			t.Fatalf("invalid URL: %v", err)
		}
		q := u.Query()
		if q.Get("response_type") != "token" || q.Get("client_id") != "client-123" || q.Get("state") == "" {
			t.Errorf("unexpected authorize URL %s", u)
		}
	})

	t.Run("url without client id", func(t *testing.T) {
		f := newFixture(t, "", routes())
		f.runner.config.Credentials.Spotify.ClientID = ""

		if err := f.run("auth", "url"); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("login times out", func(t *testing.T) {
		f := newFixture(t, "old", routes())
		host, port := freeAddr(t)
		f.runner.config.Server.Host, f.runner.config.Server.Port = host, port

		err := f.run("auth", "login", "--no-browser", "--timeout", "200ms")
		if !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
		if _, ok, _ := f.persister.Get(ctx, auth.TokenKey); ok {
			t.Error("login should clear the previous token")
		}
	})

	t.Run("login stores the token from the callback", func(t *testing.T) {
		f := newFixture(t, "", routes())
		host, port := freeAddr(t)
		f.runner.config.Server.Host, f.runner.config.Server.Port = host, port
		f.runner.config.Credentials.Spotify.RedirectURI = fmt.Sprintf("http://%s:%d/callback", host, port)

		posted := make(chan error, 1)
		openBrowser = func(authURL string) error {
			go func() {
				u, _ := url.Parse(authURL)
				fragment := url.Values{
					"access_token": {"NEW"},
					"token_type":   {"Bearer"},
					"expires_in":   {"3600"},
					"state":        {u.Query().Get("state")},
				}
				resp, err := http.PostForm(
					fmt.Sprintf("http://%s:%d%s", host, port, server.TokenPath),
					url.Values{"fragment": {fragment.Encode()}},
				)
				if err == nil {
					resp.Body.Close()
				}
				posted <- err
			}()
			return nil
		}
		t.Cleanup(func() { openBrowser = shared.OpenBrowser })

		if err := f.run("auth", "login", "--timeout", "5s"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := <-posted; err != nil {
			t.Fatalf("callback post failed: %v", err)
		}

		if token, ok, _ := f.persister.Get(ctx, auth.TokenKey); !ok || token != "NEW" {
			t.Errorf("expected stored token NEW, got %q", token)
		}
		if out := f.out.String(); !strings.Contains(out, "Authorization successful") || !strings.Contains(out, time.Hour.String()) {
			t.Errorf("unexpected output %q", out)
		}
	})
}

func TestExportCommand(t *testing.T) {
	t.Run("writes selected panels", func(t *testing.T) {
		f := newFixture(t, "tok", routes())
		dir := filepath.Join(t.TempDir(), "out")

		if err := f.run("export", "--format", "csv", "--output", dir, "--panels", "stats", "--range", "short_term"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, filepath.Join(dir, "stats.csv"))
		tu.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))
		if out := f.out.String(); !strings.Contains(out, "1 succeeded, 0 failed") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("unknown panel", func(t *testing.T) {
		f := newFixture(t, "tok", routes())

		if err := f.run("export", "--panels", "queue"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		f := newFixture(t, "tok", routes())

		if err := f.run("export", "--format", "xml"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("missing token fails before writing", func(t *testing.T) {
		f := newFixture(t, "", routes())
		dir := filepath.Join(t.TempDir(), "out")

		if err := f.run("export", "--output", dir); !errors.Is(err, auth.ErrAuthMissing) {
			t.Errorf("expected ErrAuthMissing, got %v", err)
		}
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Error("output directory should not be created")
		}
	})
}

func TestSetup(t *testing.T) {
	dir := t.TempDir()
	tu.MustChdir(t, dir)

	runner := NewRunner(RunnerOpts{
		Config:     shared.DefaultConfig(),
		ConfigPath: filepath.Join(dir, "config.toml"),
		Persister:  auth.NewMemoryPersister(),
		Logger:     shared.NewLogger(io.Discard),
		Output:     &bytes.Buffer{},
	})

	if err := runner.Setup(context.Background(), nil); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	tu.AssertFileExists(t, filepath.Join(dir, "config.toml"))
	tu.AssertFileExists(t, filepath.Join(dir, "gaelon.db"))
	if out := runner.output.(*bytes.Buffer).String(); !strings.Contains(out, "Next steps") {
		t.Errorf("expected next steps for the placeholder client id, got %q", out)
	}
}
