package auth

import (
	"errors"
	"net/url"
	"testing"

	"github.com/desertthunder/gaelon/internal/shared"
)

func TestAuthURL(t *testing.T) {
	cfg := shared.SpotifyConfig{
		ClientID:    "test_client_id",
		RedirectURI: "http://127.0.0.1:3000/callback",
		Scopes:      []string{"user-top-read", "user-read-recently-played"},
	}

	t.Run("encodes implicit grant parameters", func(t *testing.T) {
		raw, err := AuthURL(cfg, "test_state")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		u, err := url.Parse(raw)
		if err != nil {
			t.Fatalf("failed to parse auth URL: %v", err)
		}

		if u.Scheme+"://"+u.Host+u.Path != "https://accounts.spotify.com/authorize" {
			t.Errorf("unexpected endpoint %s", raw)
		}

		q := u.Query()
		want := map[string]string{
			"client_id":     "test_client_id",
			"redirect_uri":  "http://127.0.0.1:3000/callback",
			"response_type": "token",
			"scope":         "user-top-read user-read-recently-played",
			"state":         "test_state",
		}
		for k, v := range want {
			if got := q.Get(k); got != v {
				t.Errorf("%s: got %q, want %q", k, got, v)
			}
		}
	})

	t.Run("is a pure function of configuration", func(t *testing.T) {
		a, _ := AuthURL(cfg, "s")
		b, _ := AuthURL(cfg, "s")
		if a != b {
			t.Errorf("expected identical URLs, got %s and %s", a, b)
		}
	})

	t.Run("falls back to default scopes", func(t *testing.T) {
		noScopes := cfg
		noScopes.Scopes = nil

		raw, err := AuthURL(noScopes, "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		u, _ := url.Parse(raw)
		if u.Query().Get("scope") != "user-read-private user-read-email user-top-read user-read-recently-played playlist-read-private playlist-read-collaborative" {
			t.Errorf("unexpected default scope %q", u.Query().Get("scope"))
		}
		if u.Query().Has("state") {
			t.Error("expected empty state to be omitted")
		}
	})

	t.Run("missing client id", func(t *testing.T) {
		bad := cfg
		bad.ClientID = ""
		if _, err := AuthURL(bad, "s"); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("missing redirect uri", func(t *testing.T) {
		bad := cfg
		bad.RedirectURI = ""
		if _, err := AuthURL(bad, "s"); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
