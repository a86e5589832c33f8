package auth

import (
	"fmt"

	"github.com/desertthunder/gaelon/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// DefaultScopes covers every endpoint the dashboard reads.
var DefaultScopes = []string{
	"user-read-private",
	"user-read-email",
	"user-top-read",
	"user-read-recently-played",
	"playlist-read-private",
	"playlist-read-collaborative",
}

// OAuthConfig maps the static client configuration onto an [oauth2.Config].
//
// The token endpoint is set for completeness; the implicit grant never calls it.
func OAuthConfig(cfg shared.SpotifyConfig) *oauth2.Config {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	return &oauth2.Config{
		ClientID:    cfg.ClientID,
		RedirectURL: cfg.RedirectURI,
		Scopes:      scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}
}

// AuthURL returns the implicit-grant authorize URL for cfg.
//
// state is echoed back by Spotify in the fragment; an empty state is omitted.
func AuthURL(cfg shared.SpotifyConfig, state string) (string, error) {
	if cfg.ClientID == "" {
		return "", fmt.Errorf("%w: client_id is required", shared.ErrMissingCredentials)
	}
	if cfg.RedirectURI == "" {
		return "", fmt.Errorf("%w: redirect_uri is required", shared.ErrInvalidConfig)
	}

	opts := []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("response_type", "token")}
	return OAuthConfig(cfg).AuthCodeURL(state, opts...), nil
}
