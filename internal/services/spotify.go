// Spotify Web API endpoints read by the dashboard.
//
// Response types live in the models package, based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"fmt"
	"net/url"

	"github.com/desertthunder/gaelon/internal/models"
	"github.com/desertthunder/gaelon/internal/shared"
)

// TimeRange is the affinity window of the top items endpoints.
type TimeRange string

const (
	ShortTerm  TimeRange = "short_term"  // ~4 weeks
	MediumTerm TimeRange = "medium_term" // ~6 months
	LongTerm   TimeRange = "long_term"   // ~1 year
)

// TimeRanges lists every valid [TimeRange] from shortest to longest.
var TimeRanges = []TimeRange{ShortTerm, MediumTerm, LongTerm}

// ParseTimeRange accepts "short_term", "medium_term", "long_term" or the short forms "short", "medium", "long".
func ParseTimeRange(s string) (TimeRange, error) {
	switch s {
	case "short_term", "short":
		return ShortTerm, nil
	case "medium_term", "medium", "":
		return MediumTerm, nil
	case "long_term", "long":
		return LongTerm, nil
	}
	return "", fmt.Errorf("%w: time range %q (want short_term, medium_term or long_term)", shared.ErrInvalidArgument, s)
}

// Label is the human readable window.
func (r TimeRange) Label() string {
	switch r {
	case ShortTerm:
		return "Last 4 weeks"
	case LongTerm:
		return "All time"
	default:
		return "Last 6 months"
	}
}

// Start paths of the paginated panels, at Spotify's maximum page size.
const (
	PlaylistsPath      = "/me/playlists?limit=50"
	RecentlyPlayedPath = "/me/player/recently-played?limit=50"
)

// CurrentUser retrieves the authenticated user's profile.
func (c *Client) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	if err := c.Get(ctx, "/me", token, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// TopTracks retrieves one page of the user's top tracks. An empty r uses Spotify's default window.
func (c *Client) TopTracks(ctx context.Context, token string, r TimeRange, limit int) ([]models.Track, error) {
	var page models.Page[models.Track]
	if err := c.Get(ctx, topPath("tracks", r, limit), token, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// TopArtists retrieves one page of the user's top artists.
func (c *Client) TopArtists(ctx context.Context, token string, r TimeRange, limit int) ([]models.Artist, error) {
	var page models.Page[models.Artist]
	if err := c.Get(ctx, topPath("artists", r, limit), token, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// UserPlaylists retrieves a single page of the user's playlists.
func (c *Client) UserPlaylists(ctx context.Context, token string, limit int) ([]models.Playlist, error) {
	var page models.Page[models.Playlist]
	if err := c.Get(ctx, fmt.Sprintf("/me/playlists?limit=%d", clampLimit(limit)), token, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// PlaylistPager walks every playlist owned or followed by the user.
func (c *Client) PlaylistPager(token string) *Pager[models.Playlist] {
	return NewPager[models.Playlist](c, PlaylistsPath, token)
}

// RecentlyPlayedPager walks the play history, most recent first.
func (c *Client) RecentlyPlayedPager(token string) *Pager[models.PlayHistory] {
	return NewPager[models.PlayHistory](c, RecentlyPlayedPath, token)
}

// Recommendations resolves a path built by the recommend package.
func (c *Client) Recommendations(ctx context.Context, path, token string) (*models.Recommendations, error) {
	parsed, err := url.Parse(path)
	if err != nil || parsed.Path != "/recommendations" {
		return nil, fmt.Errorf("%w: %q is not a recommendations query", ErrInvalidPath, path)
	}

	var recs models.Recommendations
	if err := c.Get(ctx, path, token, &recs); err != nil {
		return nil, err
	}
	return &recs, nil
}

func topPath(kind string, r TimeRange, limit int) string {
	path := fmt.Sprintf("/me/top/%s?limit=%d", kind, clampLimit(limit))
	if r != "" {
		path += "&time_range=" + string(r)
	}
	return path
}

// clampLimit keeps page sizes inside Spotify's 1..50 window.
func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 50 {
		return 50
	}
	return limit
}
