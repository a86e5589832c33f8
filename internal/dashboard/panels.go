package dashboard

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/gaelon/internal/models"
	"github.com/desertthunder/gaelon/internal/recommend"
	"github.com/desertthunder/gaelon/internal/services"
	"github.com/desertthunder/gaelon/internal/shared"
	"golang.org/x/sync/errgroup"
)

// Panel names a dashboard tab.
type Panel string

const (
	PanelPlaylists Panel = "playlists"
	PanelDiscovery Panel = "discovery"
	PanelRecent    Panel = "recent"
	PanelStats     Panel = "stats"
	PanelProfile   Panel = "profile"
)

// Panels lists every panel in tab order.
var Panels = []Panel{PanelPlaylists, PanelDiscovery, PanelRecent, PanelStats, PanelProfile}

func (p Panel) Title() string {
	switch p {
	case PanelPlaylists:
		return "Playlists"
	case PanelDiscovery:
		return "Discovery"
	case PanelRecent:
		return "Recently Played"
	case PanelStats:
		return "Stats"
	case PanelProfile:
		return "Profile"
	}
	return string(p)
}

// ParsePanel accepts a panel name as used in CLI flags and URLs.
func ParsePanel(s string) (Panel, error) {
	for _, p := range Panels {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: unknown panel %q", shared.ErrInvalidArgument, s)
}

const (
	seedLimit         = recommend.MaxSeeds
	statsLimit        = 10
	profileArtistsMax = 5
	topAlbumsMax      = 10
)

type PlaylistsPanel struct {
	Playlists []models.Playlist `json:"playlists"`
}

type DiscoveryPanel struct {
	Mood   recommend.Mood `json:"mood"`
	Seeds  []string       `json:"seeds"`
	Path   string         `json:"path,omitempty"`
	Tracks []models.Track `json:"tracks"`
}

type RecentPanel struct {
	Items []models.PlayHistory `json:"items"`
}

type StatsPanel struct {
	Range      services.TimeRange  `json:"time_range"`
	TopTracks  []models.Track      `json:"top_tracks"`
	TopArtists []models.Artist     `json:"top_artists"`
	TopAlbums  []models.AlbumCount `json:"top_albums"`
	Playlists  []models.Playlist   `json:"playlists"`
}

type ProfilePanel struct {
	User       models.User     `json:"user"`
	TopArtists []models.Artist `json:"top_artists"`
}

// Dashboard fetches panel data through a [services.Client].
type Dashboard struct {
	client *services.Client
	logger *log.Logger
}

func New(client *services.Client, logger *log.Logger) *Dashboard {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Dashboard{client: client, logger: logger}
}

// Playlists collects every playlist page. On error the panel holds the pages fetched so far.
func (d *Dashboard) Playlists(ctx context.Context, token string) (*PlaylistsPanel, error) {
	pager := d.client.PlaylistPager(token)

	panel := &PlaylistsPanel{}
	for item, err := range pager.All(ctx) {
		if err != nil {
			return panel, fmt.Errorf("failed to load playlists: %w", err)
		}
		panel.Playlists = append(panel.Playlists, item)
	}
	return panel, nil
}

// Discovery seeds a recommendation query for mood with the user's top tracks.
//
// A user without top tracks gets an empty panel and no recommendation request.
func (d *Dashboard) Discovery(ctx context.Context, token string, mood recommend.Mood) (*DiscoveryPanel, error) {
	panel := &DiscoveryPanel{Mood: mood}

	top, err := d.client.TopTracks(ctx, token, "", seedLimit)
	if err != nil {
		return panel, fmt.Errorf("failed to load seed tracks: %w", err)
	}

	for _, t := range top {
		if t.ID != "" {
			panel.Seeds = append(panel.Seeds, t.ID)
		}
	}
	if len(panel.Seeds) == 0 {
		d.logger.Debug("no top tracks to seed recommendations")
		return panel, nil
	}

	panel.Path, err = recommend.Build(mood, panel.Seeds)
	if err != nil {
		return panel, err
	}

	recs, err := d.client.Recommendations(ctx, panel.Path, token)
	if err != nil {
		return panel, fmt.Errorf("failed to load recommendations: %w", err)
	}
	panel.Tracks = recs.Tracks
	return panel, nil
}

// RecentlyPlayed collects the play history in the order Spotify returns it.
// On error the panel holds the pages fetched so far.
func (d *Dashboard) RecentlyPlayed(ctx context.Context, token string) (*RecentPanel, error) {
	pager := d.client.RecentlyPlayedPager(token)

	panel := &RecentPanel{}
	for item, err := range pager.All(ctx) {
		if err != nil {
			return panel, fmt.Errorf("failed to load recently played: %w", err)
		}
		panel.Items = append(panel.Items, item)
	}
	return panel, nil
}

// Stats loads top items for r and derives the top albums from the top tracks.
func (d *Dashboard) Stats(ctx context.Context, token string, r services.TimeRange) (*StatsPanel, error) {
	if r == "" {
		r = services.MediumTerm
	}
	panel := &StatsPanel{Range: r}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tracks, err := d.client.TopTracks(gctx, token, r, statsLimit)
		if err != nil {
			return fmt.Errorf("top tracks: %w", err)
		}
		panel.TopTracks = tracks
		panel.TopAlbums = TopAlbums(tracks, topAlbumsMax)
		return nil
	})
	g.Go(func() error {
		artists, err := d.client.TopArtists(gctx, token, r, statsLimit)
		if err != nil {
			return fmt.Errorf("top artists: %w", err)
		}
		panel.TopArtists = artists
		return nil
	})
	g.Go(func() error {
		playlists, err := d.client.UserPlaylists(gctx, token, statsLimit)
		if err != nil {
			return fmt.Errorf("playlists: %w", err)
		}
		panel.Playlists = playlists
		return nil
	})

	if err := g.Wait(); err != nil {
		return panel, fmt.Errorf("failed to load stats: %w", err)
	}
	return panel, nil
}

// Profile loads the account and its top artists.
func (d *Dashboard) Profile(ctx context.Context, token string) (*ProfilePanel, error) {
	user, err := d.client.CurrentUser(ctx, token)
	if err != nil {
		return &ProfilePanel{}, fmt.Errorf("failed to load profile: %w", err)
	}

	panel := &ProfilePanel{User: *user}
	artists, err := d.client.TopArtists(ctx, token, "", profileArtistsMax)
	if err != nil {
		return panel, fmt.Errorf("failed to load top artists: %w", err)
	}
	panel.TopArtists = artists
	return panel, nil
}

// TopAlbums counts how many of tracks belong to each album and returns at most
// limit albums, most frequent first. Ties keep first-appearance order.
func TopAlbums(tracks []models.Track, limit int) []models.AlbumCount {
	index := make(map[string]int)
	var counts []models.AlbumCount

	for _, t := range tracks {
		key := t.Album.ID
		if key == "" {
			key = t.Album.Name
		}
		if key == "" {
			continue
		}

		if i, ok := index[key]; ok {
			counts[i].Count++
			continue
		}
		index[key] = len(counts)
		counts = append(counts, models.AlbumCount{Album: t.Album, Count: 1})
	}

	slices.SortStableFunc(counts, func(a, b models.AlbumCount) int {
		return cmp.Compare(b.Count, a.Count)
	})

	if limit > 0 && len(counts) > limit {
		counts = counts[:limit]
	}
	return counts
}
