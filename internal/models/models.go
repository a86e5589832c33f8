package models

import (
	"strings"
	"time"
)

const (
	PlaceholderImage      = "https://via.placeholder.com/150"
	SmallPlaceholderImage = "https://via.placeholder.com/50"
	DefaultDisplayName    = "Spotify User"
	UnknownArtist         = "Unknown Artist"
	ProductPremium        = "premium"
)

// Image is a single artwork entry. Spotify orders images widest first.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height,omitempty"`
	Width  int    `json:"width,omitempty"`
}

// Images is an artwork list with a defaulting accessor.
type Images []Image

// URL returns the i-th image URL or fallback when the list is too short or the entry is blank.
func (im Images) URL(i int, fallback string) string {
	if i < 0 || i >= len(im) || im[i].URL == "" {
		return fallback
	}
	return im[i].URL
}

type ExternalURLs struct {
	Spotify string `json:"spotify,omitempty"`
}

type Followers struct {
	Total int `json:"total"`
}

// User is the current user's profile from /me.
type User struct {
	ID           string       `json:"id"`
	DisplayName  string       `json:"display_name,omitempty"`
	Email        string       `json:"email,omitempty"`
	Country      string       `json:"country,omitempty"`
	Product      string       `json:"product,omitempty"`
	Images       Images       `json:"images,omitempty"`
	Followers    Followers    `json:"followers"`
	ExternalURLs ExternalURLs `json:"external_urls"`
}

func (u User) Name() string {
	if strings.TrimSpace(u.DisplayName) == "" {
		return DefaultDisplayName
	}
	return u.DisplayName
}

func (u User) ImageURL() string { return u.Images.URL(0, PlaceholderImage) }

func (u User) Premium() bool { return u.Product == ProductPremium }

// Plan is the subscription label shown on the profile panel.
func (u User) Plan() string {
	if u.Premium() {
		return "Premium"
	}
	return "Free"
}

type Artist struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Genres       []string     `json:"genres,omitempty"`
	Popularity   int          `json:"popularity,omitempty"`
	Images       Images       `json:"images,omitempty"`
	Followers    Followers    `json:"followers"`
	ExternalURLs ExternalURLs `json:"external_urls"`
}

func (a Artist) ImageURL() string { return a.Images.URL(0, SmallPlaceholderImage) }

type Album struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	AlbumType    string       `json:"album_type,omitempty"`
	ReleaseDate  string       `json:"release_date,omitempty"`
	Artists      []Artist     `json:"artists,omitempty"`
	Images       Images       `json:"images,omitempty"`
	ExternalURLs ExternalURLs `json:"external_urls"`
}

func (a Album) ImageURL() string { return a.Images.URL(0, SmallPlaceholderImage) }

func (a Album) PrimaryArtist() string { return primaryArtist(a.Artists) }

type Track struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Album        Album        `json:"album"`
	Artists      []Artist     `json:"artists,omitempty"`
	DurationMS   int          `json:"duration_ms,omitempty"`
	Popularity   int          `json:"popularity,omitempty"`
	Explicit     bool         `json:"explicit,omitempty"`
	PreviewURL   *string      `json:"preview_url"`
	ExternalURLs ExternalURLs `json:"external_urls"`
}

func (t Track) PrimaryArtist() string { return primaryArtist(t.Artists) }

// ArtistNames joins every credited artist with ", ".
func (t Track) ArtistNames() string {
	if len(t.Artists) == 0 {
		return UnknownArtist
	}
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// Preview returns the 30 second preview clip URL, if Spotify provided one.
func (t Track) Preview() (string, bool) {
	if t.PreviewURL == nil || *t.PreviewURL == "" {
		return "", false
	}
	return *t.PreviewURL, true
}

func (t Track) Duration() time.Duration {
	return time.Duration(t.DurationMS) * time.Millisecond
}

type PlaylistOwner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
}

type PlaylistTracks struct {
	Total int `json:"total"`
}

type Playlist struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	Public        *bool          `json:"public"`
	Collaborative bool           `json:"collaborative,omitempty"`
	Owner         PlaylistOwner  `json:"owner"`
	Tracks        PlaylistTracks `json:"tracks"`
	Images        Images         `json:"images,omitempty"`
	ExternalURLs  ExternalURLs   `json:"external_urls"`
}

func (p Playlist) ImageURL() string { return p.Images.URL(0, SmallPlaceholderImage) }

func (p Playlist) OwnerName() string {
	if p.Owner.DisplayName != "" {
		return p.Owner.DisplayName
	}
	return p.Owner.ID
}

// PlayContext is the playlist or album a track was played from.
type PlayContext struct {
	Type string `json:"type"`
	URI  string `json:"uri"`
}

// PlayHistory is one entry of /me/player/recently-played.
type PlayHistory struct {
	Track    Track        `json:"track"`
	PlayedAt time.Time    `json:"played_at"`
	Context  *PlayContext `json:"context"`
}

// Page is the cursor page envelope of Spotify list endpoints.
type Page[T any] struct {
	Href   string  `json:"href,omitempty"`
	Items  []T     `json:"items"`
	Next   *string `json:"next"`
	Limit  int     `json:"limit,omitempty"`
	Offset int     `json:"offset,omitempty"`
	Total  int     `json:"total,omitempty"`
}

// NextURL returns the next page link, empty when the page is the last one.
func (p Page[T]) NextURL() string {
	if p.Next == nil {
		return ""
	}
	return *p.Next
}

type RecommendationSeed struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type Recommendations struct {
	Tracks []Track              `json:"tracks"`
	Seeds  []RecommendationSeed `json:"seeds,omitempty"`
}

// AlbumCount is an album paired with the number of top tracks it contributed.
type AlbumCount struct {
	Album Album `json:"album"`
	Count int   `json:"count"`
}

func primaryArtist(artists []Artist) string {
	if len(artists) == 0 || artists[0].Name == "" {
		return UnknownArtist
	}
	return artists[0].Name
}
