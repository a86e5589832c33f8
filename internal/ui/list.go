package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/gaelon/internal/models"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = trackItem{}
	_ list.Item = historyItem{}
)

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d tracks • %s", i.playlist.Tracks.Total, i.playlist.OwnerName())
	if i.playlist.Collaborative {
		desc += " • collaborative"
	}
	return desc
}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Name }
func (i trackItem) Title() string       { return i.track.Name }
func (i trackItem) Description() string {
	desc := i.track.ArtistNames()
	if i.track.Album.Name != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album.Name)
	}
	if _, ok := i.track.Preview(); ok {
		desc += " • ▶ preview"
	}
	return desc
}

// historyItem wraps [models.PlayHistory] to implement [list.Item].
type historyItem struct {
	entry models.PlayHistory
	now   time.Time
}

func (i historyItem) FilterValue() string { return i.entry.Track.Name }
func (i historyItem) Title() string       { return i.entry.Track.Name }
func (i historyItem) Description() string {
	return fmt.Sprintf("%s • %s", i.entry.Track.ArtistNames(), ago(i.now, i.entry.PlayedAt))
}

// ago renders a coarse relative time such as "5m ago" or "3d ago".
func ago(now, then time.Time) string {
	if then.IsZero() {
		return "unknown"
	}
	d := now.Sub(then)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func playlistItems(playlists []models.Playlist) []list.Item {
	items := make([]list.Item, len(playlists))
	for i, p := range playlists {
		items[i] = playlistItem{playlist: p}
	}
	return items
}

func trackItems(tracks []models.Track) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t}
	}
	return items
}

func historyItems(entries []models.PlayHistory, now time.Time) []list.Item {
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = historyItem{entry: e, now: now}
	}
	return items
}
