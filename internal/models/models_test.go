package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestModels(t *testing.T) {
	t.Run("User defaults", func(t *testing.T) {
		var u User
		if err := json.Unmarshal([]byte(`{"id":"u1","display_name":null,"images":[],"product":"free"}`), &u); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}

		if u.Name() != DefaultDisplayName {
			t.Errorf("expected %s, got %s", DefaultDisplayName, u.Name())
		}
		if u.ImageURL() != PlaceholderImage {
			t.Errorf("expected placeholder, got %s", u.ImageURL())
		}
		if u.Plan() != "Free" {
			t.Errorf("expected Free, got %s", u.Plan())
		}
	})

	t.Run("User populated", func(t *testing.T) {
		u := User{
			DisplayName: "Ada",
			Product:     ProductPremium,
			Images:      Images{{URL: "https://i.scdn.co/a.jpg"}},
		}
		if u.Name() != "Ada" || u.ImageURL() != "https://i.scdn.co/a.jpg" || u.Plan() != "Premium" {
			t.Errorf("unexpected accessors: %s %s %s", u.Name(), u.ImageURL(), u.Plan())
		}
	})

	t.Run("Images", func(t *testing.T) {
		im := Images{{URL: "big"}, {URL: ""}}
		tc := []struct {
			i    int
			want string
		}{
			{0, "big"}, {1, "fb"}, {2, "fb"}, {-1, "fb"},
		}
		for _, tt := range tc {
			if got := im.URL(tt.i, "fb"); got != tt.want {
				t.Errorf("URL(%d) = %s, want %s", tt.i, got, tt.want)
			}
		}
	})

	t.Run("Track", func(t *testing.T) {
		var tr Track
		raw := `{"id":"t1","name":"Song","artists":[{"name":"A"},{"name":"B"}],"preview_url":null,"duration_ms":1500}`
		if err := json.Unmarshal([]byte(raw), &tr); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}

		if tr.PrimaryArtist() != "A" {
			t.Errorf("expected A, got %s", tr.PrimaryArtist())
		}
		if tr.ArtistNames() != "A, B" {
			t.Errorf("expected 'A, B', got %s", tr.ArtistNames())
		}
		if _, ok := tr.Preview(); ok {
			t.Error("null preview should be absent")
		}
		if tr.Duration() != 1500*time.Millisecond {
			t.Errorf("unexpected duration %v", tr.Duration())
		}
		if (Track{}).PrimaryArtist() != UnknownArtist || (Track{}).ArtistNames() != UnknownArtist {
			t.Error("expected unknown artist fallback")
		}

		url := "https://p.scdn.co/mp3-preview/x"
		tr.PreviewURL = &url
		if got, ok := tr.Preview(); !ok || got != url {
			t.Errorf("expected preview %s, got %s (%v)", url, got, ok)
		}
	})

	t.Run("Playlist owner", func(t *testing.T) {
		p := Playlist{Owner: PlaylistOwner{ID: "owner-id"}}
		if p.OwnerName() != "owner-id" {
			t.Errorf("expected owner-id, got %s", p.OwnerName())
		}
		p.Owner.DisplayName = "Owner"
		if p.OwnerName() != "Owner" {
			t.Errorf("expected Owner, got %s", p.OwnerName())
		}
	})

	t.Run("Page", func(t *testing.T) {
		var page Page[PlayHistory]
		raw := `{"items":[{"track":{"id":"t1"},"played_at":"2024-05-01T10:00:00Z"}],"next":null}`
		if err := json.Unmarshal([]byte(raw), &page); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if page.NextURL() != "" {
			t.Errorf("expected empty next, got %s", page.NextURL())
		}
		if len(page.Items) != 1 || page.Items[0].Track.ID != "t1" {
			t.Errorf("unexpected items %+v", page.Items)
		}
		if page.Items[0].PlayedAt.IsZero() {
			t.Error("played_at should be parsed")
		}
	})
}
