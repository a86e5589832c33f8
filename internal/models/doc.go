// Package models defines typed views of the Spotify Web API responses the dashboard consumes.
//
// The remote schema is not under our control, so every struct here is
// decoded leniently: absent or null fields decode to their zero value, and
// each field the panels render through an accessor has an explicit default
// on absence:
//   - [User.Name] : display name, falling back to [DefaultDisplayName]
//   - [User.ImageURL] : first profile image, falling back to [PlaceholderImage]
//   - [User.Plan] : "Premium" when product is premium, otherwise "Free"
//   - [Artist.ImageURL], [Album.ImageURL], [Playlist.ImageURL] : first image or [SmallPlaceholderImage]
//   - [Track.PrimaryArtist], [Album.PrimaryArtist] : first artist name or [UnknownArtist]
//   - [Track.Preview] : preview clip URL, reported absent when Spotify sends null
//   - [Playlist.OwnerName] : owner display name, falling back to the owner id
//
// [Page] is the generic cursor page envelope returned by list endpoints.
package models
