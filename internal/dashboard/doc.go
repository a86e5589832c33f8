// Package dashboard loads the data behind gaelon's five panels.
//
// Each panel is a single function of (context, token) returning a typed
// snapshot and an error. Panels never render; the CLI, the TUI and the web
// API format the snapshots themselves.
//
//   - [Dashboard.Playlists] : every playlist the user owns or follows
//   - [Dashboard.Discovery] : mood recommendations seeded by the user's top 5 tracks
//   - [Dashboard.RecentlyPlayed] : play history, most recent first
//   - [Dashboard.Stats] : top tracks, artists and derived top albums for a time range
//   - [Dashboard.Profile] : account details with the top 5 artists
//
// Paginated panels return the items gathered so far together with the error,
// so a caller may show partial data.
//
// [Dashboard.LoadAll] fetches all five concurrently. A failed panel carries its
// own error in the [Snapshot] and never fails its siblings.
//
// [Session] binds a dashboard to an [auth.TokenStore]: a 401 from any call
// clears the stored token and surfaces [shared.ErrSessionExpired].
package dashboard
