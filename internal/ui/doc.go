// Package ui implements an interactive terminal dashboard using bubbletea's Elm architecture.
//
// The TUI shows one tab per dashboard panel:
//  1. Playlists : every playlist the user owns or follows
//  2. Discovery : recommendations for the selected mood (m cycles moods)
//  3. Recently Played : play history, most recent first
//  4. Stats : top tracks, artists and albums (t cycles the time range)
//  5. Profile : account details and top artists
//
// The [Model] implements bubbletea's Init/Update/View pattern. Each panel load
// runs as a [tea.Cmd] tagged with a per-panel sequence number; a response whose
// number is older than the panel's latest request is dropped, so reloading a
// tab or changing the mood never shows stale data.
//
// A rejected token switches the whole UI to a login prompt.
//
// Keyboard navigation uses arrow/vim-style bindings (h/l, tab, 1-5, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
