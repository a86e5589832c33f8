package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/gaelon/internal/dashboard"
)

// Loader fetches one panel's data.
//
// Data is one of the *dashboard.XPanel types and may be partial when err is set.
type Loader func(ctx context.Context, panel dashboard.Panel, opts dashboard.LoadOptions) (any, error)

// SessionLoader loads panels through s, clearing the token on a 401.
func SessionLoader(s *dashboard.Session) Loader {
	return s.Panel
}

// panelLoadedMsg carries a panel load result tagged with the request's sequence number.
type panelLoadedMsg struct {
	panel dashboard.Panel
	seq   int
	data  any
	err   error
}

var _ tea.Msg = panelLoadedMsg{}
