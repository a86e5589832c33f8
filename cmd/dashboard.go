package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/gaelon/internal/dashboard"
	"github.com/desertthunder/gaelon/internal/formatter"
	"github.com/desertthunder/gaelon/internal/recommend"
	"github.com/desertthunder/gaelon/internal/services"
	"github.com/desertthunder/gaelon/internal/shared"
	"github.com/urfave/cli/v3"
)

// Playlists lists the user's playlists.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	return r.showPanel(ctx, cmd, dashboard.PanelPlaylists, dashboard.DefaultLoadOptions())
}

// Discover recommends tracks for --mood.
func (r *Runner) Discover(ctx context.Context, cmd *cli.Command) error {
	mood, err := recommend.ParseMood(cmd.String("mood"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}

	opts := dashboard.DefaultLoadOptions()
	opts.Mood = mood
	return r.showPanel(ctx, cmd, dashboard.PanelDiscovery, opts)
}

// Recent shows the recently played history.
func (r *Runner) Recent(ctx context.Context, cmd *cli.Command) error {
	return r.showPanel(ctx, cmd, dashboard.PanelRecent, dashboard.DefaultLoadOptions())
}

// Stats shows top tracks, artists and albums for --range.
func (r *Runner) Stats(ctx context.Context, cmd *cli.Command) error {
	tr, err := services.ParseTimeRange(cmd.String("range"))
	if err != nil {
		return err
	}

	opts := dashboard.DefaultLoadOptions()
	opts.Range = tr
	return r.showPanel(ctx, cmd, dashboard.PanelStats, opts)
}

// Profile shows the user's profile and top artists.
func (r *Runner) Profile(ctx context.Context, cmd *cli.Command) error {
	return r.showPanel(ctx, cmd, dashboard.PanelProfile, dashboard.DefaultLoadOptions())
}

// showPanel loads p through the session and prints it as JSON or aligned text.
// Partial data that arrived with an error is printed before the error is returned.
func (r *Runner) showPanel(ctx context.Context, cmd *cli.Command, p dashboard.Panel, opts dashboard.LoadOptions) error {
	r.logger.Debug("loading panel", "panel", p, "mood", opts.Mood, "range", opts.Range)

	data, err := r.session.Panel(ctx, p, opts)
	if data == nil || isNilPanel(data) {
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: %s returned no data", shared.ErrAPIRequest, p)
	}

	if cmd.Bool("json") {
		if werr := r.writeJSON(data, cmd.Bool("pretty")); werr != nil {
			return werr
		}
		return err
	}

	text, ferr := formatter.ExportToText(data)
	if ferr != nil {
		return ferr
	}

	r.writePlainHeader(p.Title())
	r.writePlain("%s", text)
	if err != nil {
		r.writePlainln("⚠ %s is incomplete", p.Title())
	}
	return err
}

// isNilPanel reports a typed nil *XPanel stored in an interface.
func isNilPanel(data any) bool {
	switch v := data.(type) {
	case *dashboard.PlaylistsPanel:
		return v == nil
	case *dashboard.DiscoveryPanel:
		return v == nil
	case *dashboard.RecentPanel:
		return v == nil
	case *dashboard.StatsPanel:
		return v == nil
	case *dashboard.ProfilePanel:
		return v == nil
	}
	return false
}
