package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/desertthunder/gaelon/internal/recommend"
	"github.com/desertthunder/gaelon/internal/services"
	"golang.org/x/sync/errgroup"
)

// LoadOptions selects the parameterised panels' inputs.
type LoadOptions struct {
	Mood  recommend.Mood
	Range services.TimeRange
	// Concurrency caps simultaneous panel loads; 0 loads all at once.
	Concurrency int
}

// DefaultLoadOptions mirrors the dashboard's initial state.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{Mood: recommend.Happy, Range: services.MediumTerm}
}

// Result is one panel's data and error. Data may be partial when Err is set.
type Result[T any] struct {
	Data    T             `json:"data"`
	Err     error         `json:"-"`
	Elapsed time.Duration `json:"-"`
}

func (r Result[T]) OK() bool { return r.Err == nil }

// Snapshot is the outcome of [Dashboard.LoadAll].
type Snapshot struct {
	Playlists Result[*PlaylistsPanel]
	Discovery Result[*DiscoveryPanel]
	Recent    Result[*RecentPanel]
	Stats     Result[*StatsPanel]
	Profile   Result[*ProfilePanel]
}

// Errors returns the failed panels.
func (s *Snapshot) Errors() map[Panel]error {
	errs := make(map[Panel]error)
	for panel, err := range map[Panel]error{
		PanelPlaylists: s.Playlists.Err,
		PanelDiscovery: s.Discovery.Err,
		PanelRecent:    s.Recent.Err,
		PanelStats:     s.Stats.Err,
		PanelProfile:   s.Profile.Err,
	} {
		if err != nil {
			errs[panel] = err
		}
	}
	return errs
}

// Err joins every panel error, nil when all panels loaded.
func (s *Snapshot) Err() error {
	failed := s.Errors()

	var errs []error
	for _, p := range Panels {
		if err := failed[p]; err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SessionInvalid reports whether any panel was rejected with a 401.
func (s *Snapshot) SessionInvalid() bool {
	for _, err := range s.Errors() {
		if services.IsSessionInvalid(err) {
			return true
		}
	}
	return false
}

// LoadAll loads every panel concurrently. It never returns early: each panel
// runs to completion and records its own error.
func (d *Dashboard) LoadAll(ctx context.Context, token string, opts LoadOptions) *Snapshot {
	if !opts.Mood.Valid() {
		opts.Mood = recommend.Happy
	}

	snap := &Snapshot{}
	var g errgroup.Group
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}

	g.Go(func() error {
		snap.Playlists = timed(func() (*PlaylistsPanel, error) { return d.Playlists(ctx, token) })
		return nil
	})
	g.Go(func() error {
		snap.Discovery = timed(func() (*DiscoveryPanel, error) { return d.Discovery(ctx, token, opts.Mood) })
		return nil
	})
	g.Go(func() error {
		snap.Recent = timed(func() (*RecentPanel, error) { return d.RecentlyPlayed(ctx, token) })
		return nil
	})
	g.Go(func() error {
		snap.Stats = timed(func() (*StatsPanel, error) { return d.Stats(ctx, token, opts.Range) })
		return nil
	})
	g.Go(func() error {
		snap.Profile = timed(func() (*ProfilePanel, error) { return d.Profile(ctx, token) })
		return nil
	})
	g.Wait()

	for panel, err := range snap.Errors() {
		d.logger.Warn("panel failed", "panel", panel, "error", err)
	}
	return snap
}

func timed[T any](load func() (T, error)) Result[T] {
	start := time.Now()
	data, err := load()
	return Result[T]{Data: data, Err: err, Elapsed: time.Since(start)}
}

// Data returns the loaded data of p, nil for an unknown panel.
func (s *Snapshot) Data(p Panel) any {
	switch p {
	case PanelPlaylists:
		return s.Playlists.Data
	case PanelDiscovery:
		return s.Discovery.Data
	case PanelRecent:
		return s.Recent.Data
	case PanelStats:
		return s.Stats.Data
	case PanelProfile:
		return s.Profile.Data
	}
	return nil
}
