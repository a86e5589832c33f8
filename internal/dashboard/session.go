package dashboard

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/gaelon/internal/auth"
	"github.com/desertthunder/gaelon/internal/services"
	"github.com/desertthunder/gaelon/internal/shared"
)

// Session runs dashboard calls with the stored token and invalidates it on a 401.
type Session struct {
	Store     *auth.TokenStore
	Dashboard *Dashboard
	logger    *log.Logger
}

func NewSession(store *auth.TokenStore, d *Dashboard, logger *log.Logger) *Session {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Session{Store: store, Dashboard: d, logger: logger}
}

// Token loads the access token. Without one the error wraps [auth.ErrAuthMissing].
func (s *Session) Token(ctx context.Context) (string, error) {
	return s.Store.Load(ctx)
}

// Check passes err through unless it is a 401, in which case the stored token
// is cleared and the result wraps [shared.ErrSessionExpired].
func (s *Session) Check(ctx context.Context, err error) error {
	if !services.IsSessionInvalid(err) {
		return err
	}

	s.logger.Warn("access token rejected, clearing session", "error", err)
	if clearErr := s.Store.Clear(ctx); clearErr != nil {
		s.logger.Error("failed to clear token", "error", clearErr)
	}
	return fmt.Errorf("%w: %v", shared.ErrSessionExpired, err)
}

// LoadAll loads every panel. The returned error is non-nil only when the
// token is missing or was rejected; per-panel failures stay in the snapshot.
func (s *Session) LoadAll(ctx context.Context, opts LoadOptions) (*Snapshot, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return nil, err
	}

	snap := s.Dashboard.LoadAll(ctx, token, opts)
	if snap.SessionInvalid() {
		for _, err := range snap.Errors() {
			if services.IsSessionInvalid(err) {
				return snap, s.Check(ctx, err)
			}
		}
	}
	return snap, nil
}

// Run calls fn with the session's token. Data returned alongside an error is
// passed through so callers may show partial results.
func Run[T any](ctx context.Context, s *Session, fn func(ctx context.Context, token string) (T, error)) (T, error) {
	token, err := s.Token(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	data, err := fn(ctx, token)
	return data, s.Check(ctx, err)
}

// Panel loads a single panel through the session. The data is one of the
// *XPanel types.
func (s *Session) Panel(ctx context.Context, p Panel, opts LoadOptions) (any, error) {
	d := s.Dashboard
	switch p {
	case PanelPlaylists:
		return Run(ctx, s, d.Playlists)
	case PanelDiscovery:
		return Run(ctx, s, func(ctx context.Context, token string) (*DiscoveryPanel, error) {
			return d.Discovery(ctx, token, opts.Mood)
		})
	case PanelRecent:
		return Run(ctx, s, d.RecentlyPlayed)
	case PanelStats:
		return Run(ctx, s, func(ctx context.Context, token string) (*StatsPanel, error) {
			return d.Stats(ctx, token, opts.Range)
		})
	case PanelProfile:
		return Run(ctx, s, d.Profile)
	}
	return nil, fmt.Errorf("%w: unknown panel %q", shared.ErrInvalidArgument, p)
}
