package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/gaelon/internal/shared"
)

// TokenKey is the fixed key of the persisted access token entry.
const TokenKey = "spotifyAccessToken"

var (
	// ErrAuthMissing means neither storage nor the redirect fragment yielded a token.
	ErrAuthMissing = fmt.Errorf("%w: no access token available", shared.ErrNotAuthenticated)
	// ErrTokenNotFound means a redirect fragment was present but carried no access_token.
	ErrTokenNotFound = errors.New("access token not found in redirect fragment")
)

// Persister is a key-value entry store for the access token.
type Persister interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Location is the visible redirect location whose fragment may carry a token.
type Location interface {
	Fragment() string
	ClearFragment()
}

// Fragment holds the parameters Spotify appends to the redirect URI.
type Fragment struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int
	State       string
	Error       string
}

// ParseFragment parses a redirect fragment such as
// "#access_token=XYZ&token_type=Bearer&expires_in=3600". The leading '#' is optional.
func ParseFragment(raw string) (Fragment, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(raw, "#"))
	if err != nil {
		return Fragment{}, fmt.Errorf("%w: %v", ErrTokenNotFound, err)
	}

	f := Fragment{
		AccessToken: values.Get("access_token"),
		TokenType:   values.Get("token_type"),
		State:       values.Get("state"),
		Error:       values.Get("error"),
	}
	if v := values.Get("expires_in"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.ExpiresIn = n
		}
	}

	switch {
	case f.Error != "":
		return f, fmt.Errorf("%w: authorization denied: %s", ErrTokenNotFound, f.Error)
	case f.AccessToken == "":
		return f, ErrTokenNotFound
	}
	return f, nil
}

// TokenStore owns the access token: it loads it from storage or the redirect
// fragment, hands it out read-only, and clears it on logout or invalidation.
type TokenStore struct {
	mu        sync.Mutex
	persister Persister
	location  Location
	token     string
	logger    *log.Logger
}

// NewTokenStore creates a store over p. loc may be nil when no redirect is pending.
func NewTokenStore(p Persister, loc Location, logger *log.Logger) *TokenStore {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &TokenStore{persister: p, location: loc, logger: logger}
}

// SetLocation hands the store a fresh redirect location to inspect on the next [TokenStore.Load].
func (s *TokenStore) SetLocation(loc Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.location = loc
}

// Load returns the access token, checking persisted storage first and the
// redirect fragment second. A token found in the fragment is persisted and the
// fragment cleared.
func (s *TokenStore) Load(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok, err := s.persister.Get(ctx, TokenKey)
	if err != nil {
		return "", fmt.Errorf("failed to read persisted token: %w", err)
	}
	if ok && stored != "" {
		s.token = stored
		return stored, nil
	}

	if s.location == nil || s.location.Fragment() == "" {
		s.token = ""
		return "", ErrAuthMissing
	}

	fragment, parseErr := ParseFragment(s.location.Fragment())
	s.location.ClearFragment()
	if parseErr != nil {
		s.logger.Warn("redirect fragment carried no token", "error", parseErr)
		return "", parseErr
	}

	if err := s.persister.Set(ctx, TokenKey, fragment.AccessToken); err != nil {
		return "", fmt.Errorf("failed to persist token: %w", err)
	}

	s.logger.Info("access token stored", "token", shared.Redact(fragment.AccessToken), "expires_in", fragment.ExpiresIn)
	s.token = fragment.AccessToken
	return s.token, nil
}

// Token returns the in-memory token, empty until a successful [TokenStore.Load].
func (s *TokenStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Clear removes the persisted token and forgets the in-memory copy.
func (s *TokenStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	if err := s.persister.Delete(ctx, TokenKey); err != nil {
		return fmt.Errorf("failed to delete persisted token: %w", err)
	}
	return nil
}

// URLLocation adapts a redirect [url.URL] to [Location].
type URLLocation struct {
	u *url.URL
}

// FragmentLocation wraps a bare, still-escaped fragment string such as the
// browser's location.hash.
func FragmentLocation(fragment string) *URLLocation {
	fragment = strings.TrimPrefix(fragment, "#")
	u, err := url.Parse("#" + fragment)
	if err != nil {
		u = &url.URL{Fragment: fragment}
	}
	return &URLLocation{u: u}
}

func (l *URLLocation) Fragment() string { return l.u.EscapedFragment() }

func (l *URLLocation) ClearFragment() {
	l.u.Fragment = ""
	l.u.RawFragment = ""
}

// String returns the location with any remaining fragment.
func (l *URLLocation) String() string { return l.u.String() }

// MemoryPersister keeps the token entry in process memory.
type MemoryPersister struct {
	mu      sync.Mutex
	entries map[string]string
}

// NewMemoryPersister creates an empty [MemoryPersister].
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{entries: make(map[string]string)}
}

func (m *MemoryPersister) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *MemoryPersister) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func (m *MemoryPersister) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}
