package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/gaelon/internal/auth"
	"github.com/desertthunder/gaelon/internal/dashboard"
	"github.com/desertthunder/gaelon/internal/recommend"
	"github.com/desertthunder/gaelon/internal/server"
	"github.com/desertthunder/gaelon/internal/services"
	"github.com/desertthunder/gaelon/internal/shared"
)

// Server exposes a [dashboard.Session] over HTTP.
type Server struct {
	session *dashboard.Session
	router  *server.BasicRouter
	opts    dashboard.LoadOptions
	logger  *log.Logger
}

// ServerOpts configures a [Server].
type ServerOpts struct {
	Session  *dashboard.Session
	Callback *server.CallbackHandler // optional
	Defaults dashboard.LoadOptions   // used when a request names no mood or range
	Logger   *log.Logger
}

func NewServer(opts ServerOpts) *Server {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if !opts.Defaults.Mood.Valid() {
		opts.Defaults.Mood = recommend.Happy
	}
	if opts.Defaults.Range == "" {
		opts.Defaults.Range = services.MediumTerm
	}

	s := &Server{
		session: opts.Session,
		router:  server.NewBasicRouter(),
		opts:    opts.Defaults,
		logger:  opts.Logger,
	}

	s.router.Use(server.Recoverer(s.logger), server.RequestLogger(s.logger), server.NoStore)
	s.router.HandleFunc(http.MethodGet, "/api/panels", s.handlePanels)
	s.router.HandleFunc(http.MethodGet, "/api/panels/{panel}", s.handlePanel)
	s.router.HandleFunc(http.MethodGet, "/api/session", s.handleSession)
	s.router.HandleFunc(http.MethodDelete, "/api/session", s.handleLogout)
	if opts.Callback != nil {
		s.router.Handler(opts.Callback)
	}
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard API listening", "addr", addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type panelResponse struct {
	Data      any    `json:"data"`
	Error     string `json:"error,omitempty"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

func (s *Server) handlePanels(w http.ResponseWriter, r *http.Request) {
	opts, err := s.loadOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	snap, err := s.session.LoadAll(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	failed := snap.Errors()
	elapsed := map[dashboard.Panel]time.Duration{
		dashboard.PanelPlaylists: snap.Playlists.Elapsed,
		dashboard.PanelDiscovery: snap.Discovery.Elapsed,
		dashboard.PanelRecent:    snap.Recent.Elapsed,
		dashboard.PanelStats:     snap.Stats.Elapsed,
		dashboard.PanelProfile:   snap.Profile.Elapsed,
	}

	panels := make(map[dashboard.Panel]panelResponse, len(dashboard.Panels))
	for _, p := range dashboard.Panels {
		resp := panelResponse{Data: snap.Data(p), ElapsedMS: elapsed[p].Milliseconds()}
		if err := failed[p]; err != nil {
			resp.Error = err.Error()
		}
		panels[p] = resp
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"mood":       opts.Mood,
		"time_range": opts.Range,
		"panels":     panels,
	})
}

func (s *Server) handlePanel(w http.ResponseWriter, r *http.Request) {
	panel, err := dashboard.ParsePanel(r.PathValue("panel"))
	if err != nil {
		s.writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
		return
	}

	opts, err := s.loadOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	data, err := s.session.Panel(r.Context(), panel, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	token, err := s.session.Token(r.Context())
	switch {
	case errors.Is(err, auth.ErrAuthMissing):
		s.writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
	case err != nil:
		s.writeError(w, err)
	default:
		s.writeJSON(w, http.StatusOK, map[string]any{"authenticated": true, "token": shared.Redact(token)})
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Store.Clear(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// loadOptions reads ?mood= and ?range=, falling back to the server defaults.
func (s *Server) loadOptions(r *http.Request) (dashboard.LoadOptions, error) {
	opts := s.opts
	q := r.URL.Query()

	if v := q.Get("mood"); v != "" {
		mood, err := recommend.ParseMood(v)
		if err != nil {
			return opts, err
		}
		opts.Mood = mood
	}
	if v := q.Get("range"); v != "" {
		tr, err := services.ParseTimeRange(v)
		if err != nil {
			return opts, err
		}
		opts.Range = tr
	}
	return opts, nil
}

type errorBody struct {
	Error string `json:"error"`
	Login bool   `json:"login,omitempty"`
}

// writeError maps err to a status code and writes it as JSON.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		moodErr *recommend.InvalidMoodError
		apiErr  *services.APIError
	)

	switch {
	case errors.Is(err, shared.ErrSessionExpired),
		errors.Is(err, auth.ErrAuthMissing),
		errors.Is(err, auth.ErrTokenNotFound):
		s.writeJSON(w, http.StatusUnauthorized, errorBody{Error: err.Error(), Login: true})
	case errors.As(err, &moodErr), errors.Is(err, shared.ErrInvalidArgument):
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusTooManyRequests:
		if apiErr.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(apiErr.RetryAfter.Seconds())))
		}
		s.writeJSON(w, http.StatusTooManyRequests, errorBody{Error: err.Error()})
	case errors.As(err, &apiErr):
		s.writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error()})
	default:
		s.logger.Error("request failed", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}
