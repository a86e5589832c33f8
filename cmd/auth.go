package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/gaelon/internal/auth"
	"github.com/desertthunder/gaelon/internal/dashboard"
	"github.com/desertthunder/gaelon/internal/server"
	"github.com/desertthunder/gaelon/internal/shared"
	"github.com/urfave/cli/v3"
)

// openBrowser is swapped out in tests.
var openBrowser = shared.OpenBrowser

// AuthLogin runs the implicit grant: it serves the redirect URI locally, opens
// the authorize page, and waits for the callback page to post the fragment.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Validate(); err != nil {
		return err
	}

	// A persisted token would shadow the one arriving in the fragment.
	if err := r.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear previous session: %w", err)
	}

	state, err := shared.GenerateState()
	if err != nil {
		return fmt.Errorf("failed to generate state: %w", err)
	}

	spotify := r.config.Credentials.Spotify
	authURL, err := auth.AuthURL(spotify, state)
	if err != nil {
		return err
	}

	callback := server.NewCallbackHandler(r.store, state, server.CallbackPath(spotify.RedirectURI))
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(callback)

	httpServer := &http.Server{
		Addr:              r.config.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting callback server at %v", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	time.Sleep(100 * time.Millisecond)

	if cmd.Bool("no-browser") {
		r.writePlain("Open this URL in your browser:\n%s\n\n", authURL)
	} else {
		r.writePlain("→ Opening browser for Spotify authorization...\n")
		if err := openBrowser(authURL); err != nil {
			r.logger.Warnf("failed to open browser automatically %v", err)
			r.writePlainln("⚠ Could not open browser automatically.")
			r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
		}
	}

	wait := cmd.Duration("timeout")
	if wait <= 0 {
		wait = 2 * time.Minute
	}
	r.writePlain("→ Waiting for authorization (%v timeout)...\n", wait)

	timeout := time.NewTimer(wait)
	defer timeout.Stop()

	var result server.CallbackResult
	select {
	case result = <-callback.Result():
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return fmt.Errorf("%w: authorization timed out after %v", shared.ErrTimeout, wait)
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := result.Error(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	if result.Token == "" {
		return fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	r.writePlainln("✓ Authorization successful")
	if result.ExpiresIn > 0 {
		r.writePlain("Token expires in %v\n", time.Duration(result.ExpiresIn)*time.Second)
	}
	r.writePlain("\nYou can now use: gaelon tui\n")
	return nil
}

// AuthLogout forgets the stored token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.store.Clear(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Logged out\n")
}

// AuthStatus reports whether a token is stored and whether Spotify still accepts it.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	token, err := r.session.Token(ctx)
	if errors.Is(err, auth.ErrAuthMissing) {
		return r.writePlain("✗ Not authenticated\n")
	}
	if err != nil {
		return err
	}

	r.writePlain("Token: %s\n", shared.Redact(token))
	if saved, ok := r.tokenSavedAt(ctx); ok {
		r.writePlain("Stored: %s\n", saved.Local().Format(time.DateTime))
	}

	user, err := dashboard.Run(ctx, r.session, r.client.CurrentUser)
	if errors.Is(err, shared.ErrSessionExpired) {
		return r.writePlain("✗ Session expired, token cleared\n")
	}
	if err != nil {
		return err
	}

	r.writePlain("✓ Authenticated as %s (%s)\n", user.Name(), user.Plan())
	return nil
}

// tokenSavedAt reads the token's timestamp when the persister records one.
func (r *Runner) tokenSavedAt(ctx context.Context) (time.Time, bool) {
	timed, ok := r.persister.(interface {
		UpdatedAt(ctx context.Context, key string) (time.Time, bool, error)
	})
	if !ok {
		return time.Time{}, false
	}
	at, found, err := timed.UpdatedAt(ctx, auth.TokenKey)
	if err != nil {
		r.logger.Debug("failed to read token timestamp", "error", err)
		return time.Time{}, false
	}
	return at, found
}

// AuthURL prints the authorize URL for a manual login.
func (r *Runner) AuthURL(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Validate(); err != nil {
		return err
	}

	state, err := shared.GenerateState()
	if err != nil {
		return fmt.Errorf("failed to generate state: %w", err)
	}

	authURL, err := auth.AuthURL(r.config.Credentials.Spotify, state)
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", authURL)
}

