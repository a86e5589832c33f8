package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/gaelon/internal/auth"
	"github.com/desertthunder/gaelon/internal/dashboard"
	"github.com/desertthunder/gaelon/internal/server"
	"github.com/desertthunder/gaelon/internal/shared"
	"github.com/desertthunder/gaelon/internal/web"
	"github.com/urfave/cli/v3"
)

// Serve runs the dashboard JSON API until interrupted.
//
// When the config carries a client id the redirect URI is served as well, so
// a browser login can complete against the same server.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	var callback *server.CallbackHandler
	if err := r.config.Validate(); err != nil {
		r.logger.Warn("login disabled", "error", err)
	} else {
		state, err := shared.GenerateState()
		if err != nil {
			return err
		}
		spotify := r.config.Credentials.Spotify
		callback = server.NewCallbackHandler(r.store, state, server.CallbackPath(spotify.RedirectURI))

		if _, err := r.session.Token(ctx); err != nil {
			authURL, err := auth.AuthURL(spotify, state)
			if err != nil {
				return err
			}
			r.writePlain("Not logged in. Authorize at:\n%s\n\n", authURL)
		}
	}

	srv := web.NewServer(web.ServerOpts{
		Session:  r.session,
		Callback: callback,
		Defaults: dashboard.DefaultLoadOptions(),
		Logger:   r.logger,
	})

	r.writePlain("→ Serving dashboard API at http://%s/api/panels\n", addr)
	return srv.ListenAndServe(ctx, addr)
}
