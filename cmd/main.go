package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/gaelon/internal/auth"
	"github.com/desertthunder/gaelon/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	app := newApp(runner)

	if err := app.Run(context.Background(), os.Args); err != nil {
		switch {
		case errors.Is(err, auth.ErrAuthMissing), errors.Is(err, shared.ErrSessionExpired):
			logger.Error(err.Error())
			logger.Warn("run `gaelon auth login` to sign in with Spotify")
			os.Exit(2)
		default:
			logger.Fatalf("application error: %v", err)
		}
	}
}

// newApp builds the root command around r.
func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "gaelon",
		Usage:   "Your Spotify listening dashboard in the terminal",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "ephemeral",
				Usage: "Keep the token in memory instead of the database",
			},
		},
		Before:   r.Init,
		After:    r.Close,
		Commands: r.register(),
	}
}
