// submodule cmd contains command definitions
package main

import (
	"strings"
	"time"

	"github.com/desertthunder/gaelon/internal/recommend"
	"github.com/urfave/cli/v3"
)

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}

// setupCommand creates the config file and token database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml and initialize the token database",
		Action: r.Setup,
	}
}

// authCommand handles the implicit-grant session
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the Spotify session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authorize with Spotify in the browser and store the access token",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser redirect",
						Value: 2 * time.Minute,
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorize URL instead of opening a browser",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored access token",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Check whether the stored token is still accepted",
				Action: r.AuthStatus,
			},
			{
				Name:   "url",
				Usage:  "Print the authorize URL without starting the callback server",
				Action: r.AuthURL,
			},
		},
	}
}

func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "playlists",
		Usage:  "List your playlists",
		Flags:  jsonFlags(),
		Action: r.Playlists,
	}
}

func discoverCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "discover",
		Aliases: []string{"discovery"},
		Usage:   "Recommend tracks for a mood, seeded by your top tracks",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "mood",
				Aliases: []string{"m"},
				Usage:   strings.Join(recommend.MoodKeys(), ", "),
				Value:   "happy",
			},
		}, jsonFlags()...),
		Action: r.Discover,
	}
}

func recentCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "recent",
		Usage:  "Show recently played tracks",
		Flags:  jsonFlags(),
		Action: r.Recent,
	}
}

func statsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Top tracks, artists and albums for a time range",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "range",
				Aliases: []string{"r"},
				Usage:   "short_term, medium_term or long_term",
				Value:   "medium_term",
			},
		}, jsonFlags()...),
		Action: r.Stats,
	}
}

func profileCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "profile",
		Usage:  "Show your profile and top artists",
		Flags:  jsonFlags(),
		Action: r.Profile,
	}
}

// apiCommand handles direct Web API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the Spotify Web API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "GET a Web API path with the stored token, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "field",
						Aliases: []string{"f"},
						Usage:   "Print only this gjson path (e.g. items.#.name)",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
		},
	}
}

func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write dashboard panels to files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Usage: "json, csv, markdown or txt",
				Value: "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory (default: gaelon_export_{epoch})",
			},
			&cli.StringSliceFlag{
				Name:  "panels",
				Usage: "Panels to export (default: all)",
			},
			&cli.StringFlag{
				Name:  "mood",
				Usage: "Mood for the discovery panel: " + strings.Join(recommend.MoodKeys(), ", "),
				Value: "happy",
			},
			&cli.StringFlag{
				Name:  "range",
				Usage: "Time range for the stats panel",
				Value: "medium_term",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent panel loads",
				Value: 2,
			},
		},
		Action: r.Export,
	}
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the dashboard as a local JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default: server.host:server.port)",
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for the interactive dashboard.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive dashboard",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where logs go while the TUI owns the terminal",
				Value: "./tmp/gaelon-tui.log",
			},
		},
		Action: r.TUI,
	}
}
