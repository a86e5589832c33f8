package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/gaelon/internal/auth"
	"github.com/desertthunder/gaelon/internal/dashboard"
	"github.com/desertthunder/gaelon/internal/repositories"
	"github.com/desertthunder/gaelon/internal/services"
	"github.com/desertthunder/gaelon/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	persister  auth.Persister
	store      *auth.TokenStore
	client     *services.Client
	session    *dashboard.Session
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	db         *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A nil Config is resolved from --config in [Runner.Init]; a nil Persister
// opens the configured SQLite database.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Persister  auth.Persister
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = "config.toml"
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		persister:  opts.Persister,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}

	if r.config != nil && r.persister != nil {
		r.wire()
	}
	return r
}

// Init resolves configuration and token storage before any command runs.
//
// Dependencies passed to [NewRunner] are kept.
func (r *Runner) Init(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	if r.session != nil {
		return ctx, nil
	}

	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}
	if r.config == nil {
		config, err := shared.ResolveConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	}

	if r.persister == nil {
		if cmd.Bool("ephemeral") {
			r.logger.Debug("using in-memory token storage")
			r.persister = auth.NewMemoryPersister()
		} else {
			db, err := shared.OpenDatabase(r.config.Database)
			if err != nil {
				return ctx, err
			}
			r.db = db
			r.persister = repositories.NewTokenRepository(db)
		}
	}

	r.wire()
	return ctx, nil
}

func (r *Runner) wire() {
	opts := services.ClientOptsFromConfig(r.config.API, r.logger)
	if r.httpClient != nil {
		opts.HTTPClient = r.httpClient
	} else {
		r.httpClient = opts.HTTPClient
	}

	r.store = auth.NewTokenStore(r.persister, nil, r.logger)
	r.client = services.NewClient(opts)
	r.session = dashboard.NewSession(r.store, dashboard.New(r.client, r.logger), r.logger)
}

// Close releases the database opened by [Runner.Init].
func (r *Runner) Close(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand,
		playlistsCommand, discoverCommand, recentCommand, statsCommand, profileCommand,
		apiCommand, exportCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
