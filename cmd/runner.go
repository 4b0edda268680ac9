package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/musicagent/internal/repositories"
	"github.com/desertthunder/musicagent/internal/services"
	"github.com/desertthunder/musicagent/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
	openBrowser func(string) error
	linkTimeout time.Duration
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A nil Config is resolved from the --config and --env-file flags when a command runs.
// A nil HTTPClient is built from the resolved config's upstream timeout.
type RunnerOpts struct {
	Config      *shared.Config
	HTTPClient  *http.Client
	Logger      *log.Logger
	Output      io.Writer
	OpenBrowser func(string) error
	LinkTimeout time.Duration
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenConsentPage
	}
	if opts.LinkTimeout <= 0 {
		opts.LinkTimeout = 2 * time.Minute
	}

	return &Runner{
		config:      opts.Config,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
		openBrowser: opts.OpenBrowser,
		linkTimeout: opts.LinkTimeout,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, setupCommand, linkCommand, ingestCommand, usersCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig returns the injected config or resolves one from the command's flags,
// applying its log level to the runner's logger.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	if r.config == nil {
		config, err := shared.ResolveConfig(cmd.String("config"), cmd.String("env-file"))
		if err != nil {
			return nil, err
		}
		r.config = config
	}
	shared.SetLogLevel(r.logger, r.config.Logging.Level)
	return r.config, nil
}

// client returns the HTTP client used for every upstream call.
func (r *Runner) client(config *shared.Config) *http.Client {
	if r.httpClient == nil {
		r.httpClient = &http.Client{Timeout: config.Spotify.Timeout()}
	}
	return r.httpClient
}

// app is the wired service graph over one store.
type app struct {
	db        *sql.DB
	users     *repositories.UserRepository
	snapshots *repositories.SnapshotRepository
	tokens    *services.TokenManager
	ingestor  *services.Ingestor
	accounts  *services.AccountService
}

// open acquires the store and wires the services. Callers close app.db.
func (r *Runner) open(ctx context.Context, config *shared.Config) (*app, error) {
	db, err := shared.OpenDatabase(ctx, config.Database)
	if err != nil {
		return nil, err
	}

	hc := r.client(config)
	users := repositories.NewUserRepository(db)
	snapshots := repositories.NewSnapshotRepository(db)
	tokens := services.NewTokenManager(config.Credentials.Spotify, config.Spotify, hc, users)
	api := services.NewSpotifyAPI(hc, config.Spotify)

	return &app{
		db:        db,
		users:     users,
		snapshots: snapshots,
		tokens:    tokens,
		ingestor:  services.NewIngestor(tokens, api, snapshots, r.logger),
		accounts:  services.NewAccountService(users),
	}, nil
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
