package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mixtape/internal/formatter"
	"github.com/desertthunder/mixtape/internal/repositories"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/session"
	"github.com/desertthunder/mixtape/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Remote services and the database are wired on first use, so commands that do not need them work without
// credentials or a database.
type Runner struct {
	config     *shared.Config
	configPath string
	store      session.Store
	catalog    services.Catalog
	generator  services.Generator
	lookup     services.AttributeLookup
	runs       *repositories.RunRepository
	db         *sql.DB
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	trace      io.Writer
	palette    *formatter.Palette
	shutdown   []func(context.Context) error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Store      session.Store
	Catalog    services.Catalog
	Generator  services.Generator
	Lookup     services.AttributeLookup
	Runs       *repositories.RunRepository
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	// TraceOutput receives pretty-printed spans when tracing is enabled. Defaults to stderr.
	TraceOutput io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.TraceOutput == nil {
		opts.TraceOutput = os.Stderr
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		store:      opts.Store,
		catalog:    opts.Catalog,
		generator:  opts.Generator,
		lookup:     opts.Lookup,
		runs:       opts.Runs,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		trace:      opts.TraceOutput,
		palette:    formatter.DefaultPalette,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		recommendCommand, playlistCommand, genresCommand, artistsCommand, historyCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads configuration and installs tracing ahead of any command.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if r.configPath == "" {
		r.configPath = cmd.String("config")
	}
	if err := r.loadConfig(); err != nil {
		return ctx, err
	}

	shutdown, err := shared.SetupTracing(r.trace, cmd.Bool("trace") || r.config.Telemetry.Trace)
	if err != nil {
		return ctx, fmt.Errorf("failed to set up tracing: %w", err)
	}
	r.shutdown = append(r.shutdown, shutdown)

	if r.httpClient == nil {
		r.httpClient = shared.NewHTTPClient(nil)
	}
	return ctx, nil
}

// After flushes spans and releases the session store and database.
func (r *Runner) After(ctx context.Context, _ *cli.Command) error {
	var errs []error
	for _, fn := range r.shutdown {
		errs = append(errs, fn(ctx))
	}
	r.shutdown = nil
	return errors.Join(errs...)
}

// loadConfig reads the config file when present and falls back to defaults plus environment otherwise.
func (r *Runner) loadConfig() error {
	if r.config != nil {
		return nil
	}

	if _, err := os.Stat(r.configPath); err != nil {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		r.config = shared.DefaultConfig()
		r.config.ApplyEnv()
		return nil
	}

	config, err := shared.LoadConfig(r.configPath)
	if err != nil {
		return err
	}
	r.config = config
	return nil
}

func (r *Runner) cfg() *shared.Config {
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}
	return r.config
}

func (r *Runner) client() *http.Client {
	if r.httpClient == nil {
		r.httpClient = http.DefaultClient
	}
	return r.httpClient
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
