package main

import (
	"context"
	"errors"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mixtape/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	app := newApp(runner)

	if err := app.Run(context.Background(), os.Args); err != nil {
		if msg, ok := userMessage(err); ok {
			logger.Error(msg, "error", err)
			os.Exit(1)
		}
		logger.Fatalf("application error: %v", err)
	}
}

// newApp builds the root command around runner.
func newApp(runner *Runner) *cli.Command {
	return &cli.Command{
		Name:    "mixtape",
		Usage:   "Synthesize Spotify recommendations from moods, activities and artists",
		Version: shared.ServiceVersion,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars("MIXTAPE_CONFIG"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "trace",
				Usage: "Print OpenTelemetry spans to stderr",
			},
		},
		Before:   runner.Before,
		After:    runner.After,
		Commands: runner.register(),
	}
}

// userMessage maps the errors a user can act on to a short explanation.
func userMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, shared.ErrAuthExpired):
		return "spotify authorization expired; update the session tokens and try again", true
	case errors.Is(err, shared.ErrInsufficientSignal):
		return "no results: none of the suggested songs were found in the catalog", true
	case errors.Is(err, shared.ErrLookupUnavailable):
		return "attribute service unavailable; retry without --attribute or try again later", true
	case errors.Is(err, shared.ErrMissingCredentials):
		return "missing credentials; run 'mixtape setup config' and fill in config.toml", true
	case errors.Is(err, shared.ErrNotImplemented):
		return "not implemented", true
	}

	if up, ok := shared.AsUpstream(err); ok {
		if up.Timeout {
			return "upstream service timed out", true
		}
		return "upstream service rejected the request", true
	}
	return "", false
}
