package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/desertthunder/mixtape/internal/repositories"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/session"
	"github.com/desertthunder/mixtape/internal/shared"
)

// sessionStore opens the configured token store once.
func (r *Runner) sessionStore(ctx context.Context) (session.Store, error) {
	if r.store != nil {
		return r.store, nil
	}

	store, err := session.Open(ctx, r.cfg().Session)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	if c, ok := store.(io.Closer); ok {
		r.shutdown = append(r.shutdown, func(context.Context) error { return c.Close() })
	}

	r.store = store
	return store, nil
}

// spotify wires the catalog: session-scoped bearer token, token refresh when client credentials are configured,
// and the configured rate limit.
func (r *Runner) spotify(ctx context.Context) (services.Catalog, error) {
	if r.catalog != nil {
		return r.catalog, nil
	}

	store, err := r.sessionStore(ctx)
	if err != nil {
		return nil, err
	}

	cfg := r.cfg()
	opts := services.ClientOptions{
		BaseURL:    cfg.Credentials.Spotify.BaseURL,
		HTTPClient: r.client(),
		Store:      store,
		Timeout:    cfg.Client.TimeoutDuration(),
		Limiter:    services.NewLimiter(cfg.Client.Limit(), cfg.Client.BurstSize()),
		Logger:     shared.WithLogger(r.logger, "service", "spotify"),
	}
	if opts.BaseURL == "" {
		opts.BaseURL = services.DefaultSpotifyBaseURL
	}

	if refresher, err := services.NewOAuthRefresher(cfg.Credentials.Spotify, r.client()); err == nil {
		opts.Auth = refresher
	} else {
		r.logger.Warn("token refresh disabled", "error", err)
	}

	r.catalog = services.NewSpotifyCatalog(services.NewClient(opts), "")
	return r.catalog, nil
}

// openAI wires the text generator. It fails with [shared.ErrMissingCredentials] without an API key.
func (r *Runner) openAI() (services.Generator, error) {
	if r.generator != nil {
		return r.generator, nil
	}

	cfg := r.cfg()
	baseURL := cfg.Credentials.OpenAI.BaseURL
	if baseURL == "" {
		baseURL = services.DefaultOpenAIBaseURL
	}

	client := services.NewClient(services.ClientOptions{
		BaseURL:    baseURL,
		HTTPClient: r.client(),
		Timeout:    cfg.Client.TimeoutDuration(),
		Logger:     shared.WithLogger(r.logger, "service", "openai"),
	})

	generator, err := services.NewOpenAIGenerator(client, cfg.Credentials.OpenAI)
	if err != nil {
		return nil, err
	}
	r.generator = generator
	return generator, nil
}

// musicBrainz wires the attribute lookup at MusicBrainz's one request per second.
func (r *Runner) musicBrainz() services.AttributeLookup {
	if r.lookup != nil {
		return r.lookup
	}

	cfg := r.cfg()
	baseURL := cfg.Credentials.MusicBrainz.BaseURL
	if baseURL == "" {
		baseURL = services.DefaultMusicBrainzBaseURL
	}

	client := services.NewClient(services.ClientOptions{
		BaseURL:    baseURL,
		HTTPClient: r.client(),
		Timeout:    cfg.Client.TimeoutDuration(),
		Limiter:    services.NewLimiter(services.MusicBrainzRateLimit, 1),
		Logger:     shared.WithLogger(r.logger, "service", "musicbrainz"),
	})

	r.lookup = services.NewMusicBrainzLookup(client, cfg.Credentials.MusicBrainz.UserAgent)
	return r.lookup
}

// database opens the configured database without migrating it.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	cfg := r.cfg().Database
	db, err := shared.NewDatabase(cfg.Path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, cfg)

	r.db = db
	r.shutdown = append(r.shutdown, func(context.Context) error {
		r.db = nil
		return db.Close()
	})
	return db, nil
}

// history opens the run repository, applying pending migrations first.
func (r *Runner) history() (*repositories.RunRepository, error) {
	if r.runs != nil {
		return r.runs, nil
	}

	db, err := r.database()
	if err != nil {
		return nil, err
	}
	if err := shared.RunMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.runs = repositories.NewRunRepository(db)
	r.shutdown = append(r.shutdown, func(context.Context) error {
		r.runs = nil
		return nil
	})
	return r.runs, nil
}
