// Package session holds the credential pair for one user session.
//
// A [Store] is scoped to a single session: the resilient API client holds exactly one, so concurrent requests for
// different sessions never see each other's tokens. Two backends are provided: [MemoryStore] for a single process
// and [RedisStore] for sessions shared across processes.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/mixtape/internal/shared"
)

// Store reads and mutates the token pair of one session.
//
// The boolean results report presence; an error is reserved for backend failures.
type Store interface {
	AccessToken(ctx context.Context) (string, bool, error)
	RefreshToken(ctx context.Context) (string, bool, error)
	SetAccessToken(ctx context.Context, token string) error
	ClearAccessToken(ctx context.Context) error
}

// Pair is the credential pair held by a session.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// Open builds the store selected by cfg and seeds it with the configured tokens.
//
// Seeding only writes tokens that are non-empty, so an existing Redis session is not overwritten with blanks.
func Open(ctx context.Context, cfg shared.SessionConfig) (Store, error) {
	id := cfg.ID
	if id == "" {
		id = "default"
	}
	seed := Pair{AccessToken: cfg.AccessToken, RefreshToken: cfg.RefreshToken}

	switch cfg.Backend {
	case "", shared.SessionBackendMemory:
		return NewMemoryStore(seed), nil
	case shared.SessionBackendRedis:
		store, err := NewRedisStore(ctx, cfg.RedisURL, id, cfg.TTLDuration())
		if err != nil {
			return nil, err
		}
		if err := store.Seed(ctx, seed); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: unknown session backend %q", shared.ErrInvalidConfig, cfg.Backend)
	}
}

const connectTimeout = 5 * time.Second
