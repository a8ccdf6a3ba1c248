package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix      = "mixtape:session:"
	fieldAccess    = "access_token"
	fieldRefresh   = "refresh_token"
	fieldUpdatedAt = "updated_at"
)

// RedisStore keeps the pair in a Redis hash keyed by session ID.
//
// Every write refreshes the key's TTL when one is configured.
type RedisStore struct {
	client *redis.Client
	id     string
	ttl    time.Duration
}

// NewRedisStore connects to redisURL and returns a store for session id.
func NewRedisStore(ctx context.Context, redisURL, id string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStoreWithClient(client, id, ttl), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, id string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, id: id, ttl: ttl}
}

func (s *RedisStore) key() string {
	return keyPrefix + s.id
}

func (s *RedisStore) get(ctx context.Context, field string) (string, bool, error) {
	v, err := s.client.HGet(ctx, s.key(), field).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read session %s: %w", field, err)
	}
	return v, v != "", nil
}

func (s *RedisStore) write(ctx context.Context, fn func(redis.Pipeliner)) error {
	pipe := s.client.TxPipeline()
	fn(pipe)
	pipe.HSet(ctx, s.key(), fieldUpdatedAt, time.Now().Unix())
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

func (s *RedisStore) AccessToken(ctx context.Context) (string, bool, error) {
	return s.get(ctx, fieldAccess)
}

func (s *RedisStore) RefreshToken(ctx context.Context) (string, bool, error) {
	return s.get(ctx, fieldRefresh)
}

func (s *RedisStore) SetAccessToken(ctx context.Context, token string) error {
	return s.write(ctx, func(p redis.Pipeliner) {
		p.HSet(ctx, s.key(), fieldAccess, token)
	})
}

func (s *RedisStore) ClearAccessToken(ctx context.Context) error {
	return s.write(ctx, func(p redis.Pipeliner) {
		p.HDel(ctx, s.key(), fieldAccess)
	})
}

// Seed writes the non-empty fields of pair.
func (s *RedisStore) Seed(ctx context.Context, pair Pair) error {
	fields := map[string]any{}
	if pair.AccessToken != "" {
		fields[fieldAccess] = pair.AccessToken
	}
	if pair.RefreshToken != "" {
		fields[fieldRefresh] = pair.RefreshToken
	}
	if len(fields) == 0 {
		return nil
	}
	return s.write(ctx, func(p redis.Pipeliner) {
		p.HSet(ctx, s.key(), fields)
	})
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
