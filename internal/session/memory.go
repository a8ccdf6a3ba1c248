package session

import (
	"context"
	"sync"
)

// MemoryStore keeps the pair in process memory, guarded by a mutex.
type MemoryStore struct {
	mu   sync.RWMutex
	pair Pair
}

// NewMemoryStore creates a store holding pair.
func NewMemoryStore(pair Pair) *MemoryStore {
	return &MemoryStore{pair: pair}
}

func (s *MemoryStore) AccessToken(_ context.Context) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair.AccessToken, s.pair.AccessToken != "", nil
}

func (s *MemoryStore) RefreshToken(_ context.Context) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair.RefreshToken, s.pair.RefreshToken != "", nil
}

func (s *MemoryStore) SetAccessToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair.AccessToken = token
	return nil
}

func (s *MemoryStore) ClearAccessToken(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair.AccessToken = ""
	return nil
}

// Snapshot returns a copy of the current pair.
func (s *MemoryStore) Snapshot() Pair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair
}
