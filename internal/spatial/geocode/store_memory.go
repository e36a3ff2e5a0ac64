package geocode

import (
	"context"
	"sync"
)

// MemoryStore is an in-process cache for resolved municipality names.
// Municipality codes are stable, so entries never expire.
type MemoryStore struct {
	mu    sync.RWMutex
	names map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{names: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, code string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.names[code]
	return name, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, code, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names[code] = name
	return nil
}
