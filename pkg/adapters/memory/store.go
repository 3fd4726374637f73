package memory

import (
	"context"
	"sync"

	"github.com/aretw0/parley/pkg/kv"
)

// Store implements ports.KeyValueStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]any
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store, optionally seeded with values.
func NewStore(seed ...map[string]any) *Store {
	s := &Store{data: make(map[string]any)}
	for _, m := range seed {
		for k, v := range m {
			if n, err := kv.Normalize(v); err == nil && n != nil {
				s.data[k] = n
			}
		}
	}
	return s
}

// Get returns a copy of the stored value so callers can't mutate store state by reference.
func (s *Store) Get(ctx context.Context, path string) (any, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[path]
	if !ok {
		return nil, false, nil
	}
	return kv.Clone(v), true, nil
}

// Set stores a normalised copy of value. nil deletes.
func (s *Store) Set(ctx context.Context, path string, value any) error {
	n, err := kv.Normalize(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if n == nil {
		delete(s.data, path)
		return nil
	}
	s.data[path] = n
	return nil
}

// Has reports whether path exists.
func (s *Store) Has(ctx context.Context, path string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[path]
	return ok, nil
}

// Delete removes path.
func (s *Store) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, path)
	return nil
}

// GetAll returns a snapshot of every path.
func (s *Store) GetAll(ctx context.Context) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any, len(s.data))
	for k, v := range s.data {
		out[k] = kv.Clone(v)
	}
	return out, nil
}

// Clear removes every path.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]any)
	return nil
}
