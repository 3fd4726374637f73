package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aretw0/parley/pkg/kv"
)

// Store implements ports.KeyValueStore using a single JSON file.
// The whole snapshot is kept in memory and rewritten atomically on every mutation.
type Store struct {
	Path string

	mu     sync.Mutex
	data   map[string]any
	loaded bool
}

// NewStore creates a new Store persisted at path.
// If path is empty, it defaults to ".parley/store.json".
func NewStore(path string) *Store {
	if path == "" {
		path = filepath.Join(".parley", "store.json")
	}
	return &Store{Path: path}
}

// ensureLoaded reads the snapshot from disk once. The caller must hold s.mu.
func (s *Store) ensureLoaded() error {
	if s.loaded {
		return nil
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			s.data = make(map[string]any)
			s.loaded = true
			return nil
		}
		return fmt.Errorf("failed to read store file: %w", err)
	}
	if len(data) == 0 {
		s.data = make(map[string]any)
		s.loaded = true
		return nil
	}
	snapshot, err := kv.DecodeMap(data)
	if err != nil {
		return fmt.Errorf("failed to parse store file %s: %w", s.Path, err)
	}
	s.data = snapshot
	s.loaded = true
	return nil
}

// flush persists the snapshot atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
// The caller must hold s.mu.
func (s *Store) flush() error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure store directory: %w", err)
	}

	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	// Same directory so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(dir, "tmp-store-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Cannot rename an open file on Windows.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Get returns the value stored at path.
func (s *Store) Get(ctx context.Context, path string) (any, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return nil, false, err
	}
	v, ok := s.data[path]
	if !ok {
		return nil, false, nil
	}
	return kv.Clone(v), true, nil
}

// Set stores value at path and persists the snapshot. nil deletes.
func (s *Store) Set(ctx context.Context, path string, value any) error {
	n, err := kv.Normalize(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	if n == nil {
		if _, ok := s.data[path]; !ok {
			return nil
		}
		delete(s.data, path)
	} else {
		s.data[path] = n
	}
	return s.flush()
}

// Has reports whether path exists.
func (s *Store) Has(ctx context.Context, path string) (bool, error) {
	_, ok, err := s.Get(ctx, path)
	return ok, err
}

// Delete removes path.
func (s *Store) Delete(ctx context.Context, path string) error {
	return s.Set(ctx, path, nil)
}

// GetAll returns a snapshot of every path.
func (s *Store) GetAll(ctx context.Context) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	out := make(map[string]any, len(s.data))
	for k, v := range s.data {
		out[k] = kv.Clone(v)
	}
	return out, nil
}

// Clear removes every path and the backing file.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]any)
	s.loaded = true
	if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete store file: %w", err)
	}
	return nil
}
