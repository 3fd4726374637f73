package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/parley/pkg/domain"
)

// Source implements ports.SequenceSource using an in-memory map.
type Source struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewSource creates a new Source with the provided raw JSON documents keyed by sequence id.
func NewSource(data map[string]string) *Source {
	docs := make(map[string][]byte)
	for k, v := range data {
		docs[k] = []byte(v)
	}
	return &Source{docs: docs}
}

// NewFromSequences creates a new Source from domain objects.
// This handles serialization automatically, improving DX for tests.
func NewFromSequences(sequences ...domain.Sequence) (*Source, error) {
	s := &Source{docs: make(map[string][]byte)}
	for _, seq := range sequences {
		if err := s.Put(seq); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Put adds or replaces a sequence.
func (s *Source) Put(seq domain.Sequence) error {
	if seq.ID == "" {
		return fmt.Errorf("sequence missing ID")
	}
	bytes, err := json.Marshal(seq)
	if err != nil {
		return fmt.Errorf("failed to marshal sequence %s: %w", seq.ID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[seq.ID] = bytes
	return nil
}

// Fetch returns the raw JSON document of a sequence.
func (s *Source) Fetch(ctx context.Context, sequenceID string) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	content, ok := s.docs[sequenceID]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", domain.ErrSequenceNotFound, sequenceID)
	}
	return content, "json", nil
}

// List returns all available sequence ids.
func (s *Source) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.docs))
	for k := range s.docs {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}
