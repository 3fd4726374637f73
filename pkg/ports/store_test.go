package ports_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/parley/pkg/kv"
	"github.com/aretw0/parley/pkg/ports"
)

// MockStore is a minimal map-backed KeyValueStore used to validate the contract suite itself.
type MockStore struct {
	mu   sync.Mutex
	data map[string]any
}

func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string]any)}
}

func (m *MockStore) Get(ctx context.Context, path string) (any, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[path]
	return kv.Clone(v), ok, nil
}

func (m *MockStore) Set(ctx context.Context, path string, value any) error {
	n, err := kv.Normalize(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if n == nil {
		delete(m.data, path)
		return nil
	}
	m.data[path] = n
	return nil
}

func (m *MockStore) Has(ctx context.Context, path string) (bool, error) {
	_, ok, err := m.Get(ctx, path)
	return ok, err
}

func (m *MockStore) Delete(ctx context.Context, path string) error {
	return m.Set(ctx, path, nil)
}

func (m *MockStore) GetAll(ctx context.Context) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]any, len(m.data))
	for k, v := range m.data {
		out[k] = kv.Clone(v)
	}
	return out, nil
}

func (m *MockStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]any)
	return nil
}

func TestKeyValueStore_Contract(t *testing.T) {
	ports.RunKeyValueStoreContract(t, NewMockStore())
}
