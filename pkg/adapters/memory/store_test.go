package memory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunKeyValueStoreContract(t, store)
}

func TestMemoryStore_Seed(t *testing.T) {
	store := memory.NewStore(map[string]any{"user.age": 30.0, "user.name": "Ana"})

	v, ok, err := store.Get(context.Background(), "user.age")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(30), v)
}

func TestMemoryStore_RejectsUnsupportedValues(t *testing.T) {
	store := memory.NewStore()
	err := store.Set(context.Background(), "user.profile", struct{}{})
	assert.Error(t, err)
}

func TestMemoryStore_ConcurrentWrites(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.Set(ctx, "debug.last", i))
			_, _, _ = store.Get(ctx, "debug.last")
		}(i)
	}
	wg.Wait()

	has, err := store.Has(ctx, "debug.last")
	require.NoError(t, err)
	assert.True(t, has)
}
