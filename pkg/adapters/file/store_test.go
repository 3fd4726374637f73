package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/parley/pkg/adapters/file"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ensure Store implements KeyValueStore
var _ ports.KeyValueStore = (*file.Store)(nil)

func TestFileStore_Contract(t *testing.T) {
	store := file.NewStore(filepath.Join(t.TempDir(), "store.json"))
	ports.RunKeyValueStoreContract(t, store)
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "store.json")
	ctx := context.Background()

	first := file.NewStore(path)
	require.NoError(t, first.Set(ctx, "user.name", "Bob"))
	require.NoError(t, first.Set(ctx, "session.visitCount", 2))
	require.NoError(t, first.Set(ctx, "user.skills", []string{"Flutter", "Dart"}))

	second := file.NewStore(path)
	name, ok, err := second.Get(ctx, "user.name")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Bob", name)

	count, _, _ := second.Get(ctx, "session.visitCount")
	assert.Equal(t, int64(2), count, "numbers survive the JSON round trip as int64")

	skills, _, _ := second.Get(ctx, "user.skills")
	assert.Equal(t, []any{"Flutter", "Dart"}, skills)

	// No temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	store := file.NewStore(path)
	_, _, err := store.Get(context.Background(), "user.name")
	assert.Error(t, err, "backend failures propagate instead of looking like a missing key")
}
