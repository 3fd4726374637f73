package ports

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunKeyValueStoreContract runs a suite of tests to verify that a KeyValueStore implementation
// adheres to the defined interface contract. The store must be empty when passed in.
func RunKeyValueStoreContract(t *testing.T, store KeyValueStore) {
	ctx := context.Background()

	t.Run("Set and Get", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "user.name", "Bob"))
		require.NoError(t, store.Set(ctx, "session.visitCount", 3))
		require.NoError(t, store.Set(ctx, "task.isActiveDay", true))
		require.NoError(t, store.Set(ctx, "debug.ratio", 0.5))

		v, ok, err := store.Get(ctx, "user.name")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "Bob", v)

		// Numbers are normalised so every backend answers the same type.
		v, _, err = store.Get(ctx, "session.visitCount")
		require.NoError(t, err)
		assert.Equal(t, int64(3), v)

		v, _, _ = store.Get(ctx, "task.isActiveDay")
		assert.Equal(t, true, v)

		v, _, _ = store.Get(ctx, "debug.ratio")
		assert.Equal(t, 0.5, v)
	})

	t.Run("Lists", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "user.skills", []string{"Flutter", "Dart"}))

		v, ok, err := store.Get(ctx, "user.skills")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []any{"Flutter", "Dart"}, v)

		// Mutating the returned slice must not leak into the store.
		v.([]any)[0] = "Mutated"
		again, _, _ := store.Get(ctx, "user.skills")
		assert.Equal(t, []any{"Flutter", "Dart"}, again)
	})

	t.Run("Missing Key", func(t *testing.T) {
		v, ok, err := store.Get(ctx, "nobody.home")
		require.NoError(t, err, "missing keys are not errors")
		assert.False(t, ok)
		assert.Nil(t, v)

		has, err := store.Has(ctx, "nobody.home")
		require.NoError(t, err)
		assert.False(t, has)
	})

	t.Run("Set Nil Deletes", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "temp.value", "x"))
		require.NoError(t, store.Set(ctx, "temp.value", nil))

		has, err := store.Has(ctx, "temp.value")
		require.NoError(t, err)
		assert.False(t, has)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "temp.other", "x"))
		require.NoError(t, store.Delete(ctx, "temp.other"))
		require.NoError(t, store.Delete(ctx, "temp.other"), "deleting twice is fine")

		_, ok, err := store.Get(ctx, "temp.other")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("GetAll and Clear", func(t *testing.T) {
		all, err := store.GetAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Bob", all["user.name"])
		assert.Equal(t, int64(3), all["session.visitCount"])

		require.NoError(t, store.Clear(ctx))
		all, err = store.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}
