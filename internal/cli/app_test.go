package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/parley/internal/config"
	"github.com/aretw0/parley/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetermineEntryPoint(t *testing.T) {
	createDir := func(t *testing.T, files []string) string {
		dir := t.TempDir()
		for _, f := range files {
			err := os.WriteFile(filepath.Join(dir, f), []byte("{}"), 0644)
			require.NoError(t, err)
		}
		return dir
	}

	t.Run("Default to start if exists", func(t *testing.T) {
		dir := createDir(t, []string{"start.json", "main.yaml"})
		assert.Equal(t, "start", determineEntryPoint(dir))
	})

	t.Run("Fallback to main", func(t *testing.T) {
		dir := createDir(t, []string{"main.yaml", "welcome.json"})
		assert.Equal(t, "main", determineEntryPoint(dir))
	})

	t.Run("Fallback to welcome", func(t *testing.T) {
		dir := createDir(t, []string{"welcome.yml", "other.json"})
		assert.Equal(t, "welcome", determineEntryPoint(dir))
	})

	t.Run("Fallback to DirectoryName", func(t *testing.T) {
		moduleDir := filepath.Join(t.TempDir(), "checkout")
		require.NoError(t, os.Mkdir(moduleDir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(moduleDir, "checkout.json"), []byte("{}"), 0644))

		assert.Equal(t, "checkout", determineEntryPoint(moduleDir))
	})

	t.Run("Default to start if nothing matches", func(t *testing.T) {
		dir := createDir(t, []string{"other.json"})
		assert.Equal(t, "start", determineEntryPoint(dir))
	})
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	cfg, err := config.Default()
	require.NoError(t, err)

	for _, backend := range []string{"memory", "file", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			cfg.Store.Backend = backend
			cfg.Store.Path = filepath.Join(t.TempDir(), "store."+backend)

			store, closeStore, err := OpenStore(ctx, cfg)
			require.NoError(t, err)
			defer closeStore()

			require.NoError(t, store.Set(ctx, "user.name", "Ada"))
			v, ok, err := store.Get(ctx, "user.name")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "Ada", v)
		})
	}

	cfg.Store.Backend = "etcd"
	_, _, err = OpenStore(ctx, cfg)
	assert.Error(t, err)
}

func TestOpenStore_Encrypted(t *testing.T) {
	ctx := context.Background()
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Store.Backend = "file"
	cfg.Store.Path = filepath.Join(t.TempDir(), "store.json")
	cfg.Store.EncryptionKey = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))

	store, closeStore, err := OpenStore(ctx, cfg)
	require.NoError(t, err)
	defer closeStore()
	require.NoError(t, store.Set(ctx, "user.name", "Ada"))

	v, _, err := store.Get(ctx, "user.name")
	require.NoError(t, err)
	assert.Equal(t, "Ada", v)

	data, err := os.ReadFile(cfg.Store.Path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "Ada")

	cfg.Store.EncryptionKey = "c2hvcnQ="
	_, _, err = OpenStore(ctx, cfg)
	assert.Error(t, err)
}

func TestNewApp(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Sequences.Dir = writeSequences(t)

	app, err := NewApp(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	defer app.Close()

	turn, err := app.Engine.Start(context.Background(), "start")
	require.NoError(t, err)
	assert.NotEmpty(t, turn.Entries)
}

func TestNewApp_Triggers(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Sequences.Dir = writeSequences(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Sequences.Dir, "notify.json"), []byte(`{
  "sequenceId": "notify",
  "messages": [
    {"id": 1, "type": "dataAction", "actions": [{"type": "trigger", "event": "refresh_notifications", "data": {"who": "hi {user.name|you}"}}], "nextMessageId": 2},
    {"id": 2, "type": "text", "text": "Done."}
  ]
}`), 0o644))

	app, err := NewApp(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	defer app.Close()

	var got map[string]any
	app.Triggers.Register("refresh_notifications", func(ctx context.Context, data map[string]any) error {
		got = data
		return nil
	})

	_, err = app.Engine.Start(context.Background(), "notify")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"who": "hi you"}, got)
}
