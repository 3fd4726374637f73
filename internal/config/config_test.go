package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "./sequences", cfg.Sequences.Dir)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "localhost:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, 1200*time.Millisecond, cfg.Delay.Choice)
	assert.Equal(t, 5*time.Second, cfg.Delay.Max)
	assert.Equal(t, "09:00", cfg.Session.DayStart)
	assert.Equal(t, "21:00", cfg.Session.Deadline)
	assert.True(t, cfg.Session.AssumeActive)
	assert.Equal(t, 8, cfg.MaxTransitions)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := writeFile(t, "parley.yaml", `
sequences:
  dir: ./scripts
  watch: true
store:
  backend: sqlite
  path: data.db
delay:
  instant: true
session:
  deadline: "20:30"
  assumeActiveWhenUnconfigured: false
log:
  level: debug
`)
	cfg, err := Load(path, writeFile(t, "empty.env", ""))
	require.NoError(t, err)

	assert.Equal(t, "./scripts", cfg.Sequences.Dir)
	assert.True(t, cfg.Sequences.Watch)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "data.db", cfg.Store.Path)
	assert.True(t, cfg.Delay.Instant)
	assert.Equal(t, "20:30", cfg.Session.Deadline)
	assert.Equal(t, "09:00", cfg.Session.DayStart)
	assert.False(t, cfg.Session.AssumeActive)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "parley.yaml", "store:\n  backend: file\n")
	t.Setenv("PARLEY_STORE_BACKEND", "redis")
	t.Setenv("PARLEY_REDIS_DB", "3")
	t.Setenv("PARLEY_REDIS_TTL", "1h")
	t.Setenv("PARLEY_INSTANT", "true")

	cfg, err := Load(path, writeFile(t, "empty.env", ""))
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, 3, cfg.Store.Redis.DB)
	assert.Equal(t, time.Hour, cfg.Store.Redis.TTL)
	assert.True(t, cfg.Delay.Instant)
}

func TestLoad_EnvFile(t *testing.T) {
	envFile := writeFile(t, "test.env", "PARLEY_LOG_FORMAT=json\nPARLEY_MAX_TRANSITIONS=2\n")
	t.Cleanup(func() {
		os.Unsetenv("PARLEY_LOG_FORMAT")
		os.Unsetenv("PARLEY_MAX_TRANSITIONS")
	})

	cfg, err := Load("", envFile)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 2, cfg.MaxTransitions)
}

func TestLoad_Errors(t *testing.T) {
	empty := func(t *testing.T) string { return writeFile(t, "empty.env", "") }

	t.Run("unknown field", func(t *testing.T) {
		_, err := Load(writeFile(t, "c.yaml", "nope: 1\n"), empty(t))
		assert.Error(t, err)
	})
	t.Run("bad backend", func(t *testing.T) {
		_, err := Load(writeFile(t, "c.yaml", "store:\n  backend: etcd\n"), empty(t))
		assert.ErrorContains(t, err, "Backend")
	})
	t.Run("bad clock", func(t *testing.T) {
		_, err := Load(writeFile(t, "c.yaml", "session:\n  deadline: \"25:00\"\n"), empty(t))
		assert.ErrorContains(t, err, "clock")
	})
	t.Run("max below min", func(t *testing.T) {
		_, err := Load(writeFile(t, "c.yaml", "delay:\n  min: 2s\n  max: 1s\n"), empty(t))
		assert.ErrorContains(t, err, "gtefield")
	})
	t.Run("bad encryption key", func(t *testing.T) {
		_, err := Load(writeFile(t, "c.yaml", "store:\n  encryptionKey: \"not base64!\"\n"), empty(t))
		assert.ErrorContains(t, err, "EncryptionKey")
	})
	t.Run("bad env value", func(t *testing.T) {
		t.Setenv("PARLEY_REDIS_DB", "three")
		_, err := Load("", empty(t))
		assert.ErrorContains(t, err, "PARLEY_REDIS_DB")
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), empty(t))
		assert.Error(t, err)
	})
}

func TestLoad_ExampleFile(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "examples", "parley.yaml"), writeFile(t, "empty.env", ""))
	require.NoError(t, err)

	assert.Equal(t, "examples/sequences", cfg.Sequences.Dir)
	assert.Equal(t, "file", cfg.Store.Backend)
	assert.Equal(t, []string{`^user\.name$`}, cfg.HTTP.Redact)
	assert.Equal(t, 1200*time.Millisecond, cfg.Delay.Choice)
}

func TestConfig_Builders(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.NotNil(t, cfg.DelayPolicy())
	assert.Len(t, cfg.SessionOptions(), 2)
}
