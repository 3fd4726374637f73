package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/config"
	"github.com/aretw0/parley/pkg/adapters/file"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/adapters/redis"
	"github.com/aretw0/parley/pkg/adapters/sqlite"
	"github.com/aretw0/parley/pkg/persistence/middleware"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/registry"
)

// App bundles an engine with the resources it was built from.
type App struct {
	Config *config.Config
	Engine *parley.Engine
	Store  ports.KeyValueStore
	Source *file.Source
	Logger *slog.Logger

	// Triggers receives the trigger actions of every script. Unregistered events are logged.
	Triggers *registry.Registry

	closeStore func() error
}

// NewApp builds the store, the sequence source and the engine described by cfg.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, extra ...parley.Option) (*App, error) {
	store, closeStore, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	source := file.NewSource(cfg.Sequences.Dir, file.WithLogger(logger))
	triggers := registry.NewRegistry()
	triggers.Fallback(func(ctx context.Context, data map[string]any) error {
		logger.Info("trigger event", "event", data["event"], "data", data)
		return nil
	})
	opts := []parley.Option{
		parley.WithLogger(logger),
		parley.WithEventSink(triggers),
		parley.WithDelayPolicy(cfg.DelayPolicy()),
		parley.WithSessionOptions(cfg.SessionOptions()...),
		parley.WithMaxTransitions(cfg.MaxTransitions),
		parley.WithMaxInputSize(cfg.MaxInputSize),
	}
	engine, err := parley.New(source, store, append(opts, extra...)...)
	if err != nil {
		_ = closeStore()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}

	return &App{
		Config:     cfg,
		Engine:     engine,
		Store:      store,
		Source:     source,
		Logger:     logger,
		Triggers:   triggers,
		closeStore: closeStore,
	}, nil
}

// Close stops pending deliveries and releases the store.
func (a *App) Close() error {
	a.Engine.Close()
	return a.closeStore()
}

// OpenStore creates the key/value store selected by cfg.Store.Backend,
// wrapped with encryption when a key is configured.
func OpenStore(ctx context.Context, cfg *config.Config) (ports.KeyValueStore, func() error, error) {
	store, closeStore, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Store.EncryptionKey == "" {
		return store, closeStore, nil
	}

	mw, err := encryptionMiddleware(cfg.Store)
	if err != nil {
		_ = closeStore()
		return nil, nil, err
	}
	return mw(store), closeStore, nil
}

func encryptionMiddleware(sc config.StoreConfig) (middleware.Middleware, error) {
	active, err := middleware.ParseKey(sc.EncryptionKey)
	if err != nil {
		return nil, err
	}
	enc := middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range sc.FallbackKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return nil, fmt.Errorf("fallback key %d: %w", i, err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}
	return middleware.NewEncryptionMiddleware(enc)
}

func openBackend(ctx context.Context, cfg *config.Config) (ports.KeyValueStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Store.Backend {
	case "memory":
		return memory.NewStore(), noop, nil
	case "file":
		return file.NewStore(cfg.Store.Path), noop, nil
	case "redis":
		rc := cfg.Store.Redis
		opts := []redis.Option{redis.WithPrefix(rc.Prefix)}
		if rc.TTL > 0 {
			opts = append(opts, redis.WithTTL(rc.TTL))
		}
		store := redis.New(rc.Addr, rc.Password, rc.DB, opts...)
		return store, store.Close, nil
	case "sqlite":
		store, err := sqlite.Open(ctx, cfg.Store.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store %s: %w", cfg.Store.Path, err)
		}
		return store, store.Close, nil
	}
	return nil, nil, errors.New("unknown store backend: " + cfg.Store.Backend)
}

// determineEntryPoint picks the sequence to start when none is given:
// "start", then "main", then "welcome", then a sequence named after the directory.
func determineEntryPoint(dir string) string {
	candidates := []string{"start", "main", "welcome"}
	if abs, err := filepath.Abs(dir); err == nil {
		candidates = append(candidates, filepath.Base(abs))
	}
	for _, id := range candidates {
		if hasSequence(dir, id) {
			return id
		}
	}
	return "start"
}

// hasSequence checks if a sequence exists as a file in the directory.
func hasSequence(dir, sequenceID string) bool {
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		if _, err := os.Stat(filepath.Join(dir, sequenceID+ext)); err == nil {
			return true
		}
	}
	return false
}
