package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/parley/pkg/kv"
	backend "github.com/redis/go-redis/v9"
)

// Store implements ports.KeyValueStore using a single Redis hash.
// Each store path is a hash field holding the JSON encoding of its value.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL expires the whole store after ttl without writes.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix, which lets several users share one Redis database.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "parley:",
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *Store) key() string {
	return s.prefix + "store"
}

// Get retrieves a value from the hash.
func (s *Store) Get(ctx context.Context, path string) (any, bool, error) {
	val, err := s.client.HGet(ctx, s.key(), path).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get from redis: %w", err)
	}

	v, err := kv.Decode([]byte(val))
	if err != nil {
		return nil, false, fmt.Errorf("path %s: %w", path, err)
	}
	return v, true, nil
}

// Set writes a value. nil deletes the field.
func (s *Store) Set(ctx context.Context, path string, value any) error {
	if value == nil {
		return s.Delete(ctx, path)
	}
	data, err := kv.Encode(value)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, s.key(), path, data)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Has reports whether the field exists.
func (s *Store) Has(ctx context.Context, path string) (bool, error) {
	ok, err := s.client.HExists(ctx, s.key(), path).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check redis field: %w", err)
	}
	return ok, nil
}

// Delete removes the field.
func (s *Store) Delete(ctx context.Context, path string) error {
	if err := s.client.HDel(ctx, s.key(), path).Err(); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

// GetAll returns every field of the hash.
func (s *Store) GetAll(ctx context.Context) (map[string]any, error) {
	raw, err := s.client.HGetAll(ctx, s.key()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read redis store: %w", err)
	}

	out := make(map[string]any, len(raw))
	for path, val := range raw {
		v, err := kv.Decode([]byte(val))
		if err != nil {
			return nil, fmt.Errorf("path %s: %w", path, err)
		}
		out[path] = v
	}
	return out, nil
}

// Clear drops the hash.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key()).Err(); err != nil {
		return fmt.Errorf("failed to clear redis store: %w", err)
	}
	return nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
