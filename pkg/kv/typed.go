package kv

import (
	"context"

	"github.com/aretw0/parley/pkg/ports"
)

// String reads a string value. Non-string values are a mismatch.
func String(ctx context.Context, store ports.KeyValueStore, path string) (string, bool) {
	v, ok := lookup(ctx, store, path)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Int reads a whole number. Fractional floats and strings are a mismatch.
func Int(ctx context.Context, store ports.KeyValueStore, path string) (int64, bool) {
	v, ok := lookup(ctx, store, path)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}

// Float reads any numeric value.
func Float(ctx context.Context, store ports.KeyValueStore, path string) (float64, bool) {
	v, ok := lookup(ctx, store, path)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// Bool reads a boolean value.
func Bool(ctx context.Context, store ports.KeyValueStore, path string) (bool, bool) {
	v, ok := lookup(ctx, store, path)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// List reads a list value. The returned slice is a copy.
func List(ctx context.Context, store ports.KeyValueStore, path string) ([]any, bool) {
	v, ok := lookup(ctx, store, path)
	if !ok {
		return nil, false
	}
	l, ok := v.([]any)
	if !ok {
		return nil, false
	}
	return Clone(l).([]any), true
}

// lookup swallows backend errors: typed reads never fail, they report absence.
func lookup(ctx context.Context, store ports.KeyValueStore, path string) (any, bool) {
	v, ok, err := store.Get(ctx, path)
	if err != nil || !ok {
		return nil, false
	}
	return v, true
}
