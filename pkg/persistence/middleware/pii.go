package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/parley/pkg/ports"
)

// Masked replaces the value of every redacted path.
const Masked = "***"

type redactMiddleware struct {
	next     ports.KeyValueStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware creates a middleware that masks, on read, the values of paths
// matching any of the patterns. Writes pass through untouched, so the view is meant
// for surfaces that expose the store (HTTP, event streams), not for the engine itself.
func NewRedactMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redact pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.KeyValueStore) ports.KeyValueStore {
		return &redactMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *redactMiddleware) Get(ctx context.Context, path string) (any, bool, error) {
	value, ok, err := m.next.Get(ctx, path)
	if err != nil || !ok {
		return value, ok, err
	}
	if m.matches(path) {
		return Masked, true, nil
	}
	return value, true, nil
}

func (m *redactMiddleware) Set(ctx context.Context, path string, value any) error {
	return m.next.Set(ctx, path, value)
}

func (m *redactMiddleware) Has(ctx context.Context, path string) (bool, error) {
	return m.next.Has(ctx, path)
}

func (m *redactMiddleware) Delete(ctx context.Context, path string) error {
	return m.next.Delete(ctx, path)
}

func (m *redactMiddleware) GetAll(ctx context.Context) (map[string]any, error) {
	all, err := m.next.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	maskMap(all, m.patterns)
	return all, nil
}

func (m *redactMiddleware) Clear(ctx context.Context) error {
	return m.next.Clear(ctx)
}

func (m *redactMiddleware) matches(path string) bool {
	for _, p := range m.patterns {
		if p.MatchString(path) {
			return true
		}
	}
	return false
}

// maskMap works in place; GetAll snapshots are owned by the caller.
func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k := range m {
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = Masked
				break
			}
		}
	}
}
