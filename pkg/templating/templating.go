// Package templating expands {path} and {path|fallback} tokens in message text using values
// from the key/value store.
package templating

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/kv"
	"github.com/aretw0/parley/pkg/ports"
)

// tokenPattern matches {path} and {path|fallback}. The fallback runs to the first closing
// brace, so a "{" inside it is literal text.
var tokenPattern = regexp.MustCompile(`\{\s*([A-Za-z_][A-Za-z0-9_.\-]*)\s*(?:\|([^}]*))?\}`)

// Service resolves template tokens against a store.
type Service struct {
	store  ports.KeyValueStore
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used to report lookup failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New creates a templating service reading from store.
func New(store ports.KeyValueStore, opts ...Option) *Service {
	s := &Service{store: store, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process substitutes every token in text. Unknown paths without a fallback, and anything
// that fails to resolve, are left verbatim.
func (s *Service) Process(ctx context.Context, text string) string {
	out, err := s.Render(ctx, text)
	if err != nil {
		s.logger.Warn("template left unresolved", "template", text, "err", err)
	}
	return out
}

// Render is Process with the first lookup failure reported as a templateError.
// The returned text is always usable.
func (s *Service) Render(ctx context.Context, text string) (string, error) {
	if !strings.Contains(text, "{") {
		return text, nil
	}

	var firstErr error
	out := tokenPattern.ReplaceAllStringFunc(text, func(token string) string {
		m := tokenPattern.FindStringSubmatch(token)
		path := m[1]
		hasFallback := strings.Contains(token[:len(token)-1], "|")

		value, found, err := s.store.Get(ctx, path)
		if err != nil {
			if firstErr == nil {
				firstErr = &domain.ScriptError{Kind: domain.ErrTemplate, Template: text, Err: err}
			}
			return token
		}
		if found {
			return kv.Format(value)
		}
		if hasFallback {
			return m[2]
		}
		return token
	})
	return out, firstErr
}

// ProcessMessage returns a copy of msg with its text, placeholder and choice texts expanded.
func (s *Service) ProcessMessage(ctx context.Context, msg domain.Message) domain.Message {
	msg.Text = s.Process(ctx, msg.Text)
	msg.Placeholder = s.Process(ctx, msg.Placeholder)
	if len(msg.Choices) > 0 {
		choices := make([]domain.Choice, len(msg.Choices))
		for i, c := range msg.Choices {
			c.Text = s.Process(ctx, c.Text)
			choices[i] = c
		}
		msg.Choices = choices
	}
	return msg
}

// Reference reports whether text is exactly one token without fallback, e.g. "{user.name}",
// and returns its path.
func Reference(text string) (string, bool) {
	text = strings.TrimSpace(text)
	loc := tokenPattern.FindStringSubmatchIndex(text)
	if loc == nil || loc[0] != 0 || loc[1] != len(text) || loc[4] != -1 {
		return "", false
	}
	return text[loc[2]:loc[3]], true
}
