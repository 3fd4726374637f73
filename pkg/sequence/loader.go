package sequence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"golang.org/x/sync/singleflight"
)

// ErrNotWatchable is returned by Watch when the source cannot report changes.
var ErrNotWatchable = errors.New("sequence source does not support watching")

// Loader loads sequences from a source on first use and caches them for the process
// lifetime. Cached sequences are shared and must be treated as read-only.
type Loader struct {
	source ports.SequenceSource
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string]*domain.Sequence
	group singleflight.Group
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for validation warnings and reloads.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a Loader reading from source.
func NewLoader(source ports.SequenceSource, opts ...Option) *Loader {
	l := &Loader{
		source: source,
		logger: logging.NewNop(),
		cache:  make(map[string]*domain.Sequence),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the sequence with the given id, loading it on first use.
// Concurrent first loads of the same id share one fetch.
func (l *Loader) Load(ctx context.Context, id string) (*domain.Sequence, error) {
	l.mu.RLock()
	seq, ok := l.cache[id]
	l.mu.RUnlock()
	if ok {
		return seq, nil
	}

	v, err, _ := l.group.Do(id, func() (any, error) {
		seq, err := l.load(ctx, id)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.cache[id] = seq
		l.mu.Unlock()
		return seq, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Sequence), nil
}

func (l *Loader) load(ctx context.Context, id string) (*domain.Sequence, error) {
	data, format, err := l.source.Fetch(ctx, id)
	if err != nil {
		kind := domain.ErrLoad
		if errors.Is(err, domain.ErrSequenceNotFound) {
			kind = domain.ErrAssetNotFound
		}
		return nil, domain.NewScriptError(kind, id, nil, err)
	}

	seq, err := Decode(data, format)
	if err != nil {
		return nil, domain.NewScriptError(domain.ErrInvalidFormat, id, nil, err)
	}
	if seq.ID == "" {
		seq.ID = id
	}
	if seq.ID != id {
		return nil, domain.NewScriptError(domain.ErrAssetValidation, id, nil,
			fmt.Errorf("document declares sequenceId %q", seq.ID))
	}

	warnings, err := Validate(seq)
	if err != nil {
		return nil, domain.NewScriptError(domain.ErrAssetValidation, id, nil, err)
	}
	for _, w := range warnings {
		l.logger.Warn("sequence warning", "sequence_id", id, "message_id", w.MessageID, "detail", w.Detail)
	}

	seq.BuildIndex()
	l.logger.Debug("sequence loaded", "sequence_id", id, "messages", len(seq.Messages))
	return seq, nil
}

// LoadAll loads every sequence the source lists. It stops at the first failure.
func (l *Loader) LoadAll(ctx context.Context) ([]*domain.Sequence, error) {
	ids, err := l.source.List(ctx)
	if err != nil {
		return nil, domain.NewScriptError(domain.ErrLoad, "", nil, err)
	}
	out := make([]*domain.Sequence, 0, len(ids))
	for _, id := range ids {
		seq, err := l.Load(ctx, id)
		if err != nil {
			return out, err
		}
		out = append(out, seq)
	}
	return out, nil
}

// Invalidate drops a cached sequence so the next Load reads it again.
func (l *Loader) Invalidate(id string) {
	l.mu.Lock()
	delete(l.cache, id)
	l.mu.Unlock()
	l.group.Forget(id)
}

// Watch invalidates sequences as the source reports changes. It blocks until ctx is done
// or the source stops watching.
func (l *Loader) Watch(ctx context.Context) error {
	w, ok := l.source.(ports.Watchable)
	if !ok {
		return ErrNotWatchable
	}
	changes, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	for id := range changes {
		l.Invalidate(id)
		l.logger.Info("sequence changed, cache invalidated", "sequence_id", id)
	}
	return ctx.Err()
}
