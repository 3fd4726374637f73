// Package actions applies data actions (deferred side effects) to the key/value store.
package actions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/kv"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/templating"
	"github.com/spf13/cast"
)

var (
	errMissingKey   = errors.New("missing key")
	errMissingValue = errors.New("missing value")
)

// Processor applies actions strictly in order; later actions see the effects of earlier ones.
type Processor struct {
	store    ports.KeyValueStore
	template *templating.Service
	sink     ports.EventSink
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithTemplating sets the service used to expand templated values.
func WithTemplating(svc *templating.Service) Option {
	return func(p *Processor) {
		p.template = svc
	}
}

// WithEventSink sets the receiver of trigger actions. Without a sink triggers are dropped.
func WithEventSink(sink ports.EventSink) Option {
	return func(p *Processor) {
		p.sink = sink
	}
}

// WithHooks registers lifecycle hooks fired after every applied action.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(p *Processor) {
		p.hooks = hooks
	}
}

// New creates a Processor writing to store.
func New(store ports.KeyValueStore, opts ...Option) *Processor {
	p := &Processor{store: store, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	if p.template == nil {
		p.template = templating.New(store, templating.WithLogger(p.logger))
	}
	return p
}

// Process applies actions in list order. An empty list is a no-op. The first store or sink
// failure aborts the remaining actions and is returned as a processingError.
func (p *Processor) Process(ctx context.Context, actions []domain.DataAction) error {
	for _, action := range actions {
		if err := p.apply(ctx, action); err != nil {
			p.fire(ctx, action, true)
			return &domain.ScriptError{
				Kind: domain.ErrProcessing,
				Err:  fmt.Errorf("%s %q: %w", action.Type, action.Key, err),
			}
		}
	}
	return nil
}

func (p *Processor) apply(ctx context.Context, action domain.DataAction) error {
	if action.Type != domain.ActionTrigger && strings.TrimSpace(action.Key) == "" {
		p.logger.Warn("skipping data action", "type", action.Type, "err", errMissingKey)
		return nil
	}
	if action.Type == domain.ActionAppend && action.Value == nil {
		p.logger.Warn("skipping data action", "type", action.Type, "key", action.Key, "err", errMissingValue)
		return nil
	}

	var err error
	switch action.Type {
	case domain.ActionSet:
		err = p.set(ctx, action)
	case domain.ActionIncrement:
		err = p.add(ctx, action, 1)
	case domain.ActionDecrement:
		err = p.add(ctx, action, -1)
	case domain.ActionReset:
		err = p.reset(ctx, action)
	case domain.ActionAppend:
		err = p.append(ctx, action)
	case domain.ActionRemove:
		err = p.remove(ctx, action)
	case domain.ActionTrigger:
		err = p.trigger(ctx, action)
	default:
		p.logger.Warn("skipping unknown data action", "type", action.Type, "key", action.Key)
		return nil
	}
	if err != nil {
		return err
	}

	p.logger.Debug("data action applied", "type", action.Type, "key", action.Key)
	p.fire(ctx, action, false)
	return nil
}

func (p *Processor) set(ctx context.Context, action domain.DataAction) error {
	value, err := p.resolve(ctx, action.Value, false)
	if err != nil {
		return err
	}
	return p.store.Set(ctx, action.Key, value)
}

// add increments or decrements by the action's step (default 1). Absent or non-numeric
// current values count as 0.
func (p *Processor) add(ctx context.Context, action domain.DataAction, sign int64) error {
	stepValue, err := p.resolve(ctx, action.Value, true)
	if err != nil {
		return err
	}

	current, _, err := p.store.Get(ctx, action.Key)
	if err != nil {
		return err
	}

	curInt, curIsInt := asInt(current)
	stepInt, stepIsInt := asInt(stepValue)
	if stepValue == nil {
		stepInt, stepIsInt = 1, true
	}
	if current == nil || !isNumeric(current) {
		curInt, curIsInt = 0, true
		current = int64(0)
	}

	if curIsInt && stepIsInt {
		return p.store.Set(ctx, action.Key, curInt+sign*stepInt)
	}

	curFloat := cast.ToFloat64(current)
	stepFloat, err := cast.ToFloat64E(stepValue)
	if err != nil {
		p.logger.Warn("non-numeric step, using 1", "key", action.Key, "value", stepValue)
		stepFloat = 1
	}
	return p.store.Set(ctx, action.Key, curFloat+float64(sign)*stepFloat)
}

func (p *Processor) reset(ctx context.Context, action domain.DataAction) error {
	if action.Value == nil {
		return p.store.Set(ctx, action.Key, int64(0))
	}
	value, err := p.resolve(ctx, action.Value, false)
	if err != nil {
		return err
	}
	return p.store.Set(ctx, action.Key, value)
}

func (p *Processor) append(ctx context.Context, action domain.DataAction) error {
	value, err := p.resolve(ctx, action.Value, true)
	if err != nil {
		return err
	}
	list, err := p.list(ctx, action.Key)
	if err != nil {
		return err
	}
	return p.store.Set(ctx, action.Key, append(list, value))
}

// remove drops every element equal to the resolved value.
func (p *Processor) remove(ctx context.Context, action domain.DataAction) error {
	value, err := p.resolve(ctx, action.Value, true)
	if err != nil {
		return err
	}
	list, err := p.list(ctx, action.Key)
	if err != nil {
		return err
	}

	kept := make([]any, 0, len(list))
	target := kv.Format(value)
	for _, item := range list {
		if kv.Format(item) != target {
			kept = append(kept, item)
		}
	}
	return p.store.Set(ctx, action.Key, kept)
}

func (p *Processor) trigger(ctx context.Context, action domain.DataAction) error {
	name := action.Event
	if name == "" {
		name = action.Key
	}
	if name == "" {
		p.logger.Warn("skipping trigger without event name")
		return nil
	}
	if p.sink == nil {
		p.logger.Debug("no event sink configured, dropping trigger", "event", name)
		return nil
	}

	var data map[string]any
	if len(action.Data) > 0 {
		data = make(map[string]any, len(action.Data))
		for k, v := range action.Data {
			s, ok := v.(string)
			if !ok {
				data[k] = v
				continue
			}
			resolved, err := p.resolve(ctx, s, false)
			if err != nil {
				return err
			}
			data[k] = resolved
		}
	}
	return p.sink.Emit(ctx, domain.TriggerEvent{Name: name, Data: data})
}

// list reads the current list; absent or non-list values start empty.
func (p *Processor) list(ctx context.Context, key string) ([]any, error) {
	current, found, err := p.store.Get(ctx, key)
	if err != nil || !found {
		return []any{}, err
	}
	list, ok := current.([]any)
	if !ok {
		p.logger.Warn("replacing non-list value", "key", key, "value", current)
		return []any{}, nil
	}
	return list, nil
}

// resolve expands a raw action value. A whole "{path}" yields the stored value with its
// type intact; other strings go through templating. With shorthand enabled a bare dotted
// path that exists in the store also resolves to its value.
func (p *Processor) resolve(ctx context.Context, raw any, shorthand bool) (any, error) {
	s, ok := raw.(string)
	if !ok {
		if raw == nil {
			return nil, nil
		}
		return kv.Normalize(raw)
	}

	if path, ok := templating.Reference(s); ok {
		value, found, err := p.store.Get(ctx, path)
		if err != nil {
			return nil, err
		}
		if found {
			return value, nil
		}
	}
	if strings.Contains(s, "{") {
		return p.template.Render(ctx, s)
	}
	if shorthand && isDottedPath(s) {
		value, found, err := p.store.Get(ctx, s)
		if err != nil {
			return nil, err
		}
		if found {
			return value, nil
		}
	}
	return s, nil
}

func (p *Processor) fire(ctx context.Context, action domain.DataAction, isError bool) {
	if p.hooks.OnActionApplied == nil {
		return
	}
	p.hooks.OnActionApplied(ctx, &domain.ActionEvent{
		EventBase: domain.EventBase{
			Timestamp:   time.Now(),
			Type:        domain.EventActionApplied,
			TraversalID: domain.TraversalIDFrom(ctx),
		},
		Action:  action.Type,
		Key:     action.Key,
		IsError: isError,
	})
}

func isDottedPath(s string) bool {
	if !strings.Contains(s, ".") || strings.HasPrefix(s, ".") || strings.HasSuffix(s, ".") {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

func isNumeric(v any) bool {
	switch v.(type) {
	case int64, int, float64:
		return true
	}
	return false
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, err == nil
	}
	return 0, false
}
