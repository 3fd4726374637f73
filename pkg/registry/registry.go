package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/parley/pkg/domain"
)

// Handler reacts to one trigger event, e.g. by rescheduling notifications.
type Handler func(ctx context.Context, data map[string]any) error

// Registry routes trigger events to the handlers registered under their name.
// It implements ports.EventSink.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	fallback Handler
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds a handler for the named event.
// If a handler with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = fn
}

// Fallback sets the handler for events nobody registered. The event name is
// available as data["event"].
func (r *Registry) Fallback(fn Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = fn
}

// Names returns the registered event names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Emit looks up the handler for the event and executes it.
// Returns an error if neither a handler nor a fallback is registered.
func (r *Registry) Emit(ctx context.Context, event domain.TriggerEvent) error {
	r.mu.RLock()
	fn, ok := r.handlers[event.Name]
	fallback := r.fallback
	r.mu.RUnlock()

	if ok {
		return fn(ctx, event.Data)
	}
	if fallback == nil {
		return fmt.Errorf("no handler for trigger event: %s", event.Name)
	}

	data := make(map[string]any, len(event.Data)+1)
	for k, v := range event.Data {
		data[k] = v
	}
	data["event"] = event.Name
	return fallback(ctx, data)
}
