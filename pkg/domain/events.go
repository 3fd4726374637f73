package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventMessageEmit   EventType = "message_emit"
	EventTraversalStop EventType = "traversal_stop"
	EventActionApplied EventType = "action_applied"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp   time.Time `json:"timestamp"`
	Type        EventType `json:"type"`
	TraversalID string    `json:"traversal_id,omitempty"`
}

// MessageEvent is fired for every message added to a traversal result.
type MessageEvent struct {
	EventBase
	SequenceID string      `json:"sequence_id"`
	MessageID  int         `json:"message_id"`
	Kind       MessageKind `json:"kind"`
}

// StopEvent is fired once when a traversal returns.
type StopEvent struct {
	EventBase
	SequenceID       string     `json:"sequence_id"`
	Reason           StopReason `json:"reason"`
	TargetSequenceID string     `json:"target_sequence_id,omitempty"`
	Emitted          int        `json:"emitted"`
}

// ActionEvent is fired after a data action has been applied.
type ActionEvent struct {
	EventBase
	Action  ActionType `json:"action"`
	Key     string     `json:"key,omitempty"`
	IsError bool       `json:"is_error,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnMessageEmit   func(context.Context, *MessageEvent)
	OnTraversalStop func(context.Context, *StopEvent)
	OnActionApplied func(context.Context, *ActionEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnMessageEmit:   chain(h.OnMessageEmit, other.OnMessageEmit),
		OnTraversalStop: chain(h.OnTraversalStop, other.OnTraversalStop),
		OnActionApplied: chain(h.OnActionApplied, other.OnActionApplied),
	}
}

func chain[T any](a, b func(context.Context, T)) func(context.Context, T) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e T) {
		a(ctx, e)
		b(ctx, e)
	}
}

type traversalIDKey struct{}

// WithTraversalID returns a context carrying the id used to correlate events of one traversal.
func WithTraversalID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traversalIDKey{}, id)
}

// TraversalIDFrom returns the traversal id stored in ctx, if any.
func TraversalIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(traversalIDKey{}).(string)
	return id
}
