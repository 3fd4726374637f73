package ports

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
)

// EventSink receives trigger events emitted by data actions.
// The notification scheduler of the host app is the typical implementation.
type EventSink interface {
	Emit(ctx context.Context, event domain.TriggerEvent) error
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(ctx context.Context, event domain.TriggerEvent) error

// Emit calls f.
func (f EventSinkFunc) Emit(ctx context.Context, event domain.TriggerEvent) error {
	return f(ctx, event)
}
