package delivery

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"golang.org/x/sync/semaphore"
)

// ErrClosed is returned when enqueueing on a closed queue.
var ErrClosed = errors.New("delivery queue closed")

// Item is one message scheduled for delivery.
type Item struct {
	ConsumerID string         `json:"consumerId,omitempty"`
	SequenceID string         `json:"sequenceId"`
	Message    domain.Message `json:"message"`
	Delay      time.Duration  `json:"delay"`
}

// Sink receives delivered items.
type Sink interface {
	Deliver(ctx context.Context, item Item) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, item Item) error

// Deliver calls f.
func (f SinkFunc) Deliver(ctx context.Context, item Item) error {
	return f(ctx, item)
}

// Queue serialises batches for a single consumer.
type Queue struct {
	sem    *semaphore.Weighted
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) QueueOption {
	return func(q *Queue) {
		q.logger = logger
	}
}

// NewQueue creates an open queue.
func NewQueue(opts ...QueueOption) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		sem:    semaphore.NewWeighted(1),
		ctx:    ctx,
		cancel: cancel,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue waits for earlier batches, then delivers items to sink in order, sleeping each
// item's delay before it. It returns how many items were delivered. Closing the queue while
// a batch is pending is not an error; a cancelled ctx returns ctx.Err().
func (q *Queue) Enqueue(ctx context.Context, sink Sink, items ...Item) (int, error) {
	if q.ctx.Err() != nil {
		return 0, ErrClosed
	}

	// Close must also release callers blocked in Acquire.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(q.ctx, cancel)
	defer stop()

	if err := q.sem.Acquire(ctx, 1); err != nil {
		return 0, q.stopErr(ctx)
	}
	defer q.sem.Release(1)

	delivered := 0
	for _, item := range items {
		if item.Delay > 0 {
			timer := time.NewTimer(item.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				q.logger.Debug("delivery interrupted", "consumer_id", item.ConsumerID, "delivered", delivered, "pending", len(items)-delivered)
				return delivered, q.stopErr(ctx)
			case <-timer.C:
			}
		} else if ctx.Err() != nil {
			return delivered, q.stopErr(ctx)
		}

		if err := sink.Deliver(ctx, item); err != nil {
			return delivered, err
		}
		delivered++
	}
	return delivered, nil
}

// Close stops every pending and future Enqueue. It is safe to call more than once.
func (q *Queue) Close() {
	q.cancel()
}

// stopErr maps an interruption to the caller-visible error.
func (q *Queue) stopErr(ctx context.Context) error {
	if q.ctx.Err() != nil {
		return nil
	}
	return ctx.Err()
}
