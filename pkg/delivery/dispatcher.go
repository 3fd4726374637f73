package delivery

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/parley/internal/logging"
)

// queueEntry holds a consumer's queue and the number of callers using it.
type queueEntry struct {
	queue *Queue
	refs  int
}

// Dispatcher routes batches to a per-consumer Queue.
// It uses reference counting to drop queues nobody is waiting on.
type Dispatcher struct {
	mu     sync.Mutex // guards queues and closed, never held while delivering
	queues map[string]*queueEntry
	closed bool

	logger *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger configures a logger for the Dispatcher and its queues.
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		queues: make(map[string]*queueEntry),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// acquire gets or creates the consumer's entry and increments its reference count.
// The caller must call release(consumerID) when done.
func (d *Dispatcher) acquire(consumerID string) (*queueEntry, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, false
	}
	entry, exists := d.queues[consumerID]
	if !exists {
		entry = &queueEntry{queue: NewQueue(WithLogger(d.logger))}
		d.queues[consumerID] = entry
	}
	entry.refs++
	return entry, true
}

// release decrements the reference count and drops the entry when it reaches zero.
func (d *Dispatcher) release(consumerID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry, exists := d.queues[consumerID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(d.queues, consumerID)
		entry.queue.Close()
	}
}

// Dispatch delivers items to sink through the consumer's queue. Items get the consumer id
// stamped on them.
func (d *Dispatcher) Dispatch(ctx context.Context, consumerID string, sink Sink, items ...Item) (int, error) {
	entry, ok := d.acquire(consumerID)
	if !ok {
		return 0, ErrClosed
	}
	defer d.release(consumerID)

	for i := range items {
		items[i].ConsumerID = consumerID
	}
	return entry.queue.Enqueue(ctx, sink, items...)
}

// Active returns the number of consumers with pending deliveries.
func (d *Dispatcher) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues)
}

// Close interrupts all pending deliveries and rejects new ones.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	for id, entry := range d.queues {
		entry.queue.Close()
		d.logger.Debug("delivery queue closed", "consumer_id", id)
	}
}
