package runtime

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/google/uuid"
)

// ConditionChecker evaluates route guards. condition.Evaluator satisfies it.
type ConditionChecker interface {
	Check(ctx context.Context, expr string) (bool, error)
}

// ActionProcessor applies data actions. actions.Processor satisfies it.
type ActionProcessor interface {
	Process(ctx context.Context, actions []domain.DataAction) error
}

// Traverser is the flow state machine. It is stateless between calls and safe for
// concurrent use as long as its collaborators are.
type Traverser struct {
	conditions ConditionChecker
	actions    ActionProcessor
	logger     *slog.Logger
	hooks      domain.LifecycleHooks
	now        func() time.Time
}

// Option configures a Traverser.
type Option func(*Traverser)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Traverser) {
		t.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(t *Traverser) {
		t.hooks = hooks
	}
}

// NewTraverser creates a Traverser.
func NewTraverser(conditions ConditionChecker, actions ActionProcessor, opts ...Option) *Traverser {
	t := &Traverser{
		conditions: conditions,
		actions:    actions,
		logger:     logging.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Traverse walks seq from startID. A nil or unknown start id yields an empty result with
// endOfSequence. Each message id appears at most once in the result; revisiting an id
// ends the traversal. When a data action fails the partial result is returned together
// with a flowError.
func (t *Traverser) Traverse(ctx context.Context, startID *int, seq *domain.Sequence) (*domain.TraversalResult, error) {
	if seq == nil {
		return nil, domain.NewScriptError(domain.ErrFlow, "", startID, errors.New("nil sequence"))
	}

	if domain.TraversalIDFrom(ctx) == "" {
		ctx = domain.WithTraversalID(ctx, uuid.NewString())
	}

	w := &walk{
		Traverser: t,
		seq:       seq,
		visited:   make(map[int]bool),
		result:    &domain.TraversalResult{Messages: []domain.Message{}, StopReason: domain.StopEndOfSequence},
	}
	err := w.run(ctx, startID)
	t.fireStop(ctx, seq.ID, w.result)
	return w.result, err
}

// walk holds the state of a single Traverse call.
type walk struct {
	*Traverser
	seq       *domain.Sequence
	visited   map[int]bool
	result    *domain.TraversalResult
	synthetic int
}

func (w *walk) run(ctx context.Context, id *int) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if id == nil || !w.seq.HasMessage(*id) {
			if id != nil {
				w.logger.Debug("edge points to missing message, ending sequence",
					"sequence_id", w.seq.ID, "message_id", *id)
			}
			return w.stop(domain.StopEndOfSequence, "")
		}
		if w.visited[*id] {
			w.logger.Debug("cycle detected, ending traversal", "sequence_id", w.seq.ID, "message_id", *id)
			return w.stop(domain.StopEndOfSequence, "")
		}
		w.visited[*id] = true

		msg, _ := w.seq.MessageByID(*id)
		state := classify(msg)
		w.logger.Debug("visiting message", "sequence_id", w.seq.ID, "message_id", msg.ID, "state", state)

		switch state {
		case stateInteractive:
			w.emit(ctx, msg)
			return w.stop(domain.StopInteractiveMessage, "")

		case stateTransition:
			if msg.Kind == domain.KindText && msg.Text != "" {
				w.emitExpanded(ctx, msg)
			}
			if err := w.apply(ctx, msg); err != nil {
				return err
			}
			return w.stop(domain.StopSequenceTransition, msg.SequenceID)

		case stateSilent:
			if err := w.apply(ctx, msg); err != nil {
				return err
			}

		case stateDisplay:
			w.emitExpanded(ctx, msg)
			if err := w.apply(ctx, msg); err != nil {
				return err
			}
		}

		next := w.resolve(ctx, w.seq, msg)
		if next.sequenceID != "" {
			return w.stop(domain.StopSequenceTransition, next.sequenceID)
		}
		id = next.next
	}
}

// Next resolves the outgoing edge of msg exactly as Traverse would. Hosts use it to leave
// an interactive message once the user has answered. A nil next and empty target mean
// the sequence ends.
func (t *Traverser) Next(ctx context.Context, seq *domain.Sequence, msg domain.Message) (next *int, targetSequenceID string) {
	e := t.resolve(ctx, seq, msg)
	return e.next, e.sequenceID
}

// resolve picks the outgoing edge: routes first (first match, then default). When no
// route is taken it falls through to the message-level sequence transition, then
// nextMessageId.
func (t *Traverser) resolve(ctx context.Context, seq *domain.Sequence, msg domain.Message) edge {
	if len(msg.Routes) > 0 {
		var fallback *domain.Route
		for i := range msg.Routes {
			r := &msg.Routes[i]
			if r.Condition == "" {
				if r.Default && fallback == nil {
					fallback = r
				}
				continue
			}
			ok, err := t.conditions.Check(ctx, r.Condition)
			if err != nil {
				scriptErr := &domain.ScriptError{
					Kind:       domain.ErrCondition,
					SequenceID: seq.ID,
					MessageID:  domain.IntPtr(msg.ID),
					Condition:  r.Condition,
					Err:        err,
				}
				t.logger.Warn("route condition failed", "err", scriptErr, "hint", scriptErr.RecoveryHint())
				continue
			}
			if ok {
				return edge{next: r.NextMessageID, sequenceID: r.SequenceID}
			}
			if r.Default && fallback == nil {
				fallback = r
			}
		}
		if fallback != nil {
			return edge{next: fallback.NextMessageID, sequenceID: fallback.SequenceID}
		}
	}
	if msg.SequenceID != "" {
		return edge{sequenceID: msg.SequenceID}
	}
	return edge{next: msg.NextMessageID}
}

func (w *walk) apply(ctx context.Context, msg domain.Message) error {
	if len(msg.Actions) == 0 || w.actions == nil {
		return nil
	}
	if err := w.actions.Process(ctx, msg.Actions); err != nil {
		w.result.StopReason = domain.StopEndOfSequence
		return domain.NewScriptError(domain.ErrFlow, w.seq.ID, domain.IntPtr(msg.ID), err)
	}
	return nil
}

func (w *walk) emitExpanded(ctx context.Context, msg domain.Message) {
	for _, part := range expand(msg, w.nextSyntheticID) {
		w.emit(ctx, part)
	}
}

func (w *walk) emit(ctx context.Context, msg domain.Message) {
	w.result.Messages = append(w.result.Messages, msg)
	if w.hooks.OnMessageEmit != nil {
		w.hooks.OnMessageEmit(ctx, &domain.MessageEvent{
			EventBase:  w.event(ctx, domain.EventMessageEmit),
			SequenceID: w.seq.ID,
			MessageID:  msg.ID,
			Kind:       msg.Kind,
		})
	}
}

func (w *walk) stop(reason domain.StopReason, target string) error {
	w.result.StopReason = reason
	w.result.TargetSequenceID = target
	return nil
}

// nextSyntheticID hands out negative ids, which authored messages never use.
func (w *walk) nextSyntheticID() int {
	w.synthetic--
	for w.seq.HasMessage(w.synthetic) {
		w.synthetic--
	}
	return w.synthetic
}

func (t *Traverser) fireStop(ctx context.Context, sequenceID string, result *domain.TraversalResult) {
	if t.hooks.OnTraversalStop == nil {
		return
	}
	t.hooks.OnTraversalStop(ctx, &domain.StopEvent{
		EventBase:        t.event(ctx, domain.EventTraversalStop),
		SequenceID:       sequenceID,
		Reason:           result.StopReason,
		TargetSequenceID: result.TargetSequenceID,
		Emitted:          len(result.Messages),
	})
}

func (t *Traverser) event(ctx context.Context, typ domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp:   t.now(),
		Type:        typ,
		TraversalID: domain.TraversalIDFrom(ctx),
	}
}
