package parley

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/internal/runtime"
	"github.com/aretw0/parley/pkg/actions"
	"github.com/aretw0/parley/pkg/condition"
	"github.com/aretw0/parley/pkg/delay"
	"github.com/aretw0/parley/pkg/delivery"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/input"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/sequence"
	"github.com/aretw0/parley/pkg/session"
	"github.com/aretw0/parley/pkg/templating"
	"github.com/google/uuid"
)

// DefaultMaxTransitions bounds how many sequence hand-offs one turn follows.
const DefaultMaxTransitions = 8

// Engine is the high-level entry point of the library.
// It wires the store, loader, evaluator, templating, actions, traverser, session service
// and delay policy, and turns user events into display turns.
type Engine struct {
	store  ports.KeyValueStore
	source ports.SequenceSource

	loader     *sequence.Loader
	conditions *condition.Evaluator
	templates  *templating.Service
	actions    *actions.Processor
	traverser  *runtime.Traverser
	session    *session.Service
	delay      *delay.Policy
	dispatcher *delivery.Dispatcher

	hooks          domain.LifecycleHooks
	sink           ports.EventSink
	sessionOpts    []session.Option
	maxTransitions int
	maxInputSize   int
	logger         *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine and its components.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithEventSink sets the receiver of trigger actions (the host's notification scheduler).
func WithEventSink(sink ports.EventSink) Option {
	return func(e *Engine) {
		e.sink = sink
	}
}

// WithDelayPolicy replaces the default production delay policy.
func WithDelayPolicy(policy *delay.Policy) Option {
	return func(e *Engine) {
		e.delay = policy
	}
}

// WithSessionOptions configures the session service (clock, active-day policy, window).
func WithSessionOptions(opts ...session.Option) Option {
	return func(e *Engine) {
		e.sessionOpts = append(e.sessionOpts, opts...)
	}
}

// WithMaxTransitions bounds how many sequence transitions a single turn follows.
func WithMaxTransitions(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.maxTransitions = n
		}
	}
}

// WithMaxInputSize bounds the byte size of free-text answers. Zero uses input.DefaultMaxSize.
func WithMaxInputSize(n int) Option {
	return func(e *Engine) {
		e.maxInputSize = n
	}
}

// New creates an Engine reading sequences from source and user data from store.
func New(source ports.SequenceSource, store ports.KeyValueStore, opts ...Option) (*Engine, error) {
	if source == nil {
		return nil, errors.New("sequence source is required")
	}
	if store == nil {
		return nil, errors.New("key/value store is required")
	}

	e := &Engine{
		store:          store,
		source:         source,
		maxTransitions: DefaultMaxTransitions,
		logger:         logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.delay == nil {
		e.delay = delay.New()
	}

	e.loader = sequence.NewLoader(source, sequence.WithLogger(e.logger))
	e.conditions = condition.New(store, condition.WithLogger(e.logger))
	e.templates = templating.New(store, templating.WithLogger(e.logger))

	actionOpts := []actions.Option{
		actions.WithLogger(e.logger),
		actions.WithTemplating(e.templates),
		actions.WithHooks(e.hooks),
	}
	if e.sink != nil {
		actionOpts = append(actionOpts, actions.WithEventSink(e.sink))
	}
	e.actions = actions.New(store, actionOpts...)

	e.traverser = runtime.NewTraverser(e.conditions, e.actions,
		runtime.WithLogger(e.logger),
		runtime.WithLifecycleHooks(e.hooks),
	)
	e.session = session.New(store, append([]session.Option{session.WithLogger(e.logger)}, e.sessionOpts...)...)
	e.dispatcher = delivery.NewDispatcher(delivery.WithDispatcherLogger(e.logger))
	return e, nil
}

// InitializeSession updates visit counters and task state. Call it on every app launch
// or resume, before starting a sequence.
func (e *Engine) InitializeSession(ctx context.Context) (*session.Facts, error) {
	return e.session.Initialize(ctx)
}

// Start traverses a sequence from its first message.
func (e *Engine) Start(ctx context.Context, sequenceID string) (*Turn, error) {
	seq, err := e.loader.Load(ctx, sequenceID)
	if err != nil {
		return nil, err
	}
	first, ok := seq.FirstID()
	if !ok {
		return e.play(ctx, seq, nil)
	}
	return e.play(ctx, seq, &first)
}

// Continue traverses a sequence from a specific message, e.g. to resume after a restart.
func (e *Engine) Continue(ctx context.Context, sequenceID string, messageID int) (*Turn, error) {
	seq, err := e.loader.Load(ctx, sequenceID)
	if err != nil {
		return nil, err
	}
	return e.play(ctx, seq, &messageID)
}

// SelectChoice records the user's answer to a choice message and continues from the
// choice's edge.
func (e *Engine) SelectChoice(ctx context.Context, sequenceID string, messageID int, index int) (*Turn, error) {
	seq, msg, err := e.message(ctx, sequenceID, messageID, domain.KindChoice)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(msg.Choices) {
		return nil, fmt.Errorf("%w: %d of %d on message %d", domain.ErrInvalidChoice, index, len(msg.Choices), messageID)
	}
	choice := msg.Choices[index]

	key := choice.StoreKey
	if key == "" {
		key = msg.StoreKey
	}
	if key != "" {
		if err := e.store.Set(ctx, key, choice.StoredValue()); err != nil {
			return nil, domain.NewScriptError(domain.ErrProcessing, sequenceID, &messageID, err)
		}
	}
	if err := e.applyAnswerActions(ctx, seq, msg, choice.Actions); err != nil {
		return nil, err
	}

	e.logger.Debug("choice selected", "sequence_id", sequenceID, "message_id", messageID, "index", index)
	if choice.SequenceID != "" {
		return e.transition(ctx, choice.SequenceID)
	}
	return e.play(ctx, seq, choice.NextMessageID)
}

// SubmitText records free-text input for a textInput message and continues from its edge.
// Oversized or malformed input is rejected with input.ErrTooLarge or input.ErrInvalidUTF8
// and nothing is stored.
func (e *Engine) SubmitText(ctx context.Context, sequenceID string, messageID int, text string) (*Turn, error) {
	seq, msg, err := e.message(ctx, sequenceID, messageID, domain.KindTextInput)
	if err != nil {
		return nil, err
	}
	text, err = input.Sanitize(text, e.maxInputSize)
	if err != nil {
		return nil, err
	}

	if msg.StoreKey != "" {
		if err := e.store.Set(ctx, msg.StoreKey, strings.TrimSpace(text)); err != nil {
			return nil, domain.NewScriptError(domain.ErrProcessing, sequenceID, &messageID, err)
		}
	}
	if err := e.applyAnswerActions(ctx, seq, msg, nil); err != nil {
		return nil, err
	}

	next, target := e.traverser.Next(ctx, seq, msg)
	if target != "" {
		return e.transition(ctx, target)
	}
	return e.play(ctx, seq, next)
}

// Deliver paces a turn to sink through the consumer's delivery queue. Turns for the same
// consumer are delivered one after another in call order.
func (e *Engine) Deliver(ctx context.Context, consumerID string, turn *Turn, sink delivery.Sink) (int, error) {
	return e.dispatcher.Dispatch(ctx, consumerID, sink, turn.Items()...)
}

// Sequences loads and validates every sequence the source knows about.
func (e *Engine) Sequences(ctx context.Context) ([]*domain.Sequence, error) {
	return e.loader.LoadAll(ctx)
}

// Watch reloads sequences as the source reports changes, until ctx is done.
func (e *Engine) Watch(ctx context.Context) error {
	return e.loader.Watch(ctx)
}

// Store returns the user data store.
func (e *Engine) Store() ports.KeyValueStore {
	return e.store
}

// Session returns the session service, e.g. for end-state and task actions.
func (e *Engine) Session() *session.Service {
	return e.session
}

// Close interrupts pending deliveries.
func (e *Engine) Close() {
	e.dispatcher.Close()
}

// message loads a sequence and the interactive message the user is answering.
func (e *Engine) message(ctx context.Context, sequenceID string, messageID int, kind domain.MessageKind) (*domain.Sequence, domain.Message, error) {
	seq, err := e.loader.Load(ctx, sequenceID)
	if err != nil {
		return nil, domain.Message{}, err
	}
	msg, ok := seq.MessageByID(messageID)
	if !ok {
		return nil, domain.Message{}, fmt.Errorf("%w: %d in sequence %s", domain.ErrMessageNotFound, messageID, sequenceID)
	}
	if msg.Kind != kind {
		return nil, domain.Message{}, fmt.Errorf("%w: message %d is %s, not %s", domain.ErrMessageNotFound, messageID, msg.Kind, kind)
	}
	return seq, msg, nil
}

// applyAnswerActions runs the message-level actions of an interactive message followed by
// the actions of the selected choice.
func (e *Engine) applyAnswerActions(ctx context.Context, seq *domain.Sequence, msg domain.Message, extra []domain.DataAction) error {
	all := append(append([]domain.DataAction{}, msg.Actions...), extra...)
	if err := e.actions.Process(ctx, all); err != nil {
		return domain.NewScriptError(domain.ErrFlow, seq.ID, domain.IntPtr(msg.ID), err)
	}
	return nil
}

func (e *Engine) transition(ctx context.Context, sequenceID string) (*Turn, error) {
	return e.Start(ctx, sequenceID)
}

// play traverses seq from start and follows sequence transitions up to maxTransitions.
func (e *Engine) play(ctx context.Context, seq *domain.Sequence, start *int) (*Turn, error) {
	ctx = domain.WithTraversalID(ctx, uuid.NewString())
	turn := &Turn{ID: domain.TraversalIDFrom(ctx), StopReason: domain.StopEndOfSequence, SequenceID: seq.ID}

	for hops := 0; ; hops++ {
		result, err := e.traverser.Traverse(ctx, start, seq)
		if result != nil {
			e.appendResult(ctx, turn, seq.ID, result)
		}
		if err != nil {
			return turn, err
		}

		if result.StopReason != domain.StopSequenceTransition {
			break
		}
		if hops >= e.maxTransitions {
			e.logger.Warn("transition limit reached", "sequence_id", seq.ID, "target", result.TargetSequenceID, "limit", e.maxTransitions)
			turn.TargetSequenceID = result.TargetSequenceID
			break
		}

		next, err := e.loader.Load(ctx, result.TargetSequenceID)
		if err != nil {
			return turn, err
		}
		seq = next
		turn.SequenceID = seq.ID
		turn.StopReason = domain.StopEndOfSequence
		if first, ok := seq.FirstID(); ok {
			start = &first
		} else {
			start = nil
		}
	}

	if err := e.session.SetEndState(ctx, turn.StopReason == domain.StopEndOfSequence); err != nil {
		e.logger.Warn("failed to record end state", "err", err)
	}
	return turn, nil
}

func (e *Engine) appendResult(ctx context.Context, turn *Turn, sequenceID string, result *domain.TraversalResult) {
	for _, msg := range result.Messages {
		rendered := e.templates.ProcessMessage(ctx, msg)

		var prev *domain.Message
		if n := len(turn.Entries); n > 0 {
			prev = &turn.Entries[n-1].Message
		}
		turn.Entries = append(turn.Entries, Entry{
			SequenceID: sequenceID,
			Message:    rendered,
			Delay:      e.delay.Before(prev, rendered),
		})
	}
	turn.StopReason = result.StopReason
	turn.TargetSequenceID = ""
	if result.StopReason == domain.StopSequenceTransition {
		turn.TargetSequenceID = result.TargetSequenceID
	}
}
