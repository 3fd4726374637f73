package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/delivery"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/input"
	"github.com/aretw0/parley/pkg/persistence/middleware"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/session"
	"github.com/go-chi/chi/v5"
)

// Engine defines the subset of parley.Engine the server drives.
type Engine interface {
	InitializeSession(ctx context.Context) (*session.Facts, error)
	Start(ctx context.Context, sequenceID string) (*parley.Turn, error)
	Continue(ctx context.Context, sequenceID string, messageID int) (*parley.Turn, error)
	SelectChoice(ctx context.Context, sequenceID string, messageID int, index int) (*parley.Turn, error)
	SubmitText(ctx context.Context, sequenceID string, messageID int, text string) (*parley.Turn, error)
	Deliver(ctx context.Context, consumerID string, turn *parley.Turn, sink delivery.Sink) (int, error)
	Sequences(ctx context.Context) ([]*domain.Sequence, error)
	Store() ports.KeyValueStore
}

// Server exposes an Engine over HTTP.
type Server struct {
	Engine  Engine
	Streams *StreamManager

	metrics   http.Handler
	storeView middleware.Middleware
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithStoreView wraps the store for every read the server exposes (store routes and
// store diff events). Typically a redaction middleware.
func WithStoreView(mw middleware.Middleware) Option {
	return func(s *Server) {
		s.storeView = mw
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Post("/session/init", s.InitSession)
	r.Get("/sequences", s.ListSequences)
	r.Route("/sequences/{sequenceID}", func(r chi.Router) {
		r.Post("/start", s.StartSequence)
		r.Route("/messages/{messageID}", func(r chi.Router) {
			r.Post("/continue", s.ContinueSequence)
			r.Post("/choice", s.SelectChoice)
			r.Post("/input", s.SubmitText)
		})
	})

	r.Get("/store", s.GetStore)
	r.Get("/store/*", s.GetValue)
	r.Put("/store/*", s.PutValue)
	r.Delete("/store/*", s.DeleteValue)

	r.Get("/events", s.SubscribeEvents)

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Consumer-ID")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ChoiceRequest is the body of POST .../choice.
type ChoiceRequest struct {
	Index int `json:"index"`
}

// InputRequest is the body of POST .../input.
type InputRequest struct {
	Text string `json:"text"`
}

// ValueRequest is the body of PUT /store/{path}.
type ValueRequest struct {
	Value any `json:"value"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
	// Turn holds the messages produced before a turn failed.
	Turn *parley.Turn `json:"turn,omitempty"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "parley-http",
		"version": strings.TrimSpace(parley.Version),
	})
}

// InitSession handles the POST /session/init request.
func (s *Server) InitSession(w http.ResponseWriter, r *http.Request) {
	s.observeStore(r, func(ctx context.Context) error {
		facts, err := s.Engine.InitializeSession(ctx)
		if err != nil {
			return err
		}
		s.writeJSON(w, http.StatusOK, facts)
		return nil
	}, w)
}

// SequenceInfo summarizes a loaded sequence.
type SequenceInfo struct {
	ID          string `json:"sequenceId"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Messages    int    `json:"messages"`
}

// ListSequences handles the GET /sequences request.
func (s *Server) ListSequences(w http.ResponseWriter, r *http.Request) {
	seqs, err := s.Engine.Sequences(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]SequenceInfo, len(seqs))
	for i, seq := range seqs {
		out[i] = SequenceInfo{ID: seq.ID, Name: seq.Name, Description: seq.Description, Messages: len(seq.Messages)}
	}
	s.writeJSON(w, http.StatusOK, out)
}

// StartSequence handles the POST /sequences/{sequenceID}/start request.
func (s *Server) StartSequence(w http.ResponseWriter, r *http.Request) {
	sequenceID := chi.URLParam(r, "sequenceID")
	s.respondTurn(w, r, func(ctx context.Context) (*parley.Turn, error) {
		return s.Engine.Start(ctx, sequenceID)
	})
}

// ContinueSequence handles the POST /sequences/{sequenceID}/messages/{messageID}/continue request.
func (s *Server) ContinueSequence(w http.ResponseWriter, r *http.Request) {
	sequenceID := chi.URLParam(r, "sequenceID")
	messageID, ok := s.messageID(w, r)
	if !ok {
		return
	}
	s.respondTurn(w, r, func(ctx context.Context) (*parley.Turn, error) {
		return s.Engine.Continue(ctx, sequenceID, messageID)
	})
}

// SelectChoice handles the POST /sequences/{sequenceID}/messages/{messageID}/choice request.
func (s *Server) SelectChoice(w http.ResponseWriter, r *http.Request) {
	sequenceID := chi.URLParam(r, "sequenceID")
	messageID, ok := s.messageID(w, r)
	if !ok {
		return
	}
	var body ChoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.badRequest(w, "Invalid request body", err)
		return
	}
	s.respondTurn(w, r, func(ctx context.Context) (*parley.Turn, error) {
		return s.Engine.SelectChoice(ctx, sequenceID, messageID, body.Index)
	})
}

// SubmitText handles the POST /sequences/{sequenceID}/messages/{messageID}/input request.
func (s *Server) SubmitText(w http.ResponseWriter, r *http.Request) {
	sequenceID := chi.URLParam(r, "sequenceID")
	messageID, ok := s.messageID(w, r)
	if !ok {
		return
	}
	var body InputRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.badRequest(w, "Invalid request body", err)
		return
	}
	s.respondTurn(w, r, func(ctx context.Context) (*parley.Turn, error) {
		return s.Engine.SubmitText(ctx, sequenceID, messageID, body.Text)
	})
}

// GetStore handles the GET /store request.
func (s *Server) GetStore(w http.ResponseWriter, r *http.Request) {
	all, err := s.readStore().GetAll(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, all)
}

// GetValue handles the GET /store/{path} request.
func (s *Server) GetValue(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")
	value, ok, err := s.readStore().Get(r.Context(), path)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !ok {
		s.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("no value at %s", path)})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"path": path, "value": value})
}

// PutValue handles the PUT /store/{path} request.
func (s *Server) PutValue(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")
	var body ValueRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.badRequest(w, "Invalid request body", err)
		return
	}
	s.observeStore(r, func(ctx context.Context) error {
		if err := s.Engine.Store().Set(ctx, path, body.Value); err != nil {
			return err
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	}, w)
}

// DeleteValue handles the DELETE /store/{path} request.
func (s *Server) DeleteValue(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")
	s.observeStore(r, func(ctx context.Context) error {
		if err := s.Engine.Store().Delete(ctx, path); err != nil {
			return err
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	}, w)
}

// respondTurn runs fn, broadcasts the resulting store diff to the consumer's subscribers
// and writes the turn, either as one JSON document or as a paced NDJSON stream. A failed
// turn is a single error document carrying whatever was produced before the failure.
func (s *Server) respondTurn(w http.ResponseWriter, r *http.Request, fn func(context.Context) (*parley.Turn, error)) {
	var (
		turn    *parley.Turn
		turnErr error
	)
	// Actions applied before a failure still changed the store, so the diff is broadcast
	// either way.
	s.observeStore(r, func(ctx context.Context) error {
		turn, turnErr = fn(ctx)
		return nil
	}, w)
	if turnErr != nil {
		status, resp := s.errorResponse(turnErr)
		resp.Turn = turn
		s.writeJSON(w, status, resp)
		return
	}
	if turn == nil {
		return
	}

	if r.URL.Query().Get("stream") == "" {
		s.writeJSON(w, http.StatusOK, turn)
		return
	}
	s.streamTurn(w, r, turn)
}

// streamTurn writes one JSON line per entry as the delivery queue releases it, followed
// by a summary line carrying the stop reason.
func (s *Server) streamTurn(w http.ResponseWriter, r *http.Request, turn *parley.Turn) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("streamTurn: streaming not supported")
		return
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	sink := delivery.SinkFunc(func(_ context.Context, item delivery.Item) error {
		if err := enc.Encode(parley.Entry{SequenceID: item.SequenceID, Message: item.Message, Delay: item.Delay}); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if _, err := s.Engine.Deliver(r.Context(), consumerID(r), turn, sink); err != nil {
		s.logger.Warn("stream delivery interrupted", "err", err, "turn_id", turn.ID)
		return
	}
	_ = enc.Encode(map[string]any{
		"id":               turn.ID,
		"stopReason":       turn.StopReason,
		"sequenceId":       turn.SequenceID,
		"targetSequenceId": turn.TargetSequenceID,
	})
	flusher.Flush()
}

// observeStore snapshots the store around fn and broadcasts the diff to subscribers of
// the request's consumer. Errors from fn are written to w.
func (s *Server) observeStore(r *http.Request, fn func(context.Context) error, w http.ResponseWriter) {
	ctx := r.Context()
	consumer := consumerID(r)

	var before map[string]any
	watched := s.Streams.HasSubscribers(consumer)
	if watched {
		before, _ = s.readStore().GetAll(ctx)
	}

	if err := fn(ctx); err != nil {
		s.writeError(w, err)
		return
	}
	if !watched {
		return
	}

	after, err := s.readStore().GetAll(ctx)
	if err != nil {
		s.logger.Warn("store snapshot failed", "err", err)
		return
	}
	if diff := domain.Diff(before, after); diff != nil {
		if bytes, err := json.Marshal(diff); err == nil {
			s.Streams.Broadcast(consumer, string(bytes))
		}
	}
}

func (s *Server) readStore() ports.KeyValueStore {
	if s.storeView != nil {
		return s.storeView(s.Engine.Store())
	}
	return s.Engine.Store()
}

func (s *Server) messageID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "messageID")
	id, err := strconv.Atoi(raw)
	if err != nil {
		s.badRequest(w, "Invalid message id", err)
		return 0, false
	}
	return id, true
}

func consumerID(r *http.Request) string {
	if id := r.Header.Get("X-Consumer-ID"); id != "" {
		return id
	}
	if id := r.URL.Query().Get("consumer_id"); id != "" {
		return id
	}
	return "default"
}

func (s *Server) badRequest(w http.ResponseWriter, msg string, err error) {
	s.logger.Warn(msg, "err", err)
	s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msg})
}

// writeError maps engine errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, resp := s.errorResponse(err)
	s.writeJSON(w, status, resp)
}

func (s *Server) errorResponse(err error) (int, ErrorResponse) {
	resp := ErrorResponse{Error: err.Error()}
	status := http.StatusInternalServerError

	var scriptErr *domain.ScriptError
	switch {
	case errors.Is(err, domain.ErrInvalidChoice),
		errors.Is(err, input.ErrTooLarge),
		errors.Is(err, input.ErrInvalidUTF8):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrMessageNotFound):
		status = http.StatusNotFound
	case errors.As(err, &scriptErr):
		resp.Kind = string(scriptErr.Kind)
		resp.Message = scriptErr.UserMessage()
		switch scriptErr.Kind {
		case domain.ErrAssetNotFound:
			status = http.StatusNotFound
		case domain.ErrInvalidFormat, domain.ErrAssetValidation:
			status = http.StatusUnprocessableEntity
		}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	} else {
		s.logger.Debug("request rejected", "err", err, "status", status)
	}
	return status, resp
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
