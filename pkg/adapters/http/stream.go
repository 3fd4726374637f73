package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/parley/internal/logging"
)

// StreamManager handles active SSE connections, keyed by consumer id.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan string]struct{}
	logger      *slog.Logger
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan string]struct{}),
		logger:      logging.NewNop(),
	}
}

// Subscribe registers a buffered channel for consumerID. The returned func unsubscribes
// and closes the channel.
func (sm *StreamManager) Subscribe(consumerID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[consumerID]; !ok {
		sm.subscribers[consumerID] = make(map[chan string]struct{})
	}
	sm.subscribers[consumerID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[consumerID]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(sm.subscribers, consumerID)
				}
			}
		})
	}
}

// HasSubscribers reports whether anyone listens to consumerID.
func (sm *StreamManager) HasSubscribers(consumerID string) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[consumerID]) > 0
}

// Broadcast sends msg to every subscriber of consumerID. Slow subscribers drop messages.
func (sm *StreamManager) Broadcast(consumerID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[consumerID] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: client buffer full, dropping message", "consumer_id", consumerID)
		}
	}
}

// SubscribeEvents handles the GET /events request (SSE). Each event carries the store diff
// produced by a request made with the same consumer id.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	consumer := consumerID(r)
	s.logger.Info("SSE: subscribing to store updates", "consumer_id", consumer)

	ch, cancel := s.Streams.Subscribe(consumer)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "consumer_id", consumer)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
