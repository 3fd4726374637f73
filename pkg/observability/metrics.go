package observability

import (
	"context"
	"net/http"
	"strconv"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors fed by the engine's lifecycle hooks.
type Metrics struct {
	MessagesEmitted *prometheus.CounterVec
	Traversals      *prometheus.CounterVec
	TraversalLength prometheus.Histogram
	ActionsApplied  *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg uses the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		MessagesEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_messages_emitted_total",
				Help: "Total number of messages emitted by traversals",
			},
			[]string{"sequence_id", "kind"},
		),
		Traversals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_traversals_total",
				Help: "Total number of traversals by stop reason",
			},
			[]string{"sequence_id", "reason"},
		),
		TraversalLength: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "parley_traversal_messages",
				Help:    "Number of messages emitted per traversal",
				Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
			},
		),
		ActionsApplied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_actions_applied_total",
				Help: "Total number of data actions processed",
			},
			[]string{"action", "is_error"},
		),
	}
	reg.MustRegister(m.MessagesEmitted, m.Traversals, m.TraversalLength, m.ActionsApplied)

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	} else {
		m.gatherer = prometheus.DefaultGatherer
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnMessageEmit: func(_ context.Context, e *domain.MessageEvent) {
			m.MessagesEmitted.WithLabelValues(e.SequenceID, string(e.Kind)).Inc()
		},
		OnTraversalStop: func(_ context.Context, e *domain.StopEvent) {
			m.Traversals.WithLabelValues(e.SequenceID, string(e.Reason)).Inc()
			m.TraversalLength.Observe(float64(e.Emitted))
		},
		OnActionApplied: func(_ context.Context, e *domain.ActionEvent) {
			m.ActionsApplied.WithLabelValues(string(e.Action), strconv.FormatBool(e.IsError)).Inc()
		},
	}
}

// Handler serves the registry m was registered with.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
