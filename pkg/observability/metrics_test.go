package observability_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnMessageEmit(ctx, &domain.MessageEvent{SequenceID: "welcome", Kind: domain.KindText})
	hooks.OnMessageEmit(ctx, &domain.MessageEvent{SequenceID: "welcome", Kind: domain.KindText})
	hooks.OnMessageEmit(ctx, &domain.MessageEvent{SequenceID: "welcome", Kind: domain.KindChoice})
	hooks.OnTraversalStop(ctx, &domain.StopEvent{SequenceID: "welcome", Reason: domain.StopInteractiveMessage, Emitted: 3})
	hooks.OnActionApplied(ctx, &domain.ActionEvent{Action: domain.ActionSet, Key: "user.name"})
	hooks.OnActionApplied(ctx, &domain.ActionEvent{Action: domain.ActionSet, Key: "user.name", IsError: true})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.MessagesEmitted.WithLabelValues("welcome", "text")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MessagesEmitted.WithLabelValues("welcome", "choice")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Traversals.WithLabelValues("welcome", "interactiveMessage")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActionsApplied.WithLabelValues("set", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActionsApplied.WithLabelValues("set", "true")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.TraversalLength))
}

func TestMetrics_Handler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	m.Hooks().OnTraversalStop(context.Background(), &domain.StopEvent{SequenceID: "s", Reason: domain.StopEndOfSequence})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `parley_traversals_total{reason="endOfSequence",sequence_id="s"} 1`))
}

func TestMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	observability.NewMetrics(reg)
	assert.Panics(t, func() { observability.NewMetrics(reg) })
}
