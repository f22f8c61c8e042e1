package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_CountEvents(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	h := m.Hooks()

	h.OnNodeAdded(ctx, &domain.NodeEvent{NodeType: domain.NodeTypeQuestion})
	h.OnNodeAdded(ctx, &domain.NodeEvent{NodeType: domain.NodeTypeQuestion})
	h.OnNodeRemoved(ctx, &domain.NodeEvent{NodeType: domain.NodeTypeSection})
	h.OnEdgeAdded(ctx, &domain.EdgeEvent{})
	h.OnSave(ctx, &domain.SaveEvent{Created: true, Duration: 20 * time.Millisecond})
	h.OnSave(ctx, &domain.SaveEvent{Err: errors.New("boom")})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Nodes.WithLabelValues("added", "question")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Nodes.WithLabelValues("removed", "section")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Edges.WithLabelValues("added")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Saves.WithLabelValues("create", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Saves.WithLabelValues("update", "failure")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.SaveDuration))
}

func TestMetrics_DoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	_, err = observability.NewMetrics(reg)
	assert.Error(t, err)
}

func TestCombine_DeliversToAll(t *testing.T) {
	var order []string
	a := domain.LifecycleHooks{OnEdgeAdded: func(context.Context, *domain.EdgeEvent) { order = append(order, "a") }}
	b := domain.LifecycleHooks{
		OnEdgeAdded: func(context.Context, *domain.EdgeEvent) { order = append(order, "b") },
		OnSave:      func(context.Context, *domain.SaveEvent) { order = append(order, "save") },
	}
	h := observability.Combine(a, domain.LifecycleHooks{}, b)

	h.OnEdgeAdded(context.Background(), &domain.EdgeEvent{})
	h.OnSave(context.Background(), &domain.SaveEvent{})
	assert.Equal(t, []string{"a", "b", "save"}, order)
	assert.Nil(t, h.OnNodeAdded)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := observability.LoggingHooks(logger)

	h.OnNodeRemoved(context.Background(), &domain.NodeEvent{NodeID: "7", Cascaded: 2})
	h.OnSave(context.Background(), &domain.SaveEvent{Err: errors.New("timeout")})

	out := buf.String()
	assert.Contains(t, out, "node_removed")
	assert.Contains(t, out, "cascaded=2")
	assert.Contains(t, out, "save_failed")
}
