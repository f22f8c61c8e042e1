package observability

import (
	"context"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the builder collectors.
type Metrics struct {
	Nodes        *prometheus.CounterVec
	Edges        *prometheus.CounterVec
	Saves        *prometheus.CounterVec
	SaveDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Nodes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quire_nodes_total",
				Help: "Nodes added to or removed from questionnaire graphs",
			},
			[]string{"event", "type"},
		),
		Edges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quire_edges_total",
				Help: "Edges added to or removed from questionnaire graphs",
			},
			[]string{"event"},
		),
		Saves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quire_saves_total",
				Help: "Save attempts that reached the scenario backend",
			},
			[]string{"mode", "outcome"},
		),
		SaveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quire_save_duration_seconds",
				Help:    "Duration of scenario backend saves",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
	}
	for _, c := range []prometheus.Collector{m.Nodes, m.Edges, m.Saves, m.SaveDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks records builder events into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeAdded: func(_ context.Context, e *domain.NodeEvent) {
			m.Nodes.WithLabelValues("added", string(e.NodeType)).Inc()
		},
		OnNodeRemoved: func(_ context.Context, e *domain.NodeEvent) {
			m.Nodes.WithLabelValues("removed", string(e.NodeType)).Inc()
		},
		OnEdgeAdded: func(context.Context, *domain.EdgeEvent) {
			m.Edges.WithLabelValues("added").Inc()
		},
		OnEdgeRemoved: func(context.Context, *domain.EdgeEvent) {
			m.Edges.WithLabelValues("removed").Inc()
		},
		OnSave: func(_ context.Context, e *domain.SaveEvent) {
			mode := "update"
			if e.Created {
				mode = "create"
			}
			outcome := "success"
			if e.Err != nil {
				outcome = "failure"
			}
			m.Saves.WithLabelValues(mode, outcome).Inc()
			m.SaveDuration.WithLabelValues(mode).Observe(e.Duration.Seconds())
		},
	}
}
