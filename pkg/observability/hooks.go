package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/quire/pkg/domain"
)

// Combine merges hook sets. Each event is delivered to every set in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnNodeAdded = chain(out.OnNodeAdded, h.OnNodeAdded)
		out.OnNodeRemoved = chain(out.OnNodeRemoved, h.OnNodeRemoved)
		out.OnEdgeAdded = chain(out.OnEdgeAdded, h.OnEdgeAdded)
		out.OnEdgeRemoved = chain(out.OnEdgeRemoved, h.OnEdgeRemoved)
		out.OnSave = chain(out.OnSave, h.OnSave)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}

// LoggingHooks logs every builder event at debug level and saves at info.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeAdded: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_added", "session_id", e.SessionID, "node_id", e.NodeID, "type", e.NodeType)
		},
		OnNodeRemoved: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_removed", "session_id", e.SessionID, "node_id", e.NodeID, "cascaded", e.Cascaded)
		},
		OnEdgeAdded: func(ctx context.Context, e *domain.EdgeEvent) {
			logger.DebugContext(ctx, "edge_added", "session_id", e.SessionID, "edge_id", e.EdgeID, "label", e.Label)
		},
		OnEdgeRemoved: func(ctx context.Context, e *domain.EdgeEvent) {
			logger.DebugContext(ctx, "edge_removed", "session_id", e.SessionID, "edge_id", e.EdgeID)
		},
		OnSave: func(ctx context.Context, e *domain.SaveEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "save_failed", "session_id", e.SessionID, "duration", e.Duration, "err", e.Err)
				return
			}
			logger.InfoContext(ctx, "save", "session_id", e.SessionID, "scenario_id", e.ScenarioID, "created", e.Created, "duration", e.Duration)
		},
	}
}
