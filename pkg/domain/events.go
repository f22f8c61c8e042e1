package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeAdded   EventType = "node_added"
	EventNodeRemoved EventType = "node_removed"
	EventEdgeAdded   EventType = "edge_added"
	EventEdgeRemoved EventType = "edge_removed"
	EventSave        EventType = "save"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// NodeEvent reports a node entering or leaving the graph.
type NodeEvent struct {
	EventBase
	NodeID   string   `json:"node_id"`
	NodeType NodeType `json:"node_type"`
	// Cascaded counts edges removed together with the node.
	Cascaded int `json:"cascaded,omitempty"`
}

// EdgeEvent reports an edge entering or leaving the graph.
type EdgeEvent struct {
	EventBase
	EdgeID string `json:"edge_id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Handle string `json:"handle"`
	Label  string `json:"label"`
}

// SaveEvent reports the outcome of a save attempt that reached the backend.
type SaveEvent struct {
	EventBase
	ScenarioID string        `json:"scenario_id,omitempty"`
	Created    bool          `json:"created"`
	Duration   time.Duration `json:"duration"`
	Err        error         `json:"-"`
}

// LifecycleHooks defines callbacks for builder observability.
// Hooks are invoked synchronously after the change has been applied.
type LifecycleHooks struct {
	OnNodeAdded   func(context.Context, *NodeEvent)
	OnNodeRemoved func(context.Context, *NodeEvent)
	OnEdgeAdded   func(context.Context, *EdgeEvent)
	OnEdgeRemoved func(context.Context, *EdgeEvent)
	OnSave        func(context.Context, *SaveEvent)
}
