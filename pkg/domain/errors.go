package domain

import (
	"errors"
	"fmt"
)

// ErrNodeNotFound is returned when a node id does not resolve within the graph.
var ErrNodeNotFound = errors.New("node not found")

// ErrEdgeNotFound is returned when an edge id does not resolve within the graph.
var ErrEdgeNotFound = errors.New("edge not found")

// ErrInvalidNodeData is returned when a node payload does not match its type.
var ErrInvalidNodeData = errors.New("invalid node data")

// ErrDraftNotFound is returned when a draft key cannot be found in the store.
var ErrDraftNotFound = errors.New("draft not found")

// ErrScenarioNotFound is returned by backends for unknown scenario ids.
var ErrScenarioNotFound = errors.New("scenario not found")

// APIError is a failure reported by the scenario backend itself, as opposed
// to a transport error. Message is safe to show to the user.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	if e.Code == 0 {
		return "backend error: " + e.Message
	}
	return fmt.Sprintf("backend error %d: %s", e.Code, e.Message)
}
