package editor

import (
	"errors"
	"fmt"
)

// Callbacks is how an editor hands its result back to the session that owns the graph.
// Editors never touch the graph directly.
type Callbacks interface {
	// OnUpdate merges patch into the node's data (JSON field names as keys).
	OnUpdate(nodeID string, patch map[string]any) error
	// OnDelete removes the node and its edges.
	OnDelete(nodeID string) error
}

var (
	// ErrLastOption is returned when removing an option would leave none.
	ErrLastOption = errors.New("a question needs at least one option")
	// ErrOptionIndex is returned for an option index outside the list.
	ErrOptionIndex = errors.New("option index out of range")
	// ErrClosed is returned when an editor is used after Save or Cancel.
	ErrClosed = errors.New("editor already closed")
)

// Validation messages shown inline next to the offending field.
const (
	MsgQuestionRequired = "Please enter a question"
	MsgSectionRequired  = "Please enter a section name"
	MsgWeightMin        = "Weight must be at least 1"
)

func optionIndex(i, n int) error {
	if i < 0 || i >= n {
		return fmt.Errorf("%w: %d (have %d)", ErrOptionIndex, i, n)
	}
	return nil
}
