package editor

import (
	"fmt"
	"strings"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/schema"
)

// SectionEditor edits a private copy of a section node's data.
type SectionEditor struct {
	nodeID    string
	data      domain.SectionData
	savedName string
	cb        Callbacks
	closed    bool
}

// NewSectionEditor opens an editor on a section node.
func NewSectionEditor(node domain.Node, cb Callbacks) (*SectionEditor, error) {
	s, ok := node.Section()
	if !ok {
		return nil, fmt.Errorf("%w: node %s is not a section", domain.ErrInvalidNodeData, node.ID)
	}
	return &SectionEditor{
		nodeID:    node.ID,
		data:      s,
		savedName: strings.TrimSpace(s.SectionName),
		cb:        cb,
	}, nil
}

// NodeID returns the id of the edited node.
func (e *SectionEditor) NodeID() string { return e.nodeID }

// Data returns the pending payload.
func (e *SectionEditor) Data() domain.SectionData { return e.data }

// SetName sets the section name.
func (e *SectionEditor) SetName(name string) {
	e.data.SectionName = name
}

// SetWeight sets the scoring weight.
func (e *SectionEditor) SetWeight(w int) {
	e.data.Weight = w
}

// Validate checks the pending payload without saving it.
func (e *SectionEditor) Validate() error {
	var errs []error
	if strings.TrimSpace(e.data.SectionName) == "" {
		errs = append(errs, schema.Invalid("sectionName", MsgSectionRequired, nil))
	}
	if e.data.Weight < 1 {
		errs = append(errs, schema.Invalid("weight", MsgWeightMin, e.data.Weight))
	}
	return schema.Aggregate(errs)
}

// Save validates and sends the payload to the owner.
func (e *SectionEditor) Save() error {
	if e.closed {
		return ErrClosed
	}
	if err := e.Validate(); err != nil {
		return err
	}
	e.data.SectionName = strings.TrimSpace(e.data.SectionName)
	patch := map[string]any{
		"sectionName": e.data.SectionName,
		"weight":      e.data.Weight,
	}
	if err := e.cb.OnUpdate(e.nodeID, patch); err != nil {
		return err
	}
	e.savedName = e.data.SectionName
	e.closed = true
	return nil
}

// Cancel discards pending changes. A section that never had a saved name is
// deleted so that empty placeholders do not persist.
func (e *SectionEditor) Cancel() error {
	if e.closed {
		return nil
	}
	e.closed = true
	if e.savedName == "" {
		return e.cb.OnDelete(e.nodeID)
	}
	return nil
}
