package editor

import (
	"fmt"
	"strings"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/schema"
)

// QuestionEditor edits a private copy of a question node's data.
type QuestionEditor struct {
	nodeID string
	data   domain.QuestionData
	isNew  bool
	cb     Callbacks
	closed bool
}

// NewQuestionEditor opens an editor on node. isNew marks a node that has never
// been saved, which Cancel deletes.
func NewQuestionEditor(node domain.Node, isNew bool, cb Callbacks) (*QuestionEditor, error) {
	q, ok := node.Question()
	if !ok {
		return nil, fmt.Errorf("%w: node %s is not a question", domain.ErrInvalidNodeData, node.ID)
	}
	return &QuestionEditor{
		nodeID: node.ID,
		data:   q.Clone().(domain.QuestionData),
		isNew:  isNew,
		cb:     cb,
	}, nil
}

// NodeID returns the id of the edited node.
func (e *QuestionEditor) NodeID() string { return e.nodeID }

// Data returns a copy of the pending payload.
func (e *QuestionEditor) Data() domain.QuestionData {
	return e.data.Clone().(domain.QuestionData)
}

// SetQuestion sets the question text.
func (e *QuestionEditor) SetQuestion(text string) {
	e.data.Question = text
}

// SetRequired toggles whether an answer is mandatory.
func (e *QuestionEditor) SetRequired(required bool) {
	e.data.IsRequired = required
}

// SetType changes the answer widget.
//
// Entering radio or checkbox always resets options to two placeholders, and
// text-input or yes-no clears them, so switching away and back loses custom
// option text. multiple-choice and select only seed placeholders when empty.
func (e *QuestionEditor) SetType(t domain.QuestionType) error {
	if !t.Valid() {
		return schema.Invalid("questionType", "unknown question type", string(t))
	}
	if t == e.data.QuestionType {
		return nil
	}
	e.data.QuestionType = t

	switch t {
	case domain.QuestionRadio, domain.QuestionCheckbox:
		e.data.Options = placeholders()
	case domain.QuestionTextInput, domain.QuestionYesNo:
		e.data.Options = []string{}
	case domain.QuestionMultipleChoice, domain.QuestionSelect:
		if len(e.data.Options) == 0 {
			e.data.Options = placeholders()
		}
	}
	return nil
}

func placeholders() []string {
	return []string{"Option 1", "Option 2"}
}

// AddOption appends "Option N" where N is the new length.
func (e *QuestionEditor) AddOption() string {
	text := fmt.Sprintf("Option %d", len(e.data.Options)+1)
	e.data.Options = append(e.data.Options, text)
	return text
}

// RemoveOption deletes the option at i unless it is the last one.
func (e *QuestionEditor) RemoveOption(i int) error {
	if err := optionIndex(i, len(e.data.Options)); err != nil {
		return err
	}
	if len(e.data.Options) <= 1 {
		return ErrLastOption
	}
	opts := make([]string, 0, len(e.data.Options)-1)
	opts = append(opts, e.data.Options[:i]...)
	e.data.Options = append(opts, e.data.Options[i+1:]...)
	return nil
}

// UpdateOption replaces the text of the option at i.
func (e *QuestionEditor) UpdateOption(i int, text string) error {
	if err := optionIndex(i, len(e.data.Options)); err != nil {
		return err
	}
	e.data.Options[i] = text
	return nil
}

// SetOptions replaces the whole option list.
func (e *QuestionEditor) SetOptions(opts []string) {
	e.data.Options = append([]string{}, opts...)
}

// Validate checks the pending payload without saving it.
func (e *QuestionEditor) Validate() error {
	var errs []error
	if strings.TrimSpace(e.data.Question) == "" {
		errs = append(errs, schema.Invalid("question", MsgQuestionRequired, nil))
	}
	if e.data.QuestionType.HasOptions() && len(e.data.Options) == 0 {
		errs = append(errs, schema.Invalid("options", ErrLastOption.Error(), nil))
	}
	return schema.Aggregate(errs)
}

// Save validates and sends the full payload to the owner.
// On a validation error the editor stays open and nothing is sent.
func (e *QuestionEditor) Save() error {
	if e.closed {
		return ErrClosed
	}
	if err := e.Validate(); err != nil {
		return err
	}
	e.data.Question = strings.TrimSpace(e.data.Question)

	opts := e.data.Options
	if opts == nil {
		opts = []string{}
	}
	patch := map[string]any{
		"question":     e.data.Question,
		"questionType": string(e.data.QuestionType),
		"options":      append([]string{}, opts...),
		"isRequired":   e.data.IsRequired,
	}
	if err := e.cb.OnUpdate(e.nodeID, patch); err != nil {
		return err
	}
	e.closed = true
	return nil
}

// Cancel discards pending changes. A never-saved node is deleted.
func (e *QuestionEditor) Cancel() error {
	if e.closed {
		return nil
	}
	e.closed = true
	if e.isNew {
		return e.cb.OnDelete(e.nodeID)
	}
	return nil
}
