package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NodeType identifies the role of a vertex in the questionnaire graph.
type NodeType string

const (
	// NodeTypeQuestion asks the respondent something and branches on the answer.
	NodeTypeQuestion NodeType = "question"
	// NodeTypeSection groups the questions that follow it under a weighted heading.
	NodeTypeSection NodeType = "section"
	// NodeTypeEditingQuestion is a question whose editor has not been saved yet.
	// It is never persisted.
	NodeTypeEditingQuestion NodeType = "editing-question"
)

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeQuestion, NodeTypeSection, NodeTypeEditingQuestion:
		return true
	}
	return false
}

// QuestionType is the answer widget of a question node.
type QuestionType string

const (
	QuestionTextInput      QuestionType = "text-input"
	QuestionRadio          QuestionType = "radio"
	QuestionCheckbox       QuestionType = "checkbox"
	QuestionMultipleChoice QuestionType = "multiple-choice"
	QuestionYesNo          QuestionType = "yes-no"
	QuestionSelect         QuestionType = "select"
)

// QuestionTypes lists every supported question type in display order.
var QuestionTypes = []QuestionType{
	QuestionTextInput,
	QuestionRadio,
	QuestionCheckbox,
	QuestionMultipleChoice,
	QuestionYesNo,
	QuestionSelect,
}

// Valid reports whether q belongs to the fixed question type enum.
func (q QuestionType) Valid() bool {
	for _, t := range QuestionTypes {
		if q == t {
			return true
		}
	}
	return false
}

// HasOptions reports whether answers are picked from an options list.
func (q QuestionType) HasOptions() bool {
	switch q {
	case QuestionRadio, QuestionCheckbox, QuestionMultipleChoice, QuestionSelect:
		return true
	}
	return false
}

// Position is the layout coordinate of a node on the canvas.
// It carries no meaning for the questionnaire but must round-trip.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData is the type-specific payload of a node.
// It is implemented only by QuestionData and SectionData.
type NodeData interface {
	// Kind returns the node type family the payload belongs to.
	Kind() NodeType
	// Validate checks the structural shape of the payload.
	Validate() error
	// Clone returns a deep copy.
	Clone() NodeData
	sealed()
}

// QuestionData is the payload of question and editing-question nodes.
type QuestionData struct {
	Question     string       `json:"question" mapstructure:"question"`
	QuestionType QuestionType `json:"questionType" mapstructure:"questionType"`
	Options      []string     `json:"options" mapstructure:"options"`
	IsRequired   bool         `json:"isRequired" mapstructure:"isRequired"`
}

func (QuestionData) Kind() NodeType { return NodeTypeQuestion }

func (d QuestionData) Validate() error {
	if !d.QuestionType.Valid() {
		return fmt.Errorf("%w: unknown question type %q", ErrInvalidNodeData, d.QuestionType)
	}
	return nil
}

func (d QuestionData) Clone() NodeData {
	c := d
	if d.Options != nil {
		c.Options = append([]string{}, d.Options...)
	}
	return c
}

func (QuestionData) sealed() {}

// SectionData is the payload of section nodes.
type SectionData struct {
	SectionName string `json:"sectionName" mapstructure:"sectionName"`
	Weight      int    `json:"weight" mapstructure:"weight"`
}

// DefaultSectionWeight is applied when a section is created without a weight.
const DefaultSectionWeight = 1

func (SectionData) Kind() NodeType { return NodeTypeSection }

func (d SectionData) Validate() error {
	if d.Weight < 1 {
		return fmt.Errorf("%w: section weight must be at least 1, got %d", ErrInvalidNodeData, d.Weight)
	}
	return nil
}

func (d SectionData) Clone() NodeData { return d }

func (SectionData) sealed() {}

// Node is a vertex of the questionnaire graph.
type Node struct {
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// Question returns the question payload, if the node carries one.
func (n Node) Question() (QuestionData, bool) {
	q, ok := n.Data.(QuestionData)
	return q, ok
}

// Section returns the section payload, if the node carries one.
func (n Node) Section() (SectionData, bool) {
	s, ok := n.Data.(SectionData)
	return s, ok
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	c := n
	if n.Data != nil {
		c.Data = n.Data.Clone()
	}
	return c
}

// CheckData verifies that data is the right variant for t and is well formed.
func CheckData(t NodeType, data NodeData) error {
	if data == nil {
		return fmt.Errorf("%w: missing data for %s node", ErrInvalidNodeData, t)
	}
	switch t {
	case NodeTypeQuestion, NodeTypeEditingQuestion:
		if _, ok := data.(QuestionData); !ok {
			return fmt.Errorf("%w: %s node requires question data", ErrInvalidNodeData, t)
		}
	case NodeTypeSection:
		if _, ok := data.(SectionData); !ok {
			return fmt.Errorf("%w: section node requires section data", ErrInvalidNodeData)
		}
	default:
		return fmt.Errorf("%w: unknown node type %q", ErrInvalidNodeData, t)
	}
	return data.Validate()
}

// rawNode mirrors Node on the wire with an undecoded payload.
type rawNode struct {
	ID       string          `json:"id"`
	Type     NodeType        `json:"type"`
	Position Position        `json:"position"`
	Data     json.RawMessage `json:"data"`
}

// UnmarshalJSON decodes the payload variant selected by the node type.
// Unknown data keys (such as handler names left by older editors) are ignored.
func (n *Node) UnmarshalJSON(b []byte) error {
	var raw rawNode
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	var data NodeData
	switch raw.Type {
	case NodeTypeQuestion, NodeTypeEditingQuestion:
		var q QuestionData
		if err := decodeData(raw.Data, &q); err != nil {
			return fmt.Errorf("node %s: %w", raw.ID, err)
		}
		data = q
	case NodeTypeSection:
		s := SectionData{Weight: DefaultSectionWeight}
		if err := decodeData(raw.Data, &s); err != nil {
			return fmt.Errorf("node %s: %w", raw.ID, err)
		}
		data = s
	default:
		return fmt.Errorf("node %s: %w: unknown node type %q", raw.ID, ErrInvalidNodeData, raw.Type)
	}

	*n = Node{ID: raw.ID, Type: raw.Type, Position: raw.Position, Data: data}
	return nil
}

func decodeData(b json.RawMessage, into any) error {
	if len(b) == 0 || strings.TrimSpace(string(b)) == "null" {
		return nil
	}
	if err := json.Unmarshal(b, into); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidNodeData, err)
	}
	return nil
}
