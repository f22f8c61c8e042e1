package dsl

import (
	"fmt"
	"slices"

	"github.com/aretw0/quire/pkg/domain"
)

type link struct {
	handle string
	target string
	err    error
}

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	name     string
	typ      domain.NodeType
	data     domain.NodeData
	position domain.Position
	links    []link
	builder  *Builder
}

func (n *NodeBuilder) question() (domain.QuestionData, bool) {
	q, ok := n.data.(domain.QuestionData)
	if !ok {
		n.links = append(n.links, link{err: fmt.Errorf("%w: %s is not a question", domain.ErrInvalidNodeData, n.name)})
	}
	return q, ok
}

func (n *NodeBuilder) setType(t domain.QuestionType, options []string) *NodeBuilder {
	q, ok := n.question()
	if !ok {
		return n
	}
	q.QuestionType = t
	q.Options = append([]string{}, options...)
	n.data = q
	return n
}

// TextInput makes the question a free text answer.
func (n *NodeBuilder) TextInput() *NodeBuilder { return n.setType(domain.QuestionTextInput, nil) }

// YesNo makes the question a yes/no answer.
func (n *NodeBuilder) YesNo() *NodeBuilder { return n.setType(domain.QuestionYesNo, nil) }

// Radio makes the question a single choice among options.
func (n *NodeBuilder) Radio(options ...string) *NodeBuilder {
	return n.setType(domain.QuestionRadio, options)
}

// Select makes the question a dropdown among options.
func (n *NodeBuilder) Select(options ...string) *NodeBuilder {
	return n.setType(domain.QuestionSelect, options)
}

// Checkbox makes the question a multi-select among options.
func (n *NodeBuilder) Checkbox(options ...string) *NodeBuilder {
	return n.setType(domain.QuestionCheckbox, options)
}

// MultipleChoice makes the question a multiple choice among options.
func (n *NodeBuilder) MultipleChoice(options ...string) *NodeBuilder {
	return n.setType(domain.QuestionMultipleChoice, options)
}

// Required marks the question as mandatory.
func (n *NodeBuilder) Required() *NodeBuilder {
	if q, ok := n.question(); ok {
		q.IsRequired = true
		n.data = q
	}
	return n
}

// Weight sets the weight of a section.
func (n *NodeBuilder) Weight(w int) *NodeBuilder {
	s, ok := n.data.(domain.SectionData)
	if !ok {
		n.links = append(n.links, link{err: fmt.Errorf("%w: %s is not a section", domain.ErrInvalidNodeData, n.name)})
		return n
	}
	s.Weight = w
	n.data = s
	return n
}

// At places the node on the canvas.
func (n *NodeBuilder) At(x, y float64) *NodeBuilder {
	n.position = domain.Position{X: x, Y: y}
	return n
}

// Go adds an unlabeled (Default) branch to the target node.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	n.links = append(n.links, link{target: target})
	return n
}

// Branch adds a branch taken when option is picked.
// The option must already be declared on the question.
func (n *NodeBuilder) Branch(option, target string) *NodeBuilder {
	q, ok := n.question()
	if !ok {
		return n
	}
	i := slices.Index(q.Options, option)
	if i < 0 {
		n.links = append(n.links, link{err: fmt.Errorf("unknown option %q", option)})
		return n
	}
	return n.Handle(domain.OptionHandle(i), target)
}

// Yes adds the branch taken on a yes answer.
func (n *NodeBuilder) Yes(target string) *NodeBuilder { return n.Handle(domain.HandleYes, target) }

// No adds the branch taken on a no answer.
func (n *NodeBuilder) No(target string) *NodeBuilder { return n.Handle(domain.HandleNo, target) }

// AnyText adds the branch taken on any free text answer.
func (n *NodeBuilder) AnyText(target string) *NodeBuilder {
	return n.Handle(domain.HandleTextOutput, target)
}

// AllSelected adds the branch taken when every option is selected.
func (n *NodeBuilder) AllSelected(target string) *NodeBuilder {
	return n.Handle(domain.HandleMultiAll, target)
}

// Handle adds a branch through an explicit handle id.
func (n *NodeBuilder) Handle(handle, target string) *NodeBuilder {
	n.links = append(n.links, link{handle: handle, target: target})
	return n
}

// End returns the parent builder, to continue the chain.
func (n *NodeBuilder) End() *Builder {
	return n.builder
}
