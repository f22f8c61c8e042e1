package dsl

import (
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/graph"
)

// RowSpacing is the vertical gap used when a node has no explicit position.
const RowSpacing = 120

// Builder manages the questionnaire construction.
// Nodes are referenced by local names; Build assigns the real numeric ids.
type Builder struct {
	name  string
	order []string
	nodes map[string]*NodeBuilder
	errs  []error
	now   func() time.Time
}

// New creates a new questionnaire builder for a template name.
func New(templateName string) *Builder {
	return &Builder{
		name:  templateName,
		nodes: make(map[string]*NodeBuilder),
		now:   time.Now,
	}
}

// WithClock fixes the clock used for edge ids.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Section adds a section node.
func (b *Builder) Section(name, title string) *NodeBuilder {
	return b.add(name, domain.NodeTypeSection, domain.SectionData{
		SectionName: title,
		Weight:      domain.DefaultSectionWeight,
	})
}

// Question adds a text-input question node. Use the type methods of
// NodeBuilder to change its answer widget.
func (b *Builder) Question(name, text string) *NodeBuilder {
	return b.add(name, domain.NodeTypeQuestion, domain.QuestionData{
		Question:     text,
		QuestionType: domain.QuestionTextInput,
		Options:      []string{},
	})
}

func (b *Builder) add(name string, t domain.NodeType, data domain.NodeData) *NodeBuilder {
	if nb, ok := b.nodes[name]; ok {
		b.errs = append(b.errs, fmt.Errorf("node %q declared twice", name))
		return nb
	}
	nb := &NodeBuilder{
		name:     name,
		typ:      t,
		data:     data,
		position: domain.Position{X: 0, Y: float64(len(b.order) * RowSpacing)},
		builder:  b,
	}
	b.nodes[name] = nb
	b.order = append(b.order, name)
	return nb
}

// Build compiles the declarations into a questionnaire document.
// All declaration errors are reported together.
func (b *Builder) Build() (*domain.Questionnaire, error) {
	g := graph.New(graph.WithClock(b.now))
	g.SetTemplateName(b.name)

	errs := append([]error(nil), b.errs...)
	ids := make(map[string]string, len(b.order))
	for _, name := range b.order {
		nb := b.nodes[name]
		n, err := g.AddNode(nb.typ, nb.data, nb.position)
		if err != nil {
			errs = append(errs, fmt.Errorf("node %q: %w", name, err))
			continue
		}
		ids[name] = n.ID
	}

	for _, name := range b.order {
		source, added := ids[name]
		for _, l := range b.nodes[name].links {
			if l.err != nil {
				errs = append(errs, fmt.Errorf("node %q: %w", name, l.err))
				continue
			}
			if !added {
				continue
			}
			target, ok := ids[l.target]
			if !ok {
				errs = append(errs, fmt.Errorf("node %q: %w: %s", name, domain.ErrNodeNotFound, l.target))
				continue
			}
			if _, err := g.Connect(source, target, l.handle); err != nil {
				errs = append(errs, fmt.Errorf("node %q: %w", name, err))
			}
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return g.Snapshot(), nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *domain.Questionnaire {
	q, err := b.Build()
	if err != nil {
		panic(err)
	}
	return q
}
