package graph

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/schema"
)

// Graph is the authoritative, mutable questionnaire graph of one editing session.
// It is not safe for concurrent use; callers serialize access.
type Graph struct {
	nodes        []domain.Node
	edges        []domain.Edge
	nextID       int
	templateName string
	now          func() time.Time
}

// Option configures a Graph.
type Option func(*Graph)

// WithClock overrides the time source used to compose edge ids.
func WithClock(now func() time.Time) Option {
	return func(g *Graph) {
		g.now = now
	}
}

// New creates an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		nodes:  []domain.Node{},
		edges:  []domain.Edge{},
		nextID: 1,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AddNode creates a node with a fresh id. The payload must match the node type.
func (g *Graph) AddNode(t domain.NodeType, data domain.NodeData, pos domain.Position) (domain.Node, error) {
	if err := domain.CheckData(t, data); err != nil {
		return domain.Node{}, err
	}

	id := strconv.Itoa(g.nextID)
	for g.indexOfNode(id) >= 0 {
		g.nextID++
		id = strconv.Itoa(g.nextID)
	}
	g.nextID++

	n := domain.Node{ID: id, Type: t, Position: pos, Data: data.Clone()}
	g.nodes = append(g.nodes, n)
	return n.Clone(), nil
}

// FindNode returns a copy of the node with the given id.
func (g *Graph) FindNode(id string) (domain.Node, bool) {
	i := g.indexOfNode(id)
	if i < 0 {
		return domain.Node{}, false
	}
	return g.nodes[i].Clone(), true
}

// FindEdge returns the edge with the given id.
func (g *Graph) FindEdge(id string) (domain.Edge, bool) {
	for _, e := range g.edges {
		if e.ID == id {
			return e, true
		}
	}
	return domain.Edge{}, false
}

// Nodes returns a copy of all nodes in insertion order.
func (g *Graph) Nodes() []domain.Node {
	out := make([]domain.Node, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n.Clone()
	}
	return out
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []domain.Edge {
	return append([]domain.Edge{}, g.edges...)
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// NextID returns the id the next AddNode call will try first.
func (g *Graph) NextID() int {
	return g.nextID
}

// SetTemplateName records the template name carried by snapshots.
func (g *Graph) SetTemplateName(name string) {
	g.templateName = name
}

// Snapshot returns a deep copy of the graph as a questionnaire document.
func (g *Graph) Snapshot() *domain.Questionnaire {
	return &domain.Questionnaire{
		Nodes:        g.Nodes(),
		Edges:        g.Edges(),
		TemplateName: g.templateName,
	}
}

// Load replaces the whole graph with doc after validating it.
// On failure the graph is left untouched. The id counter restarts above the
// largest numeric id found, so imported ids are never reused.
func (g *Graph) Load(doc *domain.Questionnaire) error {
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("invalid questionnaire: %w", err)
	}

	c := doc.Clone()
	g.nodes = c.Nodes
	g.edges = c.Edges
	if doc.TemplateName != "" {
		g.templateName = doc.TemplateName
	}
	g.nextID = NextCounter(c.Nodes)
	return nil
}

var trailingDigits = regexp.MustCompile(`(\d+)$`)

// NextCounter computes max(numeric node ids) + 1, with 0 as the floor.
// Ids are numeric when they end in a run of digits ("7", "node-7").
func NextCounter(nodes []domain.Node) int {
	highest := 0
	for _, n := range nodes {
		m := trailingDigits.FindString(n.ID)
		if m == "" {
			continue
		}
		v, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		if v > highest {
			highest = v
		}
	}
	return highest + 1
}

func (g *Graph) indexOfNode(id string) int {
	for i, n := range g.nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func (g *Graph) indexOfEdge(id string) int {
	for i, e := range g.edges {
		if e.ID == id {
			return i
		}
	}
	return -1
}
