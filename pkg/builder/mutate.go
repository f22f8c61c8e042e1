package builder

import (
	"context"
	"fmt"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/editor"
	"github.com/aretw0/quire/pkg/schema"
)

// NewQuestionData is the payload of a freshly added question.
func NewQuestionData() domain.QuestionData {
	return domain.QuestionData{QuestionType: domain.QuestionTextInput, Options: []string{}}
}

// NewSectionData is the payload of a freshly added section.
func NewSectionData() domain.SectionData {
	return domain.SectionData{Weight: domain.DefaultSectionWeight}
}

// AddNode adds a node with a complete payload.
func (s *Session) AddNode(ctx context.Context, t domain.NodeType, data domain.NodeData, pos domain.Position) (domain.Node, error) {
	s.mu.Lock()
	if err := s.editable(); err != nil {
		s.mu.Unlock()
		return domain.Node{}, err
	}
	n, err := s.graph.AddNode(t, data, pos)
	if err != nil {
		s.mu.Unlock()
		return domain.Node{}, err
	}
	s.touch()
	s.mu.Unlock()

	s.nodeAdded(ctx, n)
	return n, nil
}

// AddQuestion adds an editing-question node and opens an editor on it.
// Cancelling the editor removes the node again.
func (s *Session) AddQuestion(ctx context.Context, pos domain.Position) (*editor.QuestionEditor, error) {
	n, err := s.AddNode(ctx, domain.NodeTypeEditingQuestion, NewQuestionData(), pos)
	if err != nil {
		return nil, err
	}
	return editor.NewQuestionEditor(n, true, s.callbacks(ctx))
}

// AddSection adds an unnamed section and opens an editor on it.
func (s *Session) AddSection(ctx context.Context, pos domain.Position) (*editor.SectionEditor, error) {
	n, err := s.AddNode(ctx, domain.NodeTypeSection, NewSectionData(), pos)
	if err != nil {
		return nil, err
	}
	return editor.NewSectionEditor(n, s.callbacks(ctx))
}

// EditQuestion opens an editor on an existing question node.
func (s *Session) EditQuestion(ctx context.Context, id string) (*editor.QuestionEditor, error) {
	n, err := s.editableNode(id)
	if err != nil {
		return nil, err
	}
	return editor.NewQuestionEditor(n, n.Type == domain.NodeTypeEditingQuestion, s.callbacks(ctx))
}

// EditSection opens an editor on an existing section node.
func (s *Session) EditSection(ctx context.Context, id string) (*editor.SectionEditor, error) {
	n, err := s.editableNode(id)
	if err != nil {
		return nil, err
	}
	return editor.NewSectionEditor(n, s.callbacks(ctx))
}

func (s *Session) editableNode(id string) (domain.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return domain.Node{}, err
	}
	n, ok := s.graph.FindNode(id)
	if !ok {
		return domain.Node{}, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	return n, nil
}

// Node returns a copy of a node.
func (s *Session) Node(id string) (domain.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.FindNode(id)
}

// UpdateNode shallow-merges patch into the node's data. An editing-question
// is promoted to a question once its data has been updated.
func (s *Session) UpdateNode(_ context.Context, id string, patch map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	if err := s.graph.UpdateNodeData(id, patch); err != nil {
		return err
	}
	if err := s.graph.Promote(id); err != nil {
		return err
	}
	s.touch()
	return nil
}

// DeleteNode removes a node and every edge touching it.
func (s *Session) DeleteNode(ctx context.Context, id string) error {
	s.mu.Lock()
	if err := s.editable(); err != nil {
		s.mu.Unlock()
		return err
	}
	n, _ := s.graph.FindNode(id)
	removed, err := s.graph.RemoveNode(id)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.touch()
	s.mu.Unlock()

	for _, e := range removed {
		s.edgeRemoved(ctx, e)
	}
	if s.hooks.OnNodeRemoved != nil {
		s.hooks.OnNodeRemoved(ctx, &domain.NodeEvent{
			EventBase: s.base(domain.EventNodeRemoved),
			NodeID:    n.ID,
			NodeType:  n.Type,
			Cascaded:  len(removed),
		})
	}
	return nil
}

// Connect adds an edge from the source handle to target, labelled from the
// source node's current data.
func (s *Session) Connect(ctx context.Context, source, target, handle string) (domain.Edge, error) {
	s.mu.Lock()
	if err := s.editable(); err != nil {
		s.mu.Unlock()
		return domain.Edge{}, err
	}
	e, err := s.graph.Connect(source, target, handle)
	if err != nil {
		s.mu.Unlock()
		return domain.Edge{}, err
	}
	s.touch()
	s.mu.Unlock()

	if s.hooks.OnEdgeAdded != nil {
		s.hooks.OnEdgeAdded(ctx, edgeEvent(s.base(domain.EventEdgeAdded), e))
	}
	return e, nil
}

// RemoveEdge deletes a single edge.
func (s *Session) RemoveEdge(ctx context.Context, id string) error {
	s.mu.Lock()
	if err := s.editable(); err != nil {
		s.mu.Unlock()
		return err
	}
	e, err := s.graph.RemoveEdge(id)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.touch()
	s.mu.Unlock()

	s.edgeRemoved(ctx, e)
	return nil
}

// MoveNode changes the canvas position of a node.
func (s *Session) MoveNode(_ context.Context, id string, pos domain.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	if err := s.graph.MoveNode(id, pos); err != nil {
		return err
	}
	s.touch()
	return nil
}

// Export serializes the persistable part of the graph.
func (s *Session) Export() ([]byte, error) {
	s.mu.Lock()
	doc := s.graph.Snapshot()
	s.mu.Unlock()
	return schema.Export(doc)
}

// Import replaces the graph with a serialized questionnaire. Import is
// all-or-nothing: on any error the current graph is left untouched.
func (s *Session) Import(_ context.Context, data []byte) error {
	doc, err := schema.Import(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	if err := s.graph.Load(doc); err != nil {
		return err
	}
	if s.meta.Name != "" {
		s.graph.SetTemplateName(s.meta.Name)
	}
	s.touch()
	s.logger.Info("Questionnaire imported", "nodes", len(doc.Nodes), "edges", len(doc.Edges))
	return nil
}

func (s *Session) nodeAdded(ctx context.Context, n domain.Node) {
	if s.hooks.OnNodeAdded == nil {
		return
	}
	s.hooks.OnNodeAdded(ctx, &domain.NodeEvent{
		EventBase: s.base(domain.EventNodeAdded),
		NodeID:    n.ID,
		NodeType:  n.Type,
	})
}

func (s *Session) edgeRemoved(ctx context.Context, e domain.Edge) {
	if s.hooks.OnEdgeRemoved == nil {
		return
	}
	s.hooks.OnEdgeRemoved(ctx, edgeEvent(s.base(domain.EventEdgeRemoved), e))
}

func edgeEvent(base domain.EventBase, e domain.Edge) *domain.EdgeEvent {
	return &domain.EdgeEvent{
		EventBase: base,
		EdgeID:    e.ID,
		Source:    e.Source,
		Target:    e.Target,
		Handle:    e.SourceHandle,
		Label:     e.Label,
	}
}

// callbacks binds editor results to this session.
func (s *Session) callbacks(ctx context.Context) editor.Callbacks {
	return sessionCallbacks{s: s, ctx: ctx}
}

type sessionCallbacks struct {
	s   *Session
	ctx context.Context
}

func (c sessionCallbacks) OnUpdate(nodeID string, patch map[string]any) error {
	return c.s.UpdateNode(c.ctx, nodeID, patch)
}

func (c sessionCallbacks) OnDelete(nodeID string) error {
	return c.s.DeleteNode(c.ctx, nodeID)
}
