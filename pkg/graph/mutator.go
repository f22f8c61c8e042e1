package graph

import (
	"fmt"
	"math"
	"reflect"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// RemoveNode deletes the node and every edge that references it.
// Both collections are swapped in one step, so no caller ever observes a
// dangling edge. It returns the removed edges.
func (g *Graph) RemoveNode(id string) ([]domain.Edge, error) {
	i := g.indexOfNode(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}

	nodes := make([]domain.Node, 0, len(g.nodes)-1)
	nodes = append(nodes, g.nodes[:i]...)
	nodes = append(nodes, g.nodes[i+1:]...)

	edges := make([]domain.Edge, 0, len(g.edges))
	var removed []domain.Edge
	for _, e := range g.edges {
		if e.Touches(id) {
			removed = append(removed, e)
			continue
		}
		edges = append(edges, e)
	}

	g.nodes, g.edges = nodes, edges
	return removed, nil
}

// Connect creates an edge from source to target through handle.
// Both endpoints must exist; the label comes from ResolveConnection.
func (g *Graph) Connect(source, target, handle string) (domain.Edge, error) {
	si := g.indexOfNode(source)
	if si < 0 {
		return domain.Edge{}, fmt.Errorf("%w: source %s", domain.ErrNodeNotFound, source)
	}
	if g.indexOfNode(target) < 0 {
		return domain.Edge{}, fmt.Errorf("%w: target %s", domain.ErrNodeNotFound, target)
	}

	r := ResolveConnection(g.nodes[si], handle)
	e := domain.Edge{
		ID:           g.edgeID(source, target, handle),
		Source:       source,
		Target:       target,
		SourceHandle: handle,
		Label:        r.Label,
		Data:         r.Data,
	}
	g.edges = append(g.edges, e)
	return e, nil
}

// edgeID composes e<source>-<target>-<handle>-<millis>, bumping the timestamp
// until the id is free.
func (g *Graph) edgeID(source, target, handle string) string {
	ts := g.now().UnixMilli()
	for {
		id := fmt.Sprintf("e%s-%s-%s-%d", source, target, handle, ts)
		if g.indexOfEdge(id) < 0 {
			return id
		}
		ts++
	}
}

// RemoveEdge deletes a single edge.
func (g *Graph) RemoveEdge(id string) (domain.Edge, error) {
	i := g.indexOfEdge(id)
	if i < 0 {
		return domain.Edge{}, fmt.Errorf("%w: %s", domain.ErrEdgeNotFound, id)
	}
	e := g.edges[i]
	g.edges = append(g.edges[:i:i], g.edges[i+1:]...)
	return e, nil
}

// MoveNode updates the layout position of a node.
func (g *Graph) MoveNode(id string, pos domain.Position) error {
	i := g.indexOfNode(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	g.nodes[i].Position = pos
	return nil
}

// UpdateNodeData shallow-merges patch into the node's data.
// Keys use the JSON field names of the payload. Slices are replaced wholesale,
// so callers pass the full options list. Unknown keys are rejected and the merged
// payload must still be valid; on error the node is unchanged.
// A patch carrying "options" re-labels the node's option edges.
func (g *Graph) UpdateNodeData(id string, patch map[string]any) error {
	i := g.indexOfNode(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	n := g.nodes[i]

	merged, err := mergeData(n.Data, patch)
	if err != nil {
		return fmt.Errorf("node %s: %w", id, err)
	}
	if err := domain.CheckData(n.Type, merged); err != nil {
		return fmt.Errorf("node %s: %w", id, err)
	}

	g.nodes[i].Data = merged
	if _, ok := patch["options"]; ok {
		g.SyncLabels(id)
	}
	return nil
}

// SetNodeData replaces the node's data with a complete payload.
func (g *Graph) SetNodeData(id string, data domain.NodeData) error {
	i := g.indexOfNode(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	if err := domain.CheckData(g.nodes[i].Type, data); err != nil {
		return fmt.Errorf("node %s: %w", id, err)
	}
	g.nodes[i].Data = data.Clone()
	g.SyncLabels(id)
	return nil
}

// Promote turns an editing-question into a persisted question node.
// It is a no-op for other node types.
func (g *Graph) Promote(id string) error {
	i := g.indexOfNode(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	if g.nodes[i].Type == domain.NodeTypeEditingQuestion {
		g.nodes[i].Type = domain.NodeTypeQuestion
	}
	return nil
}

// SyncLabels recomputes the label of every "option-<i>" edge leaving id from the
// node's current options. Edges whose option no longer exists keep their label.
func (g *Graph) SyncLabels(id string) int {
	i := g.indexOfNode(id)
	if i < 0 {
		return 0
	}
	q, ok := g.nodes[i].Question()
	if !ok {
		return 0
	}

	updated := 0
	for j := range g.edges {
		e := &g.edges[j]
		if e.Source != id {
			continue
		}
		idx, ok := domain.ParseOptionHandle(e.SourceHandle)
		if !ok || idx >= len(q.Options) {
			continue
		}
		text := q.Options[idx]
		if e.Label != text || e.Data.OptionText != text {
			e.Label = text
			e.Data.OptionText = text
			updated++
		}
	}
	return updated
}

func mergeData(current domain.NodeData, patch map[string]any) (domain.NodeData, error) {
	switch d := current.(type) {
	case domain.QuestionData:
		out := d.Clone().(domain.QuestionData)
		if err := decodePatch(patch, &out); err != nil {
			return nil, err
		}
		return out, nil
	case domain.SectionData:
		out := d
		if err := decodePatch(patch, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: unsupported payload %T", domain.ErrInvalidNodeData, current)
}

func decodePatch(patch map[string]any, into any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      into,
		ErrorUnused: true,
		// Slices in the patch replace the current ones instead of merging by index.
		ZeroFields: true,
		DecodeHook: wholeNumberHook,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(patch); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidNodeData, err)
	}
	return nil
}

// wholeNumberHook refuses to truncate a fractional number into an integer
// field. JSON numbers arrive as float64, so 2.0 passes and 1.9 does not.
func wholeNumberHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.Float32 && from.Kind() != reflect.Float64 {
		return data, nil
	}
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return data, nil
	}
	f := reflect.ValueOf(data).Float()
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, fmt.Errorf("expected a whole number, got %v", data)
	}
	return data, nil
}
