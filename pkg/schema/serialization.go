package schema

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/quire/pkg/domain"
)

// Top-level keys every questionnaire document must carry.
const (
	KeyNodes = "nodes"
	KeyEdges = "edges"
)

// Export serializes the persistable part of a questionnaire as indented JSON.
// Editing-question nodes, and any edge touching them, are left out.
func Export(doc *domain.Questionnaire) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("schema: export of nil questionnaire")
	}

	out := Persistable(doc)
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal questionnaire: %w", err)
	}
	return data, nil
}

// Persistable returns a copy of doc without transient editing nodes.
// The result always has non-nil Nodes, Edges and question Options so that
// they encode as arrays.
func Persistable(doc *domain.Questionnaire) *domain.Questionnaire {
	out := &domain.Questionnaire{
		Nodes:        make([]domain.Node, 0, len(doc.Nodes)),
		Edges:        make([]domain.Edge, 0, len(doc.Edges)),
		TemplateName: doc.TemplateName,
	}

	transient := make(map[string]struct{})
	for _, n := range doc.Nodes {
		if n.Type == domain.NodeTypeEditingQuestion {
			transient[n.ID] = struct{}{}
			continue
		}
		out.Nodes = append(out.Nodes, withOptions(n.Clone()))
	}
	for _, e := range doc.Edges {
		if _, skip := transient[e.Source]; skip {
			continue
		}
		if _, skip := transient[e.Target]; skip {
			continue
		}
		out.Edges = append(out.Edges, e)
	}
	return out
}

// Import parses and validates a questionnaire document.
// A payload without a top-level "nodes" or "edges" key is rejected rather than
// treated as empty.
func Import(data []byte) (*domain.Questionnaire, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("invalid questionnaire JSON: %w", err)
	}

	var missing []error
	for _, key := range []string{KeyNodes, KeyEdges} {
		if _, ok := top[key]; !ok {
			missing = append(missing, Invalid(key, "required", nil))
		}
	}
	if err := Aggregate(missing); err != nil {
		return nil, err
	}

	var doc domain.Questionnaire
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid questionnaire JSON: %w", err)
	}
	if doc.Nodes == nil {
		doc.Nodes = []domain.Node{}
	}
	if doc.Edges == nil {
		doc.Edges = []domain.Edge{}
	}
	for i := range doc.Nodes {
		doc.Nodes[i] = withOptions(doc.Nodes[i])
	}

	if err := Validate(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// withOptions replaces nil question options with an empty list.
func withOptions(n domain.Node) domain.Node {
	if q, ok := n.Question(); ok && q.Options == nil {
		q.Options = []string{}
		n.Data = q
	}
	return n
}
