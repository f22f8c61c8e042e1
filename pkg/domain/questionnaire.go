package domain

// Questionnaire is the persisted graph document.
// It is what the backend stores inside a scenario and what Export writes.
type Questionnaire struct {
	Nodes        []Node `json:"nodes"`
	Edges        []Edge `json:"edges"`
	TemplateName string `json:"templateName,omitempty"`
}

// FindNode returns the node with the given id.
func (q *Questionnaire) FindNode(id string) (Node, bool) {
	for _, n := range q.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// OutgoingEdges returns the edges leaving nodeID in document order.
func (q *Questionnaire) OutgoingEdges(nodeID string) []Edge {
	var out []Edge
	for _, e := range q.Edges {
		if e.Source == nodeID {
			out = append(out, e)
		}
	}
	return out
}

// Clone returns a deep copy of the document.
func (q *Questionnaire) Clone() *Questionnaire {
	if q == nil {
		return nil
	}
	c := &Questionnaire{
		Nodes:        make([]Node, len(q.Nodes)),
		Edges:        append([]Edge(nil), q.Edges...),
		TemplateName: q.TemplateName,
	}
	for i, n := range q.Nodes {
		c.Nodes[i] = n.Clone()
	}
	if c.Edges == nil {
		c.Edges = []Edge{}
	}
	return c
}
