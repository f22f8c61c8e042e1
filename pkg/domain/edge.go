package domain

// Edge is a directed, labeled transition between two nodes.
// Following it means "if the source answer matches the handle, continue at target".
type Edge struct {
	ID           string   `json:"id"`
	Source       string   `json:"source"`
	Target       string   `json:"target"`
	SourceHandle string   `json:"sourceHandle"`
	Label        string   `json:"label"`
	Data         EdgeData `json:"data"`
}

// EdgeData carries the display copy of the branch.
// OptionText mirrors Label; Condition is the source question type at creation time
// and is never used to evaluate answers.
type EdgeData struct {
	OptionText string       `json:"optionText"`
	Condition  QuestionType `json:"condition,omitempty"`
}

// Touches reports whether the edge starts or ends at nodeID.
func (e Edge) Touches(nodeID string) bool {
	return e.Source == nodeID || e.Target == nodeID
}
