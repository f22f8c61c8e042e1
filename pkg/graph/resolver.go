package graph

import "github.com/aretw0/quire/pkg/domain"

// Resolution is the label and payload computed for a new edge.
type Resolution struct {
	Label string
	Data  domain.EdgeData
}

// ResolveConnection computes the branch label of an edge leaving source through handle.
// It is a pure function of the source node's current data and the handle id.
func ResolveConnection(source domain.Node, handle string) Resolution {
	q, isQuestion := source.Question()

	label := domain.LabelDefault
	if i, ok := domain.ParseOptionHandle(handle); ok {
		if isQuestion && i < len(q.Options) {
			label = q.Options[i]
		}
	} else {
		switch handle {
		case domain.HandleMultiAll:
			label = domain.LabelAllSelected
		case domain.HandleYes:
			label = domain.LabelYes
		case domain.HandleNo:
			label = domain.LabelNo
		case domain.HandleTextOutput:
			label = domain.LabelAnyText
		}
	}

	r := Resolution{Label: label, Data: domain.EdgeData{OptionText: label}}
	if isQuestion {
		r.Data.Condition = q.QuestionType
	}
	return r
}
