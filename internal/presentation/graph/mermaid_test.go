package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/quire/internal/presentation/graph"
	"github.com/aretw0/quire/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		doc      domain.Questionnaire
		overlay  *graph.Overlay
		contains []string
		excludes []string
	}{
		{
			name: "Section Node Shape",
			doc: domain.Questionnaire{Nodes: []domain.Node{
				{ID: "1", Type: domain.NodeTypeSection, Data: domain.SectionData{SectionName: "Intake", Weight: 3}},
			}},
			contains: []string{`n1[["Intake <br/> weight 3"]]`},
		},
		{
			name: "Question Node Shape",
			doc: domain.Questionnaire{Nodes: []domain.Node{
				{ID: "2", Type: domain.NodeTypeQuestion, Data: domain.QuestionData{Question: "Helipad?", QuestionType: domain.QuestionYesNo, IsRequired: true}},
			}},
			contains: []string{`n2[/"Helipad? *<br/><i>yes-no</i>"/]`},
		},
		{
			name: "Editing Question Is Drafted",
			doc: domain.Questionnaire{Nodes: []domain.Node{
				{ID: "3", Type: domain.NodeTypeEditingQuestion, Data: domain.QuestionData{QuestionType: domain.QuestionTextInput}},
			}},
			contains: []string{`n3["(untitled question)`, "class n3 draft;"},
		},
		{
			name: "Labeled Edge Escaping",
			doc: domain.Questionnaire{
				Nodes: []domain.Node{
					{ID: "1", Type: domain.NodeTypeQuestion, Data: domain.QuestionData{Question: "Say \"hi\"", QuestionType: domain.QuestionRadio}},
					{ID: "2", Type: domain.NodeTypeSection, Data: domain.SectionData{SectionName: "Next", Weight: 1}},
				},
				Edges: []domain.Edge{{ID: "e1", Source: "1", Target: "2", SourceHandle: "option-0", Label: "The \"A\" one"}},
			},
			contains: []string{`Say 'hi'`, `n1 -- "The 'A' one" --> n2`},
		},
		{
			name: "Unlabeled Edge",
			doc: domain.Questionnaire{
				Edges: []domain.Edge{{ID: "e1", Source: "a-b", Target: "c.d"}},
			},
			contains: []string{"a_b --> c_d"},
		},
		{
			name: "Overlay Deduplicates",
			doc: domain.Questionnaire{Nodes: []domain.Node{
				{ID: "1", Type: domain.NodeTypeSection, Data: domain.SectionData{SectionName: "S", Weight: 1}},
			}},
			overlay:  &graph.Overlay{Selected: []string{"1", "1"}, Unanswered: []string{"2"}},
			contains: []string{"class n1 selected;", "class n2 unanswered;"},
		},
		{
			name:     "No Overlay No Styles",
			doc:      domain.Questionnaire{},
			excludes: []string{"classDef"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(&tt.doc, tt.overlay)
			if !strings.HasPrefix(got, "graph TD\n") {
				t.Errorf("missing header:\n%s", got)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("expected output to contain %q\nGot:\n%s", want, got)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(got, bad) {
					t.Errorf("expected output not to contain %q\nGot:\n%s", bad, got)
				}
			}
			if strings.Count(got, "class n1 selected;") > 1 {
				t.Errorf("duplicate overlay class:\n%s", got)
			}
		})
	}
}

func TestGenerateMermaid_Nil(t *testing.T) {
	if got := graph.GenerateMermaid(nil, nil); got != "graph TD\n" {
		t.Errorf("unexpected output %q", got)
	}
}
