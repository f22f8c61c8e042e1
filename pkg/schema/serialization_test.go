package schema

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDoc() *domain.Questionnaire {
	return &domain.Questionnaire{
		TemplateName: "Emergency Department",
		Nodes: []domain.Node{
			{ID: "1", Type: domain.NodeTypeSection, Position: domain.Position{X: 0, Y: 0},
				Data: domain.SectionData{SectionName: "Intake", Weight: 2}},
			{ID: "2", Type: domain.NodeTypeQuestion, Position: domain.Position{X: 100, Y: 50},
				Data: domain.QuestionData{Question: "Triage model?", QuestionType: domain.QuestionRadio, Options: []string{"ESI", "MTS"}}},
			{ID: "3", Type: domain.NodeTypeEditingQuestion,
				Data: domain.QuestionData{QuestionType: domain.QuestionTextInput}},
		},
		Edges: []domain.Edge{
			{ID: "e1-2", Source: "1", Target: "2", SourceHandle: domain.HandleTextOutput, Label: domain.LabelAnyText,
				Data: domain.EdgeData{OptionText: domain.LabelAnyText}},
			{ID: "e2-3", Source: "2", Target: "3", SourceHandle: "option-0", Label: "ESI",
				Data: domain.EdgeData{OptionText: "ESI", Condition: domain.QuestionRadio}},
		},
	}
}

func TestExport_DropsEditingNodes(t *testing.T) {
	data, err := Export(sampleDoc())
	require.NoError(t, err)

	var out domain.Questionnaire
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Len(t, out.Nodes, 2)
	assert.Len(t, out.Edges, 1, "edge into the editing node must be dropped")
	assert.Equal(t, "e1-2", out.Edges[0].ID)
	assert.True(t, strings.Contains(string(data), "\n  \"nodes\""), "export should be indented")
}

func TestExport_EmptyOptionsAreArrays(t *testing.T) {
	doc := &domain.Questionnaire{
		Nodes: []domain.Node{
			{ID: "1", Type: domain.NodeTypeQuestion,
				Data: domain.QuestionData{Question: "Free text?", QuestionType: domain.QuestionTextInput, Options: []string{}}},
			{ID: "2", Type: domain.NodeTypeQuestion,
				Data: domain.QuestionData{Question: "Open now?", QuestionType: domain.QuestionYesNo}},
		},
		Edges: []domain.Edge{},
	}
	data, err := Export(doc)
	require.NoError(t, err)

	var raw struct {
		Nodes []struct {
			Data map[string]json.RawMessage `json:"data"`
		} `json:"nodes"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw.Nodes, 2)
	for _, n := range raw.Nodes {
		assert.JSONEq(t, `[]`, string(n.Data["options"]))
	}
	assert.NotContains(t, string(data), `"options": null`)

	loaded, err := Import([]byte(`{"nodes":[{"id":"1","type":"question","position":{"x":0,"y":0},
		"data":{"question":"Q","questionType":"text-input","options":null}}],"edges":[]}`))
	require.NoError(t, err)
	q, ok := loaded.Nodes[0].Question()
	require.True(t, ok)
	assert.NotNil(t, q.Options)
}

func TestImport_RoundTrip(t *testing.T) {
	doc := sampleDoc()
	data, err := Export(doc)
	require.NoError(t, err)

	loaded, err := Import(data)
	require.NoError(t, err)

	assert.Equal(t, Persistable(doc), loaded)
}

func TestImport_MissingKeys(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		keys    []string
	}{
		{"missing edges", `{"nodes":[]}`, []string{"edges"}},
		{"missing nodes", `{"edges":[]}`, []string{"nodes"}},
		{"missing both", `{"name":"x"}`, []string{"nodes", "edges"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Import([]byte(tt.payload))
			require.Error(t, err)

			var keys []string
			for _, ve := range ValidationErrors(err) {
				keys = append(keys, ve.Key)
			}
			assert.ElementsMatch(t, tt.keys, keys)
		})
	}
}

func TestImport_Malformed(t *testing.T) {
	_, err := Import([]byte(`{"nodes": [`))
	require.Error(t, err)
	assert.False(t, IsValidation(err))
}

func TestImport_RejectsDanglingEdges(t *testing.T) {
	payload := `{
		"nodes":[{"id":"1","type":"question","position":{"x":0,"y":0},"data":{"question":"Q","questionType":"yes-no","options":[]}}],
		"edges":[{"id":"e1","source":"1","target":"404","sourceHandle":"yes","label":"Yes","data":{"optionText":"Yes"}}]
	}`
	_, err := Import([]byte(payload))
	require.Error(t, err)

	ves := ValidationErrors(err)
	require.Len(t, ves, 1)
	assert.Equal(t, "edges[0].target", ves[0].Key)
}

func TestValidate_DuplicateIDsAndWeights(t *testing.T) {
	doc := &domain.Questionnaire{
		Nodes: []domain.Node{
			{ID: "1", Type: domain.NodeTypeSection, Data: domain.SectionData{SectionName: "A", Weight: 0}},
			{ID: "1", Type: domain.NodeTypeQuestion, Data: domain.QuestionData{QuestionType: domain.QuestionYesNo}},
		},
	}
	err := Validate(doc)
	require.Error(t, err)

	var aggr *AggregateError
	require.True(t, errors.As(err, &aggr))
	assert.Len(t, aggr.Errors, 2)
}
