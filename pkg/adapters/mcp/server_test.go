package mcp_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/quire"
	quiremcp "github.com/aretw0/quire/pkg/adapters/mcp"
	"github.com/aretw0/quire/pkg/adapters/memory"
	"github.com/aretw0/quire/pkg/builder"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *quiremcp.Server {
	t.Helper()
	studio := quire.NewStudio(memory.NewBackend(), memory.NewDraftStore(),
		quire.WithClock(func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }),
	)
	return quiremcp.NewServer(studio, "test")
}

func call(t *testing.T, s *quiremcp.Server, tool string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	st := s.MCPServer().GetTool(tool)
	require.NotNil(t, st, "tool %s not registered", tool)
	res, err := st.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: tool, Arguments: args},
	})
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return tc.Text
}

func TestServer_RegistersTools(t *testing.T) {
	s := newServer(t)
	tools := s.MCPServer().ListTools()
	for _, name := range []string{
		"create_session", "set_metadata", "add_question", "add_section",
		"connect", "delete_node", "export_questionnaire", "get_graph", "save",
	} {
		assert.Contains(t, tools, name)
	}
}

func TestServer_BuildAndSave(t *testing.T) {
	s := newServer(t)

	res := call(t, s, "create_session", map[string]any{})
	require.False(t, res.IsError, "create_session failed")
	summary, ok := res.StructuredContent.(quiremcp.SessionSummary)
	require.True(t, ok)
	assert.Equal(t, "awaiting-metadata", summary.Phase)
	id := summary.ID

	res = call(t, s, "set_metadata", map[string]any{
		"session_id": id,
		"name":       "ER triage",
		"facilities": []any{"Hospital"},
		"services":   []any{"Emergency"},
	})
	require.False(t, res.IsError, "set_metadata failed")
	assert.Equal(t, "editing", res.StructuredContent.(quiremcp.SessionSummary).Phase)

	res = call(t, s, "add_section", map[string]any{
		"session_id":   id,
		"section_name": "Arrival",
		"weight":       2,
	})
	require.False(t, res.IsError, "add_section failed")
	section := res.StructuredContent.(domain.Node)
	assert.Equal(t, domain.NodeTypeSection, section.Type)

	res = call(t, s, "add_question", map[string]any{
		"session_id":    id,
		"question":      "Mode of arrival?",
		"question_type": "radio",
		"options":       []any{"Ambulance", "Walk-in"},
		"is_required":   true,
		"x":             0,
		"y":             120,
	})
	require.False(t, res.IsError, "add_question failed")
	question := res.StructuredContent.(domain.Node)
	assert.Equal(t, domain.NodeTypeQuestion, question.Type)

	res = call(t, s, "connect", map[string]any{
		"session_id":    id,
		"source":        question.ID,
		"target":        section.ID,
		"source_handle": "option-0",
	})
	require.False(t, res.IsError, "connect failed")
	assert.Equal(t, "Ambulance", res.StructuredContent.(domain.Edge).Label)

	res = call(t, s, "export_questionnaire", map[string]any{"session_id": id})
	require.False(t, res.IsError)
	var doc domain.Questionnaire
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &doc))
	assert.Len(t, doc.Nodes, 2)
	assert.Len(t, doc.Edges, 1)

	res = call(t, s, "get_graph", map[string]any{"session_id": id})
	require.False(t, res.IsError)
	assert.Contains(t, text(t, res), "graph TD")

	res = call(t, s, "save", map[string]any{"session_id": id})
	require.False(t, res.IsError, "save failed")
	saved := res.StructuredContent.(builder.SaveResult)
	assert.True(t, saved.Created)
	assert.NotEmpty(t, saved.ScenarioID)
}

func TestServer_InvalidQuestionIsDiscarded(t *testing.T) {
	s := newServer(t)
	id := call(t, s, "create_session", map[string]any{}).StructuredContent.(quiremcp.SessionSummary).ID
	call(t, s, "set_metadata", map[string]any{
		"session_id": id, "name": "Intake",
		"facilities": []any{"Clinic"}, "services": []any{"Emergency"},
	})

	res := call(t, s, "add_question", map[string]any{
		"session_id": id,
		"question":   "",
	})
	assert.True(t, res.IsError)

	res = call(t, s, "export_questionnaire", map[string]any{"session_id": id})
	var doc domain.Questionnaire
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &doc))
	assert.Empty(t, doc.Nodes)
}

func TestServer_SectionWeight(t *testing.T) {
	s := newServer(t)
	id := call(t, s, "create_session", map[string]any{}).StructuredContent.(quiremcp.SessionSummary).ID
	call(t, s, "set_metadata", map[string]any{
		"session_id": id, "name": "Intake",
		"facilities": []any{"Clinic"}, "services": []any{"Emergency"},
	})

	res := call(t, s, "add_section", map[string]any{
		"session_id": id, "section_name": "Zero", "weight": 0,
	})
	assert.True(t, res.IsError, "explicit weight 0 must be rejected")

	res = call(t, s, "add_section", map[string]any{
		"session_id": id, "section_name": "Default",
	})
	require.False(t, res.IsError)
	sec, ok := res.StructuredContent.(domain.Node).Section()
	require.True(t, ok)
	assert.Equal(t, domain.DefaultSectionWeight, sec.Weight)

	res = call(t, s, "export_questionnaire", map[string]any{"session_id": id})
	var doc domain.Questionnaire
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &doc))
	require.Len(t, doc.Nodes, 1)
	sec, _ = doc.Nodes[0].Section()
	assert.Equal(t, "Default", sec.SectionName)
}

func TestServer_DeleteNode(t *testing.T) {
	s := newServer(t)
	id := call(t, s, "create_session", map[string]any{}).StructuredContent.(quiremcp.SessionSummary).ID
	call(t, s, "set_metadata", map[string]any{
		"session_id": id, "name": "Intake",
		"facilities": []any{"Clinic"}, "services": []any{"Emergency"},
	})
	node := call(t, s, "add_section", map[string]any{
		"session_id": id, "section_name": "Vitals",
	}).StructuredContent.(domain.Node)

	res := call(t, s, "delete_node", map[string]any{"session_id": id, "node_id": node.ID})
	require.False(t, res.IsError)
	assert.Contains(t, text(t, res), "deleted")

	res = call(t, s, "delete_node", map[string]any{"session_id": id, "node_id": node.ID})
	assert.True(t, res.IsError)
}

func TestServer_UnknownSession(t *testing.T) {
	s := newServer(t)
	res := call(t, s, "export_questionnaire", map[string]any{"session_id": "missing"})
	assert.True(t, res.IsError)

	res = call(t, s, "export_questionnaire", map[string]any{})
	assert.True(t, res.IsError)
}

func TestServer_SessionsResource(t *testing.T) {
	s := newServer(t)
	id := call(t, s, "create_session", map[string]any{}).StructuredContent.(quiremcp.SessionSummary).ID

	rr := s.MCPServer().HandleMessage(context.Background(), []byte(`{
		"jsonrpc": "2.0", "id": 1, "method": "resources/read",
		"params": {"uri": "quire://sessions"}
	}`))
	raw, err := json.Marshal(rr)
	require.NoError(t, err)

	var resp struct {
		Result struct {
			Contents []struct {
				URI  string `json:"uri"`
				Text string `json:"text"`
			} `json:"contents"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &resp))
	require.Len(t, resp.Result.Contents, 1)
	assert.Equal(t, quiremcp.SessionsURI, resp.Result.Contents[0].URI)

	var sessions []quiremcp.SessionSummary
	require.NoError(t, json.Unmarshal([]byte(resp.Result.Contents[0].Text), &sessions))
	require.Len(t, sessions, 1)
	assert.Equal(t, id, sessions[0].ID)
}

func TestServer_SSEHandlerPreflight(t *testing.T) {
	s := newServer(t)
	h := s.SSEHandler("http://localhost:0")

	req := httptest.NewRequest(http.MethodOptions, "/message", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
