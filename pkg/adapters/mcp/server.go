package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/quire/internal/logging"
	"github.com/aretw0/quire/internal/presentation/graph"
	"github.com/aretw0/quire/pkg/builder"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SessionsURI is the resource listing every session.
const SessionsURI = "quire://sessions"

// Studio is the builder surface the MCP server drives.
type Studio interface {
	NewSession(ctx context.Context) (*builder.Session, error)
	Open(ctx context.Context, scenarioID string) (*builder.Session, error)
	Session(ctx context.Context, id string) (*builder.Session, error)
	Do(ctx context.Context, id string, fn func(context.Context, *builder.Session) error) error
	Save(ctx context.Context, id string) (*builder.SaveResult, error)
	Sessions(ctx context.Context) ([]string, error)
}

// SessionSummary is the structured result of session tools.
type SessionSummary struct {
	ID         string   `json:"id" jsonschema_description:"Session id to pass to the other tools"`
	Phase      string   `json:"phase" jsonschema_description:"awaiting-metadata, editing or saving"`
	ScenarioID string   `json:"scenario_id,omitempty" jsonschema_description:"Backend scenario bound to the session"`
	Name       string   `json:"name,omitempty"`
	Facilities []string `json:"facilities,omitempty"`
	Services   []string `json:"services,omitempty"`
	Nodes      int      `json:"nodes"`
	Edges      int      `json:"edges"`
}

func summarize(s *builder.Session) SessionSummary {
	doc := s.Snapshot()
	meta := s.Metadata()
	return SessionSummary{
		ID:         s.ID(),
		Phase:      string(s.Phase()),
		ScenarioID: s.ScenarioID(),
		Name:       meta.Name,
		Facilities: meta.Facilities,
		Services:   meta.Services,
		Nodes:      len(doc.Nodes),
		Edges:      len(doc.Edges),
	}
}

// Server exposes a Studio as an MCP server.
type Server struct {
	studio    Studio
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the tool logger. Logs must not go to stdout when serving stdio.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(studio Studio, version string, opts ...Option) *Server {
	s := &Server{
		studio: studio,
		mcpServer: server.NewMCPServer("quire-mcp", version,
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// SSEHandler serves the SSE transport at /sse and /message.
func (s *Server) SSEHandler(baseURL string) http.Handler {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	r := chi.NewRouter()
	r.Use(corsMiddleware)
	r.Handle("/sse", sseServer.SSEHandler())
	r.Handle("/message", sseServer.MessageHandler())
	return r
}

// ServeSSE listens on port until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.SSEHandler(fmt.Sprintf("http://localhost:%d", port)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type createSessionArgs struct {
	ScenarioID string `json:"scenario_id"`
}

type metadataArgs struct {
	SessionID  string   `json:"session_id"`
	Name       string   `json:"name"`
	Facilities []string `json:"facilities"`
	Services   []string `json:"services"`
}

type questionArgs struct {
	SessionID    string   `json:"session_id"`
	Question     string   `json:"question"`
	QuestionType string   `json:"question_type"`
	Options      []string `json:"options"`
	IsRequired   bool     `json:"is_required"`
	X            float64  `json:"x"`
	Y            float64  `json:"y"`
}

type sectionArgs struct {
	SessionID   string  `json:"session_id"`
	SectionName string  `json:"section_name"`
	Weight      *int    `json:"weight"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
}

type connectArgs struct {
	SessionID    string `json:"session_id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"source_handle"`
}

type nodeArgs struct {
	SessionID string `json:"session_id"`
	NodeID    string `json:"node_id"`
}

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

func sessionParam() mcp.ToolOption {
	return mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id returned by create_session"))
}

func (s *Server) registerTools() {
	// TOOL: create_session
	s.mcpServer.AddTool(mcp.NewTool("create_session",
		mcp.WithDescription("Start a questionnaire session. Without scenario_id a new template is started and waits for set_metadata."),
		mcp.WithString("scenario_id", mcp.Description("Existing scenario to edit (optional)")),
		mcp.WithOutputSchema[SessionSummary](),
	), mcp.NewStructuredToolHandler(s.handleCreateSession))

	// TOOL: set_metadata
	s.mcpServer.AddTool(mcp.NewTool("set_metadata",
		mcp.WithDescription("Set the template name, facility types and service lines (by name)."),
		sessionParam(),
		mcp.WithString("name", mcp.Required(), mcp.Description("Template name")),
		mcp.WithArray("facilities", mcp.Required(), mcp.WithStringItems(), mcp.Description("Facility type names")),
		mcp.WithArray("services", mcp.Required(), mcp.WithStringItems(), mcp.Description("Service line names")),
		mcp.WithOutputSchema[SessionSummary](),
	), mcp.NewStructuredToolHandler(s.handleSetMetadata))

	// TOOL: add_question
	s.mcpServer.AddTool(mcp.NewTool("add_question",
		mcp.WithDescription("Add a question node. Options are required for radio, checkbox, multiple-choice and select."),
		sessionParam(),
		mcp.WithString("question", mcp.Required(), mcp.Description("Question text")),
		mcp.WithString("question_type", mcp.Description("Answer widget"), mcp.Enum(questionTypes()...)),
		mcp.WithArray("options", mcp.WithStringItems(), mcp.Description("Answer options")),
		mcp.WithBoolean("is_required", mcp.Description("Whether an answer is mandatory")),
		mcp.WithNumber("x", mcp.Description("Canvas x")),
		mcp.WithNumber("y", mcp.Description("Canvas y")),
	), mcp.NewStructuredToolHandler(s.handleAddQuestion))

	// TOOL: add_section
	s.mcpServer.AddTool(mcp.NewTool("add_section",
		mcp.WithDescription("Add a weighted section node."),
		sessionParam(),
		mcp.WithString("section_name", mcp.Required(), mcp.Description("Section name")),
		mcp.WithNumber("weight", mcp.Description("Scoring weight, at least 1 (default 1)")),
		mcp.WithNumber("x", mcp.Description("Canvas x")),
		mcp.WithNumber("y", mcp.Description("Canvas y")),
	), mcp.NewStructuredToolHandler(s.handleAddSection))

	// TOOL: connect
	s.mcpServer.AddTool(mcp.NewTool("connect",
		mcp.WithDescription("Add a branch from a source node handle to a target node. Handles: yes, no, text-output, multi-all, option-<index>."),
		sessionParam(),
		mcp.WithString("source", mcp.Required(), mcp.Description("Source node id")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Target node id")),
		mcp.WithString("source_handle", mcp.Description("Output handle of the source")),
	), mcp.NewStructuredToolHandler(s.handleConnect))

	// TOOL: delete_node
	s.mcpServer.AddTool(mcp.NewTool("delete_node",
		mcp.WithDescription("Delete a node and every edge touching it."),
		sessionParam(),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node id")),
	), s.handleDeleteNode)

	// TOOL: export_questionnaire
	s.mcpServer.AddTool(mcp.NewTool("export_questionnaire",
		mcp.WithDescription("Export the questionnaire as JSON, without unsaved nodes."),
		sessionParam(),
	), s.handleExport)

	// TOOL: get_graph
	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Render the questionnaire as a Mermaid flowchart."),
		sessionParam(),
	), s.handleGraph)

	// TOOL: save
	s.mcpServer.AddTool(mcp.NewTool("save",
		mcp.WithDescription("Save the questionnaire to the scenario backend."),
		sessionParam(),
		mcp.WithOutputSchema[builder.SaveResult](),
	), mcp.NewStructuredToolHandler(s.handleSave))
}

func questionTypes() []string {
	out := make([]string, len(domain.QuestionTypes))
	for i, t := range domain.QuestionTypes {
		out[i] = string(t)
	}
	return out
}

func (s *Server) handleCreateSession(ctx context.Context, _ mcp.CallToolRequest, args createSessionArgs) (SessionSummary, error) {
	var (
		sess *builder.Session
		err  error
	)
	if args.ScenarioID != "" {
		sess, err = s.studio.Open(ctx, args.ScenarioID)
	} else {
		sess, err = s.studio.NewSession(ctx)
	}
	if err != nil {
		return SessionSummary{}, err
	}
	s.logger.Info("MCP session started", "session_id", sess.ID())
	return summarize(sess), nil
}

func (s *Server) handleSetMetadata(ctx context.Context, _ mcp.CallToolRequest, args metadataArgs) (SessionSummary, error) {
	var out SessionSummary
	err := s.studio.Do(ctx, args.SessionID, func(ctx context.Context, sess *builder.Session) error {
		if err := sess.SubmitMetadata(domain.TemplateMetadata{
			Name:       args.Name,
			Facilities: args.Facilities,
			Services:   args.Services,
		}); err != nil {
			return err
		}
		out = summarize(sess)
		return nil
	})
	return out, err
}

func (s *Server) handleAddQuestion(ctx context.Context, _ mcp.CallToolRequest, args questionArgs) (domain.Node, error) {
	var out domain.Node
	err := s.studio.Do(ctx, args.SessionID, func(ctx context.Context, sess *builder.Session) error {
		q, err := sess.AddQuestion(ctx, domain.Position{X: args.X, Y: args.Y})
		if err != nil {
			return err
		}
		if err := fillQuestion(q, args); err != nil {
			_ = q.Cancel()
			return err
		}
		out, _ = sess.Node(q.NodeID())
		return nil
	})
	return out, err
}

type questionEditor interface {
	SetType(domain.QuestionType) error
	SetQuestion(string)
	SetOptions([]string)
	SetRequired(bool)
	Save() error
}

func fillQuestion(q questionEditor, args questionArgs) error {
	if args.QuestionType != "" {
		if err := q.SetType(domain.QuestionType(args.QuestionType)); err != nil {
			return err
		}
	}
	q.SetQuestion(args.Question)
	if args.Options != nil {
		q.SetOptions(args.Options)
	}
	q.SetRequired(args.IsRequired)
	return q.Save()
}

func (s *Server) handleAddSection(ctx context.Context, _ mcp.CallToolRequest, args sectionArgs) (domain.Node, error) {
	var out domain.Node
	err := s.studio.Do(ctx, args.SessionID, func(ctx context.Context, sess *builder.Session) error {
		e, err := sess.AddSection(ctx, domain.Position{X: args.X, Y: args.Y})
		if err != nil {
			return err
		}
		e.SetName(args.SectionName)
		if args.Weight != nil {
			e.SetWeight(*args.Weight)
		}
		if err := e.Save(); err != nil {
			_ = e.Cancel()
			return err
		}
		out, _ = sess.Node(e.NodeID())
		return nil
	})
	return out, err
}

func (s *Server) handleConnect(ctx context.Context, _ mcp.CallToolRequest, args connectArgs) (domain.Edge, error) {
	var out domain.Edge
	err := s.studio.Do(ctx, args.SessionID, func(ctx context.Context, sess *builder.Session) error {
		e, err := sess.Connect(ctx, args.Source, args.Target, args.SourceHandle)
		out = e
		return err
	})
	return out, err
}

func (s *Server) handleDeleteNode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args nodeArgs
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to bind arguments: %v", err)), nil
	}
	err := s.studio.Do(ctx, args.SessionID, func(ctx context.Context, sess *builder.Session) error {
		return sess.DeleteNode(ctx, args.NodeID)
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("delete failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("node %s deleted", args.NodeID)), nil
}

func (s *Server) session(ctx context.Context, request mcp.CallToolRequest) (*builder.Session, *mcp.CallToolResult) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	sess, err := s.studio.Session(ctx, id)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	return sess, nil
}

func (s *Server) handleExport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, failed := s.session(ctx, request)
	if failed != nil {
		return failed, nil
	}
	data, err := sess.Export()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("export failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, failed := s.session(ctx, request)
	if failed != nil {
		return failed, nil
	}
	return mcp.NewToolResultText(graph.GenerateMermaid(sess.Snapshot(), nil)), nil
}

func (s *Server) handleSave(ctx context.Context, _ mcp.CallToolRequest, args sessionArgs) (builder.SaveResult, error) {
	res, err := s.studio.Save(ctx, args.SessionID)
	if err != nil {
		var saveErr *builder.SaveError
		if errors.As(err, &saveErr) {
			return builder.SaveResult{}, fmt.Errorf("%s", saveErr.Message)
		}
		return builder.SaveResult{}, err
	}
	return *res, nil
}

func (s *Server) registerResources() {
	// EXPOSE: quire://sessions
	s.mcpServer.AddResource(mcp.NewResource(SessionsURI, "Questionnaire sessions",
		mcp.WithResourceDescription("Every live or drafted session with its phase and size."),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.studio.Sessions(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		out := make([]SessionSummary, 0, len(ids))
		for _, id := range ids {
			sess, err := s.studio.Session(ctx, id)
			if err != nil {
				s.logger.Warn("Skipping unreadable session", "session_id", id, "err", err)
				continue
			}
			out = append(out, summarize(sess))
		}
		jsonBytes, _ := json.Marshal(out)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      SessionsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
