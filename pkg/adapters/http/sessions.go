package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/aretw0/quire/internal/presentation/graph"
	"github.com/aretw0/quire/pkg/builder"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/editor"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes bounds request bodies, imports included.
const maxBodyBytes = 4 << 20

func decode(r *http.Request, into any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(into); err != nil {
		return &badRequest{err}
	}
	return nil
}

// do runs fn on the session of the request and answers with status and the
// value fn returned. A change event is broadcast on success.
func (s *Server) do(w http.ResponseWriter, r *http.Request, status int, event string, fn func(context.Context, *builder.Session) (any, ChangeEvent, error)) {
	id := chi.URLParam(r, "sessionId")
	var (
		out any
		ev  ChangeEvent
	)
	err := s.Studio.Do(r.Context(), id, func(ctx context.Context, sess *builder.Session) error {
		var err error
		out, ev, err = fn(ctx, sess)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ev.Type, ev.SessionID = event, id
	s.Streams.Broadcast(ev)

	if out == nil {
		w.WriteHeader(status)
		return
	}
	s.writeJSON(w, status, out)
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Studio.Sessions(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// CreateSession handles POST /sessions. An optional scenario_id opens an
// existing scenario for editing.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body createSessionRequest
	if r.ContentLength != 0 {
		if err := decode(r, &body); err != nil && !errors.Is(err, io.EOF) {
			s.writeError(w, r, err)
			return
		}
	}

	var (
		sess *builder.Session
		err  error
	)
	if body.ScenarioID != "" {
		sess, err = s.Studio.Open(r.Context(), body.ScenarioID)
	} else {
		sess, err = s.Studio.NewSession(r.Context())
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("Session started", "session_id", sess.ID(), "scenario_id", body.ScenarioID)
	s.writeJSON(w, http.StatusCreated, viewOf(sess))
}

// GetSession handles GET /sessions/{sessionId}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Studio.Session(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, viewOf(sess))
}

// AbandonSession handles DELETE /sessions/{sessionId}.
func (s *Server) AbandonSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionId")
	if err := s.Studio.Abandon(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.Streams.Broadcast(ChangeEvent{Type: "abandoned", SessionID: id})
	w.WriteHeader(http.StatusNoContent)
}

// SubmitMetadata handles PUT /sessions/{sessionId}/metadata.
func (s *Server) SubmitMetadata(w http.ResponseWriter, r *http.Request) {
	var meta domain.TemplateMetadata
	if err := decode(r, &meta); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.do(w, r, http.StatusOK, "metadata", func(ctx context.Context, sess *builder.Session) (any, ChangeEvent, error) {
		if err := sess.SubmitMetadata(meta); err != nil {
			return nil, ChangeEvent{}, err
		}
		return viewOf(sess), ChangeEvent{}, nil
	})
}

func applyQuestion(q *editor.QuestionEditor, in questionInput) error {
	if in.QuestionType != "" {
		if err := q.SetType(in.QuestionType); err != nil {
			return err
		}
	}
	if in.Question != nil {
		q.SetQuestion(*in.Question)
	}
	if in.Options != nil {
		q.SetOptions(in.Options)
	}
	if in.IsRequired != nil {
		q.SetRequired(*in.IsRequired)
	}
	return q.Save()
}

func applySection(e *editor.SectionEditor, in sectionInput) error {
	if in.SectionName != nil {
		e.SetName(*in.SectionName)
	}
	if in.Weight != nil {
		e.SetWeight(*in.Weight)
	}
	return e.Save()
}

// savedNode runs apply and returns the stored node. On failure the editor is
// cancelled, which removes a node that was never saved.
func savedNode(sess *builder.Session, id string, apply func() error, cancel func() error) (any, ChangeEvent, error) {
	if err := apply(); err != nil {
		_ = cancel()
		return nil, ChangeEvent{}, err
	}
	n, _ := sess.Node(id)
	return n, ChangeEvent{NodeID: id}, nil
}

// AddQuestion handles POST /sessions/{sessionId}/questions.
func (s *Server) AddQuestion(w http.ResponseWriter, r *http.Request) {
	var in questionInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.do(w, r, http.StatusCreated, "node_added", func(ctx context.Context, sess *builder.Session) (any, ChangeEvent, error) {
		q, err := sess.AddQuestion(ctx, in.Position)
		if err != nil {
			return nil, ChangeEvent{}, err
		}
		return savedNode(sess, q.NodeID(), func() error { return applyQuestion(q, in) }, q.Cancel)
	})
}

// EditQuestion handles PUT /sessions/{sessionId}/questions/{nodeId}.
func (s *Server) EditQuestion(w http.ResponseWriter, r *http.Request) {
	var in questionInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.do(w, r, http.StatusOK, "node_updated", func(ctx context.Context, sess *builder.Session) (any, ChangeEvent, error) {
		q, err := sess.EditQuestion(ctx, chi.URLParam(r, "nodeId"))
		if err != nil {
			return nil, ChangeEvent{}, err
		}
		return savedNode(sess, q.NodeID(), func() error { return applyQuestion(q, in) }, q.Cancel)
	})
}

// AddSection handles POST /sessions/{sessionId}/sections.
func (s *Server) AddSection(w http.ResponseWriter, r *http.Request) {
	var in sectionInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.do(w, r, http.StatusCreated, "node_added", func(ctx context.Context, sess *builder.Session) (any, ChangeEvent, error) {
		e, err := sess.AddSection(ctx, in.Position)
		if err != nil {
			return nil, ChangeEvent{}, err
		}
		return savedNode(sess, e.NodeID(), func() error { return applySection(e, in) }, e.Cancel)
	})
}

// EditSection handles PUT /sessions/{sessionId}/sections/{nodeId}.
func (s *Server) EditSection(w http.ResponseWriter, r *http.Request) {
	var in sectionInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.do(w, r, http.StatusOK, "node_updated", func(ctx context.Context, sess *builder.Session) (any, ChangeEvent, error) {
		e, err := sess.EditSection(ctx, chi.URLParam(r, "nodeId"))
		if err != nil {
			return nil, ChangeEvent{}, err
		}
		return savedNode(sess, e.NodeID(), func() error { return applySection(e, in) }, e.Cancel)
	})
}

// PatchNode handles PATCH /sessions/{sessionId}/nodes/{nodeId}.
func (s *Server) PatchNode(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := decode(r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	nodeID := chi.URLParam(r, "nodeId")
	s.do(w, r, http.StatusOK, "node_updated", func(ctx context.Context, sess *builder.Session) (any, ChangeEvent, error) {
		if err := sess.UpdateNode(ctx, nodeID, patch); err != nil {
			return nil, ChangeEvent{}, err
		}
		n, _ := sess.Node(nodeID)
		return n, ChangeEvent{NodeID: nodeID}, nil
	})
}

// DeleteNode handles DELETE /sessions/{sessionId}/nodes/{nodeId}.
func (s *Server) DeleteNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeId")
	s.do(w, r, http.StatusNoContent, "node_removed", func(ctx context.Context, sess *builder.Session) (any, ChangeEvent, error) {
		return nil, ChangeEvent{NodeID: nodeID}, sess.DeleteNode(ctx, nodeID)
	})
}

// MoveNode handles PUT /sessions/{sessionId}/nodes/{nodeId}/position.
func (s *Server) MoveNode(w http.ResponseWriter, r *http.Request) {
	var pos domain.Position
	if err := decode(r, &pos); err != nil {
		s.writeError(w, r, err)
		return
	}
	nodeID := chi.URLParam(r, "nodeId")
	s.do(w, r, http.StatusNoContent, "node_moved", func(ctx context.Context, sess *builder.Session) (any, ChangeEvent, error) {
		return nil, ChangeEvent{NodeID: nodeID}, sess.MoveNode(ctx, nodeID, pos)
	})
}

// Connect handles POST /sessions/{sessionId}/edges.
func (s *Server) Connect(w http.ResponseWriter, r *http.Request) {
	var body connectRequest
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.do(w, r, http.StatusCreated, "edge_added", func(ctx context.Context, sess *builder.Session) (any, ChangeEvent, error) {
		e, err := sess.Connect(ctx, body.Source, body.Target, body.SourceHandle)
		if err != nil {
			return nil, ChangeEvent{}, err
		}
		return e, ChangeEvent{EdgeID: e.ID}, nil
	})
}

// RemoveEdge handles DELETE /sessions/{sessionId}/edges/{edgeId}.
func (s *Server) RemoveEdge(w http.ResponseWriter, r *http.Request) {
	edgeID := chi.URLParam(r, "edgeId")
	s.do(w, r, http.StatusNoContent, "edge_removed", func(ctx context.Context, sess *builder.Session) (any, ChangeEvent, error) {
		return nil, ChangeEvent{EdgeID: edgeID}, sess.RemoveEdge(ctx, edgeID)
	})
}

// Export handles GET /sessions/{sessionId}/export.
func (s *Server) Export(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Studio.Session(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := sess.Export()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="questionnaire.json"`)
	w.Write(data)
}

// Import handles POST /sessions/{sessionId}/import.
func (s *Server) Import(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, r, &badRequest{err})
		return
	}
	s.do(w, r, http.StatusOK, "imported", func(ctx context.Context, sess *builder.Session) (any, ChangeEvent, error) {
		if err := sess.Import(ctx, data); err != nil {
			return nil, ChangeEvent{}, err
		}
		return viewOf(sess), ChangeEvent{}, nil
	})
}

// Save handles POST /sessions/{sessionId}/save.
func (s *Server) Save(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionId")
	res, err := s.Studio.Save(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.Streams.Broadcast(ChangeEvent{Type: "saved", SessionID: id})
	s.writeJSON(w, http.StatusOK, res)
}

// GetGraph handles GET /sessions/{sessionId}/graph.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Studio.Session(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, graph.GenerateMermaid(sess.Snapshot(), nil))
}
