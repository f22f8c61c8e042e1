package http

import (
	"errors"
	"net/http"

	"github.com/aretw0/quire/pkg/builder"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/editor"
	"github.com/aretw0/quire/pkg/schema"
	"github.com/aretw0/quire/pkg/session"
)

type fieldError struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

type errorBody struct {
	Error  string       `json:"error"`
	Fields []fieldError `json:"fields,omitempty"`
}

// badRequest marks a malformed request body.
type badRequest struct{ err error }

func (e *badRequest) Error() string { return "invalid request body: " + e.err.Error() }
func (e *badRequest) Unwrap() error { return e.err }

// upstreamError marks a failed backend call outside of Save.
type upstreamError struct{ err error }

func (e *upstreamError) Error() string { return e.err.Error() }
func (e *upstreamError) Unwrap() error { return e.err }

// statusOf maps an error to its HTTP status.
func statusOf(err error) int {
	var (
		saveErr *builder.SaveError
		bad     *badRequest
		up      *upstreamError
	)
	switch {
	case errors.As(err, &bad):
		return http.StatusBadRequest
	case schema.IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.As(err, &saveErr), errors.As(err, &up):
		return http.StatusBadGateway
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, domain.ErrNodeNotFound),
		errors.Is(err, domain.ErrEdgeNotFound),
		errors.Is(err, domain.ErrScenarioNotFound):
		return http.StatusNotFound
	case errors.Is(err, builder.ErrSessionLocked):
		return http.StatusLocked
	case errors.Is(err, builder.ErrWrongPhase), errors.Is(err, builder.ErrSaveInFlight):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidNodeData),
		errors.Is(err, editor.ErrLastOption),
		errors.Is(err, editor.ErrOptionIndex):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	body := errorBody{Error: err.Error()}

	var saveErr *builder.SaveError
	if errors.As(err, &saveErr) {
		body.Error = saveErr.Message
	}
	for _, ve := range schema.ValidationErrors(err) {
		body.Fields = append(body.Fields, fieldError{Key: ve.Key, Reason: ve.Reason})
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	} else {
		s.logger.Debug("Request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	s.writeJSON(w, status, body)
}
