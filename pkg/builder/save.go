package builder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/schema"
)

// GenericSaveFailure is shown when the backend gives no usable message.
const GenericSaveFailure = "Failed to save scenario. Please try again."

// SaveError is a save that reached the backend and failed.
// Message is meant for the user; Err carries the cause.
type SaveError struct {
	Message string
	Err     error
}

func (e *SaveError) Error() string {
	if e.Err == nil {
		return "save failed: " + e.Message
	}
	return fmt.Sprintf("save failed: %s: %v", e.Message, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// SaveResult describes a successful save.
type SaveResult struct {
	ScenarioID        string `json:"scenario_id"`
	Created           bool   `json:"created"`
	NewVersionCreated bool   `json:"new_version_created"`
	Message           string `json:"message,omitempty"`
}

// CheckSave reports every reason the session cannot be saved right now.
// It performs no I/O.
func (s *Session) CheckSave() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkSave(schema.Persistable(s.graph.Snapshot()))
}

func (s *Session) checkSave(doc *domain.Questionnaire) error {
	return CheckDocument(&s.meta, doc)
}

// CheckDocument applies the save preconditions to a persistable document.
// Metadata is skipped when meta is nil.
func CheckDocument(meta *domain.TemplateMetadata, doc *domain.Questionnaire) error {
	var errs []error
	if meta != nil {
		if err := ValidateMetadata(*meta); err != nil {
			errs = append(errs, err)
		}
	}
	if len(doc.Nodes) == 0 {
		errs = append(errs, fmt.Errorf("%w: %w", ErrEmptyGraph, schema.Invalid("nodes", MsgAddNode, nil)))
	}
	for i, n := range doc.Nodes {
		key := fmt.Sprintf("nodes[%d]", i)
		switch d := n.Data.(type) {
		case domain.QuestionData:
			if strings.TrimSpace(d.Question) == "" {
				errs = append(errs, schema.Invalid(key+".data.question", "Please enter a question", n.ID))
			}
			if d.QuestionType.HasOptions() && len(d.Options) == 0 {
				errs = append(errs, schema.Invalid(key+".data.options", "a question needs at least one option", n.ID))
			}
		case domain.SectionData:
			if strings.TrimSpace(d.SectionName) == "" {
				errs = append(errs, schema.Invalid(key+".data.sectionName", "Please enter a section name", n.ID))
			}
		}
	}
	return schema.Aggregate(errs)
}

// Save persists the questionnaire. New templates are created; sessions bound
// to a scenario overwrite it.
//
// Precondition failures return validation errors without any backend call.
// A call made while another save is running returns ErrSaveInFlight.
// Backend failures return a *SaveError. In every case the session ends in
// the editing phase and the graph is left as it was.
func (s *Session) Save(ctx context.Context) (*SaveResult, error) {
	if !s.saving.CompareAndSwap(false, true) {
		return nil, ErrSaveInFlight
	}
	defer s.saving.Store(false)

	s.mu.Lock()
	if s.phase == PhaseSaving {
		s.mu.Unlock()
		return nil, ErrSaveInFlight
	}
	doc := schema.Persistable(s.graph.Snapshot())
	if err := s.checkSave(doc); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	meta := cloneMetadata(s.meta)
	scenarioID := s.scenarioID
	doc.TemplateName = meta.Name
	s.phase = PhaseSaving
	s.mu.Unlock()

	start := s.now()
	res, err := s.persist(ctx, scenarioID, meta, doc)

	s.mu.Lock()
	s.phase = PhaseEditing
	if err == nil && res.Created {
		s.scenarioID = res.ScenarioID
	}
	s.mu.Unlock()

	ev := &domain.SaveEvent{
		EventBase:  s.base(domain.EventSave),
		ScenarioID: scenarioID,
		Created:    scenarioID == "",
		Duration:   s.now().Sub(start),
		Err:        err,
	}
	if err != nil {
		s.logger.Warn("Save failed", "err", err)
	} else {
		ev.ScenarioID = res.ScenarioID
		s.logger.Info("Scenario saved", "scenario_id", res.ScenarioID, "created", res.Created)
	}
	if s.hooks.OnSave != nil {
		s.hooks.OnSave(ctx, ev)
	}
	return res, err
}

func (s *Session) persist(ctx context.Context, scenarioID string, meta domain.TemplateMetadata, doc *domain.Questionnaire) (*SaveResult, error) {
	facilities, services, err := s.catalog.IDs(ctx, meta)
	if err != nil {
		if schema.IsValidation(err) {
			return nil, err
		}
		return nil, &SaveError{Message: GenericSaveFailure, Err: err}
	}

	if scenarioID == "" {
		out, err := s.api.CreateScenario(ctx, domain.CreateScenarioInput{
			Name:          meta.Name,
			Questionnaire: *doc,
			Facilities:    facilities,
			Services:      services,
		})
		if err != nil {
			return nil, &SaveError{Message: userMessage(err), Err: err}
		}
		if out.Code < 200 || out.Code > 299 || out.Data == nil {
			apiErr := &domain.APIError{Code: out.Code, Message: out.Message}
			return nil, &SaveError{Message: userMessage(apiErr), Err: apiErr}
		}
		return &SaveResult{ScenarioID: out.Data.ID, Created: true, Message: out.Message}, nil
	}

	name := meta.Name
	out, err := s.api.UpdateTemplate(ctx, domain.UpdateTemplateInput{
		ID:            scenarioID,
		Name:          &name,
		Facilities:    facilities,
		Services:      services,
		Questionnaire: doc,
	})
	if err != nil {
		return nil, &SaveError{Message: userMessage(err), Err: err}
	}
	id := out.Scenario.ID
	if id == "" {
		id = scenarioID
	}
	return &SaveResult{ScenarioID: id, NewVersionCreated: out.NewVersionCreated, Message: out.Message}, nil
}

// userMessage prefers the backend's own message.
func userMessage(err error) string {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	return GenericSaveFailure
}
