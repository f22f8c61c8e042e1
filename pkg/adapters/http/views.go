package http

import (
	"time"

	"github.com/aretw0/quire/pkg/builder"
	"github.com/aretw0/quire/pkg/domain"
)

type catalogView struct {
	Facilities []domain.Lookup `json:"facilities"`
	Services   []domain.Lookup `json:"services"`
}

type sessionView struct {
	ID            string                  `json:"id"`
	Phase         builder.Phase           `json:"phase"`
	ScenarioID    string                  `json:"scenario_id,omitempty"`
	Metadata      domain.TemplateMetadata `json:"metadata"`
	Questionnaire *domain.Questionnaire   `json:"questionnaire"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

func viewOf(s *builder.Session) sessionView {
	meta := s.Metadata()
	if meta.Facilities == nil {
		meta.Facilities = []string{}
	}
	if meta.Services == nil {
		meta.Services = []string{}
	}
	return sessionView{
		ID:            s.ID(),
		Phase:         s.Phase(),
		ScenarioID:    s.ScenarioID(),
		Metadata:      meta,
		Questionnaire: s.Snapshot(),
		UpdatedAt:     s.UpdatedAt(),
	}
}

type createSessionRequest struct {
	ScenarioID string `json:"scenario_id"`
}

type questionInput struct {
	Position     domain.Position     `json:"position"`
	Question     *string             `json:"question"`
	QuestionType domain.QuestionType `json:"questionType"`
	Options      []string            `json:"options"`
	IsRequired   *bool               `json:"isRequired"`
}

type sectionInput struct {
	Position    domain.Position `json:"position"`
	SectionName *string         `json:"sectionName"`
	Weight      *int            `json:"weight"`
}

type connectRequest struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle"`
}
