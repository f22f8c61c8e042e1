package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/quire/internal/logging"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/graph"
	"github.com/aretw0/quire/pkg/ports"
	"github.com/aretw0/quire/pkg/schema"
)

// Phase is the state of a Session.
type Phase string

const (
	PhaseAwaitingMetadata Phase = "awaiting-metadata"
	PhaseEditing          Phase = "editing"
	PhaseSaving           Phase = "saving"
)

var (
	// ErrWrongPhase is returned for an operation the current phase does not allow.
	ErrWrongPhase = errors.New("operation not allowed in current phase")
	// ErrSessionLocked is returned for mutations attempted while a save is in flight.
	ErrSessionLocked = errors.New("session is locked while saving")
	// ErrSaveInFlight is returned when Save is called before the previous save returned.
	ErrSaveInFlight = errors.New("a save is already in progress")
	// ErrEmptyGraph is returned by Save when there is nothing to persist.
	ErrEmptyGraph = errors.New("questionnaire has no nodes")
)

// Validation messages for template metadata.
const (
	MsgNameRequired       = "Please enter a template name"
	MsgFacilitiesRequired = "Please select at least one facility"
	MsgServicesRequired   = "Please select at least one service"
	MsgAddNode            = "Add at least one question or section"
)

// Session is one questionnaire editing session.
// All methods are safe for concurrent use.
type Session struct {
	id      string
	api     ports.ScenarioAPI
	catalog *Catalog
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	now     func() time.Time

	mu         sync.Mutex
	phase      Phase
	meta       domain.TemplateMetadata
	scenarioID string
	version    int
	graph      *graph.Graph
	updatedAt  time.Time

	saving atomic.Bool
}

// Option configures a Session.
type Option func(*Session)

// WithHooks registers lifecycle hooks.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(s *Session) {
		s.hooks = h
	}
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithClock overrides the time source for edge ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

func newSession(id string, api ports.ScenarioAPI, catalog *Catalog, opts []Option) *Session {
	s := &Session{
		id:      id,
		api:     api,
		catalog: catalog,
		logger:  logging.NewNop(),
		now:     time.Now,
		phase:   PhaseAwaitingMetadata,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.catalog == nil {
		s.catalog = NewCatalog(api)
	}
	s.graph = graph.New(graph.WithClock(s.now))
	s.updatedAt = s.now()
	s.logger = s.logger.With("session_id", id)
	return s
}

// New starts a session for a brand-new template. It waits for metadata.
func New(id string, api ports.ScenarioAPI, catalog *Catalog, opts ...Option) *Session {
	return newSession(id, api, catalog, opts)
}

// Edit starts a session on an existing scenario. Catalog ids in rec are
// translated back to names; the session starts in the editing phase.
func Edit(ctx context.Context, id string, rec *domain.ScenarioRecord, api ports.ScenarioAPI, catalog *Catalog, opts ...Option) (*Session, error) {
	s := newSession(id, api, catalog, opts)

	facilities, services, err := s.catalog.Names(ctx, rec.Facilities, rec.Services)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve template metadata: %w", err)
	}
	if err := s.graph.Load(&rec.Questionnaire); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", rec.Scenario.ID, err)
	}

	s.meta = domain.TemplateMetadata{Name: rec.Scenario.Name, Facilities: facilities, Services: services}
	s.graph.SetTemplateName(rec.Scenario.Name)
	s.scenarioID = rec.Scenario.ID
	s.version = rec.Version
	s.phase = PhaseEditing
	return s, nil
}

// Restore rebuilds a session from a stored draft. A draft captured while
// saving resumes in editing, since the save did not survive.
func Restore(d *domain.Draft, api ports.ScenarioAPI, catalog *Catalog, opts ...Option) (*Session, error) {
	s := newSession(d.SessionID, api, catalog, opts)

	switch Phase(d.Phase) {
	case PhaseAwaitingMetadata:
		s.phase = PhaseAwaitingMetadata
	case PhaseEditing, PhaseSaving:
		s.phase = PhaseEditing
	default:
		return nil, fmt.Errorf("draft %s: unknown phase %q", d.SessionID, d.Phase)
	}
	if d.Questionnaire != nil {
		if err := s.graph.Load(d.Questionnaire); err != nil {
			return nil, fmt.Errorf("draft %s: %w", d.SessionID, err)
		}
	}
	s.meta = cloneMetadata(d.Metadata)
	s.scenarioID = d.ScenarioID
	if !d.UpdatedAt.IsZero() {
		s.updatedAt = d.UpdatedAt
	}
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Metadata returns a copy of the template metadata.
func (s *Session) Metadata() domain.TemplateMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneMetadata(s.meta)
}

// ScenarioID returns the backend id of the template, empty until the first
// successful save of a new template.
func (s *Session) ScenarioID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scenarioID
}

// Snapshot returns a copy of the whole graph, editing nodes included.
func (s *Session) Snapshot() *domain.Questionnaire {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.Snapshot()
}

// Draft captures the session for a DraftStore.
func (s *Session) Draft() *domain.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &domain.Draft{
		SessionID:     s.id,
		Phase:         string(s.phase),
		ScenarioID:    s.scenarioID,
		Metadata:      cloneMetadata(s.meta),
		Questionnaire: s.graph.Snapshot(),
		UpdatedAt:     s.updatedAt,
	}
}

// SubmitMetadata sets the template metadata and, for a new template, opens
// the graph for editing. Incomplete metadata is rejected.
func (s *Session) SubmitMetadata(meta domain.TemplateMetadata) error {
	meta = normalizeMetadata(meta)
	if err := ValidateMetadata(meta); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseSaving {
		return ErrSessionLocked
	}
	s.meta = meta
	s.graph.SetTemplateName(meta.Name)
	if s.phase == PhaseAwaitingMetadata {
		s.phase = PhaseEditing
		s.logger.Debug("Metadata accepted", "template", meta.Name)
	}
	s.touch()
	return nil
}

// ValidateMetadata checks that a template has a name, a facility and a service.
func ValidateMetadata(meta domain.TemplateMetadata) error {
	var errs []error
	if strings.TrimSpace(meta.Name) == "" {
		errs = append(errs, schema.Invalid("name", MsgNameRequired, nil))
	}
	if len(meta.Facilities) == 0 {
		errs = append(errs, schema.Invalid("facilities", MsgFacilitiesRequired, nil))
	}
	if len(meta.Services) == 0 {
		errs = append(errs, schema.Invalid("services", MsgServicesRequired, nil))
	}
	return schema.Aggregate(errs)
}

func normalizeMetadata(meta domain.TemplateMetadata) domain.TemplateMetadata {
	out := domain.TemplateMetadata{Name: strings.TrimSpace(meta.Name)}
	out.Facilities = compact(meta.Facilities)
	out.Services = compact(meta.Services)
	return out
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func cloneMetadata(m domain.TemplateMetadata) domain.TemplateMetadata {
	return domain.TemplateMetadata{
		Name:       m.Name,
		Facilities: append([]string{}, m.Facilities...),
		Services:   append([]string{}, m.Services...),
	}
}

// editable must be called with s.mu held.
func (s *Session) editable() error {
	switch s.phase {
	case PhaseEditing:
		return nil
	case PhaseSaving:
		return ErrSessionLocked
	}
	return fmt.Errorf("%w: %s", ErrWrongPhase, s.phase)
}

// touch must be called with s.mu held.
func (s *Session) touch() {
	s.updatedAt = s.now()
}

// UpdatedAt returns the time of the last accepted change.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

func (s *Session) base(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: s.now(), Type: t, SessionID: s.id}
}
