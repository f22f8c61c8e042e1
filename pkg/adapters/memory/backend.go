package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/google/uuid"
)

// DefaultFacilities seeds the facility catalog of a Backend.
var DefaultFacilities = []domain.Lookup{
	{ID: "fac-hospital", Name: "Hospital"},
	{ID: "fac-clinic", Name: "Clinic"},
	{ID: "fac-urgent-care", Name: "Urgent Care"},
	{ID: "fac-rehab", Name: "Rehabilitation Center"},
}

// DefaultServices seeds the service line catalog of a Backend.
var DefaultServices = []domain.Lookup{
	{ID: "svc-emergency", Name: "Emergency"},
	{ID: "svc-radiology", Name: "Radiology"},
	{ID: "svc-cardiology", Name: "Cardiology"},
	{ID: "svc-stroke", Name: "Stroke"},
}

type scenarioRow struct {
	ref        domain.ScenarioRef
	status     string
	facilities []string
	services   []string
	versions   []domain.Questionnaire
	updatedAt  time.Time
}

func (r *scenarioRow) record() *domain.ScenarioRecord {
	latest := r.versions[len(r.versions)-1]
	return &domain.ScenarioRecord{
		Scenario:      r.ref,
		Version:       len(r.versions),
		Status:        r.status,
		Questionnaire: *latest.Clone(),
		Facilities:    slices.Clone(r.facilities),
		Services:      slices.Clone(r.services),
	}
}

// Backend implements ports.ScenarioAPI in process.
// Every questionnaire change through UpdateTemplate creates a new version.
// Safe for concurrent use.
type Backend struct {
	mu         sync.RWMutex
	scenarios  map[string]*scenarioRow
	facilities []domain.Lookup
	services   []domain.Lookup
	newID      func() string
	now        func() time.Time
}

// Option configures a Backend.
type Option func(*Backend)

// WithFacilities replaces the seeded facility catalog.
func WithFacilities(l ...domain.Lookup) Option {
	return func(b *Backend) {
		b.facilities = l
	}
}

// WithServices replaces the seeded service line catalog.
func WithServices(l ...domain.Lookup) Option {
	return func(b *Backend) {
		b.services = l
	}
}

// WithIDGenerator overrides the scenario id source.
func WithIDGenerator(fn func() string) Option {
	return func(b *Backend) {
		b.newID = fn
	}
}

// NewBackend creates an empty backend with the default catalogs.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		scenarios:  make(map[string]*scenarioRow),
		facilities: DefaultFacilities,
		services:   DefaultServices,
		newID:      uuid.NewString,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// CreateScenario stores a new scenario at version 1.
func (b *Backend) CreateScenario(ctx context.Context, in domain.CreateScenarioInput) (*domain.MutationResult, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return failure(400, "Scenario name is required"), nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if msg := b.checkCatalog(in.Facilities, in.Services); msg != "" {
		return failure(400, msg), nil
	}
	for _, row := range b.scenarios {
		if strings.EqualFold(row.ref.Name, name) {
			return failure(409, fmt.Sprintf("A scenario named %q already exists", name)), nil
		}
	}

	id := b.newID()
	b.scenarios[id] = &scenarioRow{
		ref:        domain.ScenarioRef{ID: id, Name: name},
		status:     domain.ScenarioStatusDraft,
		facilities: slices.Clone(in.Facilities),
		services:   slices.Clone(in.Services),
		versions:   []domain.Questionnaire{*in.Questionnaire.Clone()},
		updatedAt:  b.now(),
	}
	return &domain.MutationResult{
		Code:    201,
		Message: "Scenario created successfully",
		Type:    "success",
		Data:    &domain.ScenarioRef{ID: id, Name: name},
	}, nil
}

func failure(code int, msg string) *domain.MutationResult {
	return &domain.MutationResult{Code: code, Message: msg, Type: "error"}
}

// checkCatalog must be called with b.mu held.
func (b *Backend) checkCatalog(facilities, services []string) string {
	for _, id := range facilities {
		if !hasID(b.facilities, id) {
			return fmt.Sprintf("Unknown facility type %q", id)
		}
	}
	for _, id := range services {
		if !hasID(b.services, id) {
			return fmt.Sprintf("Unknown service line %q", id)
		}
	}
	return ""
}

func hasID(list []domain.Lookup, id string) bool {
	return slices.ContainsFunc(list, func(l domain.Lookup) bool { return l.ID == id })
}

// GetScenarioByID returns the latest version of a scenario.
func (b *Backend) GetScenarioByID(ctx context.Context, id string) (*domain.ScenarioRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	row, ok := b.scenarios[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrScenarioNotFound, id)
	}
	return row.record(), nil
}

// UpdateTemplate overwrites the provided fields.
func (b *Backend) UpdateTemplate(ctx context.Context, in domain.UpdateTemplateInput) (*domain.UpdateTemplateResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	row, ok := b.scenarios[in.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrScenarioNotFound, in.ID)
	}
	if msg := b.checkCatalog(in.Facilities, in.Services); msg != "" {
		return nil, &domain.APIError{Code: 400, Message: msg}
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, &domain.APIError{Code: 400, Message: "Scenario name is required"}
		}
		row.ref.Name = name
	}
	if in.Facilities != nil {
		row.facilities = slices.Clone(in.Facilities)
	}
	if in.Services != nil {
		row.services = slices.Clone(in.Services)
	}

	created := false
	if in.Questionnaire != nil {
		row.versions = append(row.versions, *in.Questionnaire.Clone())
		created = true
	}
	row.updatedAt = b.now()

	msg := "Template updated"
	if created {
		msg = fmt.Sprintf("Template updated, version %d created", len(row.versions))
	}
	return &domain.UpdateTemplateResult{Scenario: row.ref, NewVersionCreated: created, Message: msg}, nil
}

// GetAllFacilityTypes returns the facility catalog.
func (b *Backend) GetAllFacilityTypes(ctx context.Context) ([]domain.Lookup, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.facilities), nil
}

// GetServiceLines returns the service line catalog.
func (b *Backend) GetServiceLines(ctx context.Context) ([]domain.Lookup, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.services), nil
}

// Scenarios lists stored scenarios ordered by name.
func (b *Backend) Scenarios() []domain.ScenarioRef {
	b.mu.RLock()
	defer b.mu.RUnlock()
	refs := make([]domain.ScenarioRef, 0, len(b.scenarios))
	for _, row := range b.scenarios {
		refs = append(refs, row.ref)
	}
	slices.SortFunc(refs, func(a, c domain.ScenarioRef) int { return strings.Compare(a.Name, c.Name) })
	return refs
}
