package ports

import (
	"context"

	"github.com/aretw0/quire/pkg/domain"
)

// ScenarioAPI is the external data API the builder saves templates to.
// Implementations translate to a concrete transport (GraphQL, SQL, in-process).
type ScenarioAPI interface {
	// CreateScenario stores a new template. A non-2xx Code in the result is
	// a backend-reported failure; err is reserved for transport errors.
	CreateScenario(ctx context.Context, in domain.CreateScenarioInput) (*domain.MutationResult, error)

	// GetScenarioByID loads a template for editing.
	// Returns domain.ErrScenarioNotFound if the id is unknown.
	GetScenarioByID(ctx context.Context, id string) (*domain.ScenarioRecord, error)

	// UpdateTemplate overwrites the given fields of an existing template.
	UpdateTemplate(ctx context.Context, in domain.UpdateTemplateInput) (*domain.UpdateTemplateResult, error)

	// GetAllFacilityTypes lists the facility catalog.
	GetAllFacilityTypes(ctx context.Context) ([]domain.Lookup, error)

	// GetServiceLines lists the service line catalog.
	GetServiceLines(ctx context.Context) ([]domain.Lookup, error)
}
