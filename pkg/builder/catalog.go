package builder

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/ports"
	"github.com/aretw0/quire/pkg/schema"
)

// Catalog translates facility and service names to backend ids and back.
// Both lists are fetched once and cached until Refresh.
type Catalog struct {
	api ports.ScenarioAPI

	mu         sync.Mutex
	facilities []domain.Lookup
	services   []domain.Lookup
	loaded     bool
}

// NewCatalog creates a catalog backed by api.
func NewCatalog(api ports.ScenarioAPI) *Catalog {
	return &Catalog{api: api}
}

func (c *Catalog) load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return nil
	}

	facilities, err := c.api.GetAllFacilityTypes(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch facility types: %w", err)
	}
	services, err := c.api.GetServiceLines(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch service lines: %w", err)
	}
	c.facilities = facilities
	c.services = services
	c.loaded = true
	return nil
}

// Refresh drops the cached lists.
func (c *Catalog) Refresh() {
	c.mu.Lock()
	c.loaded = false
	c.mu.Unlock()
}

// Facilities returns the facility catalog.
func (c *Catalog) Facilities(ctx context.Context) ([]domain.Lookup, error) {
	if err := c.load(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Lookup(nil), c.facilities...), nil
}

// Services returns the service line catalog.
func (c *Catalog) Services(ctx context.Context) ([]domain.Lookup, error) {
	if err := c.load(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Lookup(nil), c.services...), nil
}

// IDs maps the names picked in meta to catalog ids.
// Names missing from the catalog are reported as validation errors.
func (c *Catalog) IDs(ctx context.Context, meta domain.TemplateMetadata) (facilities, services []string, err error) {
	if err := c.load(ctx); err != nil {
		return nil, nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	facilities, errs = toIDs("facilities", meta.Facilities, c.facilities, errs)
	services, errs = toIDs("services", meta.Services, c.services, errs)
	if err := schema.Aggregate(errs); err != nil {
		return nil, nil, err
	}
	return facilities, services, nil
}

// Names maps catalog ids back to names. Ids that are no longer in the
// catalog are kept verbatim so that nothing is silently dropped.
func (c *Catalog) Names(ctx context.Context, facilityIDs, serviceIDs []string) (facilities, services []string, err error) {
	if err := c.load(ctx); err != nil {
		return nil, nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return toNames(facilityIDs, c.facilities), toNames(serviceIDs, c.services), nil
}

func toIDs(key string, names []string, list []domain.Lookup, errs []error) ([]string, []error) {
	ids := make([]string, 0, len(names))
	for i, name := range names {
		found := false
		for _, l := range list {
			if l.Name == name {
				ids = append(ids, l.ID)
				found = true
				break
			}
		}
		if !found {
			errs = append(errs, schema.Invalid(fmt.Sprintf("%s[%d]", key, i), "unknown catalog entry", name))
		}
	}
	return ids, errs
}

func toNames(ids []string, list []domain.Lookup) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		name := id
		for _, l := range list {
			if l.ID == id {
				name = l.Name
				break
			}
		}
		names = append(names, name)
	}
	return names
}
