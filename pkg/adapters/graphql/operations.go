package graphql

import (
	"context"
	"fmt"

	"github.com/aretw0/quire/pkg/domain"
)

const (
	createScenarioMutation = `mutation CreateScenario($input: CreateScenarioInput!) {
  createScenario(input: $input) { code message type data { id name } }
}`
	getScenarioByIDQuery = `query GetScenarioById($scenarioId: ID!) {
  getScenarioById(scenarioId: $scenarioId) {
    scenario { id name }
    version
    status
    questionnaire
    facilities
    services
  }
}`
	updateTemplateMutation = `mutation UpdateTemplate($input: UpdateTemplateInput!) {
  updateTemplate(input: $input) { scenario { id name } newVersionCreated message }
}`
	getAllFacilityTypesQuery = `query GetAllFacilityTypes { getAllFacilityTypes { _id name } }`
	getServiceLinesQuery     = `query GetServiceLines { getServiceLines { _id name } }`
)

// CreateScenario calls the createScenario mutation.
func (c *Client) CreateScenario(ctx context.Context, in domain.CreateScenarioInput) (*domain.MutationResult, error) {
	var out struct {
		CreateScenario *domain.MutationResult `json:"createScenario"`
	}
	if err := c.do(ctx, "createScenario", createScenarioMutation, map[string]any{"input": in}, &out); err != nil {
		return nil, err
	}
	if out.CreateScenario == nil {
		return nil, fmt.Errorf("createScenario: empty response")
	}
	return out.CreateScenario, nil
}

// GetScenarioByID calls the getScenarioById query.
func (c *Client) GetScenarioByID(ctx context.Context, id string) (*domain.ScenarioRecord, error) {
	var out struct {
		GetScenarioByID *domain.ScenarioRecord `json:"getScenarioById"`
	}
	if err := c.do(ctx, "getScenarioById", getScenarioByIDQuery, map[string]any{"scenarioId": id}, &out); err != nil {
		return nil, err
	}
	if out.GetScenarioByID == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrScenarioNotFound, id)
	}
	return out.GetScenarioByID, nil
}

// UpdateTemplate calls the updateTemplate mutation.
func (c *Client) UpdateTemplate(ctx context.Context, in domain.UpdateTemplateInput) (*domain.UpdateTemplateResult, error) {
	var out struct {
		UpdateTemplate *domain.UpdateTemplateResult `json:"updateTemplate"`
	}
	if err := c.do(ctx, "updateTemplate", updateTemplateMutation, map[string]any{"input": in}, &out); err != nil {
		return nil, err
	}
	if out.UpdateTemplate == nil {
		return nil, fmt.Errorf("updateTemplate: empty response")
	}
	return out.UpdateTemplate, nil
}

// GetAllFacilityTypes calls the getAllFacilityTypes query.
func (c *Client) GetAllFacilityTypes(ctx context.Context) ([]domain.Lookup, error) {
	var out struct {
		Items []domain.Lookup `json:"getAllFacilityTypes"`
	}
	if err := c.do(ctx, "getAllFacilityTypes", getAllFacilityTypesQuery, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// GetServiceLines calls the getServiceLines query.
func (c *Client) GetServiceLines(ctx context.Context) ([]domain.Lookup, error) {
	var out struct {
		Items []domain.Lookup `json:"getServiceLines"`
	}
	if err := c.do(ctx, "getServiceLines", getServiceLinesQuery, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}
