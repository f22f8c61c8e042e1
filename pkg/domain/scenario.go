package domain

// TemplateMetadata is entered before graph editing begins.
// Facilities and Services hold the human-readable names the user picked.
type TemplateMetadata struct {
	Name       string   `json:"name"`
	Facilities []string `json:"facilities"`
	Services   []string `json:"services"`
}

// Lookup is an id/name pair from a backend catalog (facility types, service lines).
type Lookup struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// ScenarioRef identifies a stored scenario.
type ScenarioRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ScenarioRecord is the backend view of a scenario loaded for editing.
// Facilities and Services hold catalog ids.
type ScenarioRecord struct {
	Scenario      ScenarioRef   `json:"scenario"`
	Version       int           `json:"version"`
	Status        string        `json:"status"`
	Questionnaire Questionnaire `json:"questionnaire"`
	Facilities    []string      `json:"facilities"`
	Services      []string      `json:"services"`
}

// CreateScenarioInput is the payload of the createScenario mutation.
type CreateScenarioInput struct {
	Name          string        `json:"name"`
	Questionnaire Questionnaire `json:"questionnaire"`
	Facilities    []string      `json:"facilities"`
	Services      []string      `json:"services"`
}

// MutationResult is the generic envelope returned by createScenario.
type MutationResult struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Type    string       `json:"type"`
	Data    *ScenarioRef `json:"data,omitempty"`
}

// UpdateTemplateInput is the payload of the updateTemplate mutation.
// Nil fields are left untouched by the backend.
type UpdateTemplateInput struct {
	ID            string         `json:"id"`
	Name          *string        `json:"name,omitempty"`
	Facilities    []string       `json:"facilities,omitempty"`
	Services      []string       `json:"services,omitempty"`
	Questionnaire *Questionnaire `json:"questionnaire,omitempty"`
}

// UpdateTemplateResult is returned by updateTemplate.
type UpdateTemplateResult struct {
	Scenario          ScenarioRef `json:"scenario"`
	NewVersionCreated bool        `json:"newVersionCreated"`
	Message           string      `json:"message"`
}

// Scenario status values used by the bundled backends.
const (
	ScenarioStatusDraft     = "draft"
	ScenarioStatusPublished = "published"
)
