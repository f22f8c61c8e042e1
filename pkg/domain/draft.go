package domain

import "time"

// Draft is the recoverable snapshot of a builder session.
type Draft struct {
	SessionID     string           `json:"session_id"`
	Phase         string           `json:"phase"`
	ScenarioID    string           `json:"scenario_id,omitempty"`
	Metadata      TemplateMetadata `json:"metadata"`
	Questionnaire *Questionnaire   `json:"questionnaire,omitempty"`
	UpdatedAt     time.Time        `json:"updated_at"`

	// Sealed holds the encrypted form of the draft when a store middleware
	// hides the contents. All other fields except SessionID are then empty.
	Sealed string `json:"sealed,omitempty"`
}

// Clone returns a deep copy of the draft.
func (d *Draft) Clone() *Draft {
	c := *d
	c.Metadata.Facilities = append([]string(nil), d.Metadata.Facilities...)
	c.Metadata.Services = append([]string(nil), d.Metadata.Services...)
	if d.Questionnaire != nil {
		c.Questionnaire = d.Questionnaire.Clone()
	}
	return &c
}
