package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/schema"
)

// Document is a questionnaire read from disk, with metadata when the file
// was a saved draft.
type Document struct {
	Questionnaire *domain.Questionnaire
	Metadata      *domain.TemplateMetadata
}

// LoadDocument reads an exported questionnaire or a draft file.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseDocument(data)
}

// ParseDocument detects drafts by their session_id key. Anything else goes
// through the questionnaire import rules.
func ParseDocument(data []byte) (*Document, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, ok := top["session_id"]; !ok {
		q, err := schema.Import(data)
		if err != nil {
			return nil, err
		}
		return &Document{Questionnaire: q}, nil
	}

	var d domain.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("invalid draft: %w", err)
	}
	if d.Sealed != "" {
		return nil, fmt.Errorf("draft %s is encrypted", d.SessionID)
	}
	q := d.Questionnaire
	if q == nil {
		q = &domain.Questionnaire{Nodes: []domain.Node{}, Edges: []domain.Edge{}}
	}
	meta := d.Metadata
	return &Document{Questionnaire: q, Metadata: &meta}, nil
}
