package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractDraft(id string) *domain.Draft {
	return &domain.Draft{
		SessionID: id,
		Phase:     "editing",
		Metadata: domain.TemplateMetadata{
			Name:       "ER Intake",
			Facilities: []string{"Hospital"},
			Services:   []string{"Emergency"},
		},
		Questionnaire: &domain.Questionnaire{
			Nodes: []domain.Node{
				{ID: "1", Type: domain.NodeTypeSection, Data: domain.SectionData{SectionName: "Triage", Weight: 2}},
				{ID: "2", Type: domain.NodeTypeQuestion, Position: domain.Position{X: 10, Y: 20}, Data: domain.QuestionData{
					Question:     "Ambulance bay?",
					QuestionType: domain.QuestionRadio,
					Options:      []string{"One", "Two"},
				}},
			},
			Edges: []domain.Edge{
				{ID: "e1-2-default-1", Source: "1", Target: "2", SourceHandle: "default", Label: domain.LabelDefault},
			},
		},
		UpdatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

// RunDraftStoreContract runs a suite of tests to verify that a DraftStore
// implementation adheres to the defined interface contract.
func RunDraftStoreContract(t *testing.T, store DraftStore) {
	ctx := context.Background()
	sessionID := "contract-draft-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		draft := contractDraft(sessionID)
		require.NoError(t, store.Save(ctx, sessionID, draft))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, draft.Phase, loaded.Phase)
		assert.Equal(t, draft.Metadata, loaded.Metadata)
		require.NotNil(t, loaded.Questionnaire)
		assert.Equal(t, draft.Questionnaire.Nodes, loaded.Questionnaire.Nodes)
		assert.Equal(t, draft.Questionnaire.Edges, loaded.Questionnaire.Edges)
		assert.True(t, draft.UpdatedAt.Equal(loaded.UpdatedAt))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrDraftNotFound)
	})

	t.Run("Overwrite", func(t *testing.T) {
		draft := contractDraft(sessionID)
		draft.Metadata.Name = "Renamed"
		require.NoError(t, store.Save(ctx, sessionID, draft))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", loaded.Metadata.Name)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, contractDraft(sessionID)))
		require.NoError(t, store.Delete(ctx, sessionID))

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrDraftNotFound, "Load after Delete should return ErrDraftNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, contractDraft(id1)))
		require.NoError(t, store.Save(ctx, id2, contractDraft(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
