package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/quire/pkg/adapters/memory"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftStore_Contract(t *testing.T) {
	ports.RunDraftStoreContract(t, memory.NewDraftStore())
}

func TestDraftStore_IsolatesCopies(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDraftStore()
	d := &domain.Draft{SessionID: "s", Phase: "editing", Metadata: domain.TemplateMetadata{Name: "A"}}
	require.NoError(t, store.Save(ctx, "s", d))

	d.Metadata.Name = "mutated"
	loaded, err := store.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "A", loaded.Metadata.Name)
}

var _ ports.ScenarioAPI = (*memory.Backend)(nil)

func sampleDoc() domain.Questionnaire {
	return domain.Questionnaire{
		Nodes: []domain.Node{{ID: "1", Type: domain.NodeTypeSection, Data: domain.SectionData{SectionName: "Intake", Weight: 1}}},
		Edges: []domain.Edge{},
	}
}

func TestBackend_CreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	b := memory.NewBackend(memory.WithIDGenerator(func() string { return "sc-1" }))

	res, err := b.CreateScenario(ctx, domain.CreateScenarioInput{
		Name:          "ER Readiness",
		Questionnaire: sampleDoc(),
		Facilities:    []string{"fac-hospital"},
		Services:      []string{"svc-emergency"},
	})
	require.NoError(t, err)
	assert.Equal(t, 201, res.Code)
	require.NotNil(t, res.Data)
	assert.Equal(t, "sc-1", res.Data.ID)

	rec, err := b.GetScenarioByID(ctx, "sc-1")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Version)
	assert.Equal(t, domain.ScenarioStatusDraft, rec.Status)
	assert.Equal(t, sampleDoc().Nodes, rec.Questionnaire.Nodes)

	name := "ER Readiness v2"
	up, err := b.UpdateTemplate(ctx, domain.UpdateTemplateInput{ID: "sc-1", Name: &name})
	require.NoError(t, err)
	assert.False(t, up.NewVersionCreated)
	assert.Equal(t, name, up.Scenario.Name)

	doc := sampleDoc()
	up, err = b.UpdateTemplate(ctx, domain.UpdateTemplateInput{ID: "sc-1", Questionnaire: &doc})
	require.NoError(t, err)
	assert.True(t, up.NewVersionCreated)

	rec, err = b.GetScenarioByID(ctx, "sc-1")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Version)
	assert.Equal(t, []string{"fac-hospital"}, rec.Facilities, "omitted fields are untouched")
}

func TestBackend_Failures(t *testing.T) {
	ctx := context.Background()
	b := memory.NewBackend()

	res, err := b.CreateScenario(ctx, domain.CreateScenarioInput{Name: "  "})
	require.NoError(t, err)
	assert.Equal(t, 400, res.Code)
	assert.Nil(t, res.Data)

	res, err = b.CreateScenario(ctx, domain.CreateScenarioInput{Name: "X", Facilities: []string{"fac-moon"}})
	require.NoError(t, err)
	assert.Equal(t, 400, res.Code)
	assert.Contains(t, res.Message, "fac-moon")

	_, err = b.CreateScenario(ctx, domain.CreateScenarioInput{Name: "Dup", Questionnaire: sampleDoc()})
	require.NoError(t, err)
	res, err = b.CreateScenario(ctx, domain.CreateScenarioInput{Name: "dup", Questionnaire: sampleDoc()})
	require.NoError(t, err)
	assert.Equal(t, 409, res.Code)

	_, err = b.GetScenarioByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrScenarioNotFound)

	_, err = b.UpdateTemplate(ctx, domain.UpdateTemplateInput{ID: "missing"})
	assert.ErrorIs(t, err, domain.ErrScenarioNotFound)
}

func TestBackend_Catalogs(t *testing.T) {
	b := memory.NewBackend(memory.WithServices(domain.Lookup{ID: "s1", Name: "Only"}))
	f, err := b.GetAllFacilityTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, memory.DefaultFacilities, f)

	s, err := b.GetServiceLines(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Lookup{{ID: "s1", Name: "Only"}}, s)
}
