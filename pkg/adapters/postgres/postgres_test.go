package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/aretw0/quire/pkg/adapters/memory"
	"github.com/aretw0/quire/pkg/adapters/postgres"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.ScenarioAPI = (*postgres.Backend)(nil)

// newBackend connects to QUIRE_TEST_POSTGRES_DSN and recreates the schema.
func newBackend(t *testing.T) *postgres.Backend {
	t.Helper()
	dsn := os.Getenv("QUIRE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("QUIRE_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	pool, err := postgres.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	b := postgres.New(pool)
	require.NoError(t, b.DropSchema(ctx))
	require.NoError(t, b.CreateSchema(ctx))
	require.NoError(t, b.SeedCatalog(ctx, memory.DefaultFacilities, memory.DefaultServices))
	return b
}

func doc() domain.Questionnaire {
	return domain.Questionnaire{
		Nodes: []domain.Node{
			{ID: "1", Type: domain.NodeTypeQuestion, Data: domain.QuestionData{Question: "Helipad?", QuestionType: domain.QuestionYesNo, Options: []string{}}},
		},
		Edges:        []domain.Edge{},
		TemplateName: "ER",
	}
}

func TestBackend_Lifecycle(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()

	res, err := b.CreateScenario(ctx, domain.CreateScenarioInput{
		Name:          "ER",
		Questionnaire: doc(),
		Facilities:    []string{"fac-hospital"},
		Services:      []string{"svc-emergency"},
	})
	require.NoError(t, err)
	require.Equal(t, 201, res.Code)
	id := res.Data.ID

	rec, err := b.GetScenarioByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Version)
	assert.Equal(t, doc().Nodes, rec.Questionnaire.Nodes)
	assert.Equal(t, []string{"fac-hospital"}, rec.Facilities)

	d := doc()
	up, err := b.UpdateTemplate(ctx, domain.UpdateTemplateInput{ID: id, Questionnaire: &d, Services: []string{"svc-stroke"}})
	require.NoError(t, err)
	assert.True(t, up.NewVersionCreated)

	rec, err = b.GetScenarioByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Version)
	assert.Equal(t, []string{"svc-stroke"}, rec.Services)

	res, err = b.CreateScenario(ctx, domain.CreateScenarioInput{Name: "er", Questionnaire: doc()})
	require.NoError(t, err)
	assert.Equal(t, 409, res.Code)

	res, err = b.CreateScenario(ctx, domain.CreateScenarioInput{Name: "Other", Questionnaire: doc(), Facilities: []string{"fac-moon"}})
	require.NoError(t, err)
	assert.Equal(t, 400, res.Code)

	_, err = b.GetScenarioByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrScenarioNotFound)
}

func TestBackend_Catalog(t *testing.T) {
	b := newBackend(t)
	f, err := b.GetAllFacilityTypes(context.Background())
	require.NoError(t, err)
	assert.Len(t, f, len(memory.DefaultFacilities))
	assert.Equal(t, "Clinic", f[0].Name)
}
