package quire_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/quire"
	"github.com/aretw0/quire/pkg/adapters/memory"
	"github.com/aretw0/quire/pkg/builder"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }

func sequence(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return prefix + string(rune('0'+n))
	}
}

var erMeta = domain.TemplateMetadata{
	Name:       "ER triage",
	Facilities: []string{"Hospital"},
	Services:   []string{"Emergency", "Stroke"},
}

// fill submits metadata and adds one saved question.
func fill(ctx context.Context, s *builder.Session) error {
	if err := s.SubmitMetadata(erMeta); err != nil {
		return err
	}
	q, err := s.AddQuestion(ctx, domain.Position{X: 10, Y: 20})
	if err != nil {
		return err
	}
	q.SetQuestion("Mode of arrival?")
	if err := q.SetType(domain.QuestionRadio); err != nil {
		return err
	}
	q.SetOptions([]string{"Ambulance", "Walk-in"})
	return q.Save()
}

func newStudio(backend *memory.Backend, drafts *memory.DraftStore) *quire.Studio {
	return quire.NewStudio(backend, drafts,
		quire.WithClock(fixedNow),
		quire.WithIDGenerator(sequence("sess-")),
	)
}

func TestStudio_CreateSaveReopen(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewBackend(memory.WithIDGenerator(sequence("scn-")))
	drafts := memory.NewDraftStore()
	studio := newStudio(backend, drafts)

	sess, err := studio.NewSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", sess.ID())
	assert.Equal(t, builder.PhaseAwaitingMetadata, sess.Phase())

	require.NoError(t, studio.Do(ctx, sess.ID(), fill))

	res, err := studio.Save(ctx, sess.ID())
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "scn-1", res.ScenarioID)

	d, err := drafts.Load(ctx, sess.ID())
	require.NoError(t, err)
	assert.Equal(t, "scn-1", d.ScenarioID)

	// A second save updates the same scenario.
	res, err = studio.Save(ctx, sess.ID())
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.True(t, res.NewVersionCreated)

	rec, err := backend.GetScenarioByID(ctx, "scn-1")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Version)
	assert.Equal(t, []string{"fac-hospital"}, rec.Facilities)
	assert.Equal(t, []string{"svc-emergency", "svc-stroke"}, rec.Services)

	opened, err := studio.Open(ctx, "scn-1")
	require.NoError(t, err)
	assert.Equal(t, builder.PhaseEditing, opened.Phase())
	assert.Equal(t, erMeta, opened.Metadata())
	assert.Len(t, opened.Snapshot().Nodes, 1)

	ids, err := studio.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"sess-1", "sess-2"}, ids)
}

func TestStudio_Open_Unknown(t *testing.T) {
	studio := newStudio(memory.NewBackend(), memory.NewDraftStore())
	_, err := studio.Open(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrScenarioNotFound)
}

func TestStudio_RestoresAfterRestart(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewBackend()
	drafts := memory.NewDraftStore()

	first := newStudio(backend, drafts)
	sess, err := first.NewSession(ctx)
	require.NoError(t, err)
	require.NoError(t, first.Do(ctx, sess.ID(), fill))

	second := newStudio(backend, drafts)
	restored, err := second.Session(ctx, sess.ID())
	require.NoError(t, err)
	assert.Equal(t, builder.PhaseEditing, restored.Phase())
	assert.Equal(t, sess.Snapshot(), restored.Snapshot())
}

func TestStudio_Abandon(t *testing.T) {
	ctx := context.Background()
	drafts := memory.NewDraftStore()
	studio := newStudio(memory.NewBackend(), drafts)

	sess, err := studio.NewSession(ctx)
	require.NoError(t, err)
	require.NoError(t, studio.Abandon(ctx, sess.ID()))

	_, err = studio.Session(ctx, sess.ID())
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	_, err = drafts.Load(ctx, sess.ID())
	assert.ErrorIs(t, err, domain.ErrDraftNotFound)
}

func TestStudio_FailedChangeKeepsDraft(t *testing.T) {
	ctx := context.Background()
	drafts := memory.NewDraftStore()
	studio := newStudio(memory.NewBackend(), drafts)

	sess, err := studio.NewSession(ctx)
	require.NoError(t, err)

	err = studio.Do(ctx, sess.ID(), func(ctx context.Context, s *builder.Session) error {
		_, err := s.AddQuestion(ctx, domain.Position{})
		return err
	})
	assert.ErrorIs(t, err, builder.ErrWrongPhase)

	d, err := drafts.Load(ctx, sess.ID())
	require.NoError(t, err)
	assert.Empty(t, d.Questionnaire.Nodes)
}

// blockingBackend parks CreateScenario until release is closed.
type blockingBackend struct {
	*memory.Backend
	entered chan struct{}
	release chan struct{}
}

func (b *blockingBackend) CreateScenario(ctx context.Context, in domain.CreateScenarioInput) (*domain.MutationResult, error) {
	close(b.entered)
	<-b.release
	return b.Backend.CreateScenario(ctx, in)
}

func TestStudio_MutationsRejectedWhileSaving(t *testing.T) {
	ctx := context.Background()
	backend := &blockingBackend{Backend: memory.NewBackend(), entered: make(chan struct{}), release: make(chan struct{})}
	studio := quire.NewStudio(backend, memory.NewDraftStore(), quire.WithClock(fixedNow))

	sess, err := studio.NewSession(ctx)
	require.NoError(t, err)
	require.NoError(t, studio.Do(ctx, sess.ID(), fill))

	done := make(chan error, 1)
	go func() {
		_, err := studio.Save(ctx, sess.ID())
		done <- err
	}()
	<-backend.entered

	err = studio.Do(ctx, sess.ID(), func(ctx context.Context, s *builder.Session) error {
		_, err := s.AddSection(ctx, domain.Position{})
		return err
	})
	assert.ErrorIs(t, err, builder.ErrSessionLocked)

	_, err = studio.Save(ctx, sess.ID())
	assert.ErrorIs(t, err, builder.ErrSaveInFlight)

	close(backend.release)
	require.NoError(t, <-done)
	assert.Equal(t, builder.PhaseEditing, sess.Phase())
}

func TestStudio_SaveFailureMessage(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewBackend()
	studio := newStudio(backend, memory.NewDraftStore())

	for i := 0; i < 2; i++ {
		sess, err := studio.NewSession(ctx)
		require.NoError(t, err)
		require.NoError(t, studio.Do(ctx, sess.ID(), fill))
		_, err = studio.Save(ctx, sess.ID())
		if err == nil {
			continue
		}
		var saveErr *builder.SaveError
		require.True(t, errors.As(err, &saveErr))
		assert.Equal(t, `A scenario named "ER triage" already exists`, saveErr.Message)
		return
	}
	t.Fatal("expected the duplicate name to be rejected")
}
