package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/quire/pkg/adapters/memory"
	"github.com/aretw0/quire/pkg/builder"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, drafts ports.DraftStore, opts ...Option) (*Manager, *memory.Backend) {
	t.Helper()
	api := memory.NewBackend()
	catalog := builder.NewCatalog(api)
	restore := func(d *domain.Draft) (*builder.Session, error) {
		return builder.Restore(d, api, catalog)
	}
	return NewManager(drafts, restore, opts...), api
}

func startSession(t *testing.T, m *Manager, api *memory.Backend, id string) *builder.Session {
	t.Helper()
	s := builder.New(id, api, builder.NewCatalog(api))
	require.NoError(t, s.SubmitMetadata(domain.TemplateMetadata{
		Name:       "Stroke",
		Facilities: []string{"Hospital"},
		Services:   []string{"Stroke"},
	}))
	require.NoError(t, m.Register(context.Background(), s))
	return s
}

func addSection(ctx context.Context, s *builder.Session) error {
	_, err := s.AddNode(ctx, domain.NodeTypeSection, domain.SectionData{SectionName: "S", Weight: 1}, domain.Position{})
	return err
}

func TestManager_DoSerializesMutations(t *testing.T) {
	ctx := context.Background()
	m, api := newManager(t, memory.NewDraftStore())
	startSession(t, m, api, "s1")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, m.Do(ctx, "s1", addSection))
		}()
	}
	wg.Wait()

	s, err := m.Get(ctx, "s1")
	require.NoError(t, err)
	nodes := s.Snapshot().Nodes
	require.Len(t, nodes, 20)
	seen := map[string]bool{}
	for _, n := range nodes {
		assert.False(t, seen[n.ID], "duplicate id %s", n.ID)
		seen[n.ID] = true
	}
}

func TestManager_DraftWrittenAfterChange(t *testing.T) {
	ctx := context.Background()
	drafts := memory.NewDraftStore()
	m, api := newManager(t, drafts)
	startSession(t, m, api, "s1")

	require.NoError(t, m.Do(ctx, "s1", addSection))

	d, err := drafts.Load(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, d.Questionnaire)
	assert.Len(t, d.Questionnaire.Nodes, 1)
	assert.Equal(t, string(builder.PhaseEditing), d.Phase)
}

func TestManager_FailedChangeKeepsDraft(t *testing.T) {
	ctx := context.Background()
	drafts := memory.NewDraftStore()
	m, api := newManager(t, drafts)
	startSession(t, m, api, "s1")

	err := m.Do(ctx, "s1", func(ctx context.Context, s *builder.Session) error {
		if err := addSection(ctx, s); err != nil {
			return err
		}
		return s.DeleteNode(ctx, "404")
	})
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)

	d, err := drafts.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, d.Questionnaire.Nodes, "the draft is only written after a successful change")
}

func TestManager_RestoresAfterRestart(t *testing.T) {
	ctx := context.Background()
	drafts := memory.NewDraftStore()
	m, api := newManager(t, drafts)
	startSession(t, m, api, "s1")
	require.NoError(t, m.Do(ctx, "s1", addSection))

	restarted, _ := newManager(t, drafts)
	s, err := restarted.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Stroke", s.Metadata().Name)
	assert.Len(t, s.Snapshot().Nodes, 1)

	_, err = restarted.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManager_DeleteAndList(t *testing.T) {
	ctx := context.Background()
	m, api := newManager(t, memory.NewDraftStore())
	startSession(t, m, api, "b")
	startSession(t, m, api, "a")

	ids, err := m.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	require.NoError(t, m.Delete(ctx, "a"))
	_, err = m.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	ids, err = m.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}

func TestManager_LockLifecycle(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t, memory.NewDraftStore())

	for i := 0; i < 1000; i++ {
		id := fmt.Sprintf("session-%d", i)
		_ = m.WithLock(ctx, id, func(context.Context) error { return nil })
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Empty(t, m.locks, "lock entries must be released")
}

type countingLocker struct {
	mu       sync.Mutex
	locks    int
	unlocks  int
	lastTTL  time.Duration
	failWith error
}

func (l *countingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failWith != nil {
		return nil, l.failWith
	}
	l.locks++
	l.lastTTL = ttl
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.unlocks++
		return nil
	}, nil
}

func TestManager_DistributedLock(t *testing.T) {
	ctx := context.Background()
	locker := &countingLocker{}
	drafts := memory.NewDraftStore()
	m, api := newManager(t, drafts, WithLocker(locker), WithLockTTL(5*time.Second))
	startSession(t, m, api, "s1")

	require.NoError(t, m.Do(ctx, "s1", addSection))
	assert.Equal(t, 2, locker.locks)
	assert.Equal(t, 2, locker.unlocks)
	assert.Equal(t, 5*time.Second, locker.lastTTL)

	// Another replica writes the draft; the next access must see it.
	other, _ := newManager(t, drafts, WithLocker(locker))
	require.NoError(t, other.Do(ctx, "s1", addSection))

	s, err := m.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, s.Snapshot().Nodes, 2)

	locker.failWith = context.DeadlineExceeded
	err = m.Do(ctx, "s1", addSection)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
