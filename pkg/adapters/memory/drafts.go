package memory

import (
	"context"
	"sync"

	"github.com/aretw0/quire/pkg/domain"
)

// DraftStore implements ports.DraftStore in memory.
// Safe for concurrent use.
type DraftStore struct {
	data map[string]*domain.Draft
	mu   sync.RWMutex
}

// NewDraftStore creates a new in-memory draft store.
func NewDraftStore() *DraftStore {
	return &DraftStore{
		data: make(map[string]*domain.Draft),
	}
}

// Save stores a copy of the draft.
func (s *DraftStore) Save(ctx context.Context, sessionID string, draft *domain.Draft) error {
	c := draft.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = c
	return nil
}

// Load returns a copy so callers cannot mutate stored drafts.
func (s *DraftStore) Load(ctx context.Context, sessionID string) (*domain.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrDraftNotFound
	}
	return d.Clone(), nil
}

// Delete removes the draft.
func (s *DraftStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns the ids of stored drafts.
func (s *DraftStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}
