package ports

import (
	"context"

	"github.com/aretw0/quire/pkg/domain"
)

// DraftStore persists builder session snapshots so that an interrupted
// session can be restored.
type DraftStore interface {
	// Save persists the draft for a given session ID.
	Save(ctx context.Context, sessionID string, draft *domain.Draft) error

	// Load retrieves the draft for a given session ID.
	// Returns domain.ErrDraftNotFound if the draft does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Draft, error)

	// Delete removes the draft. Deleting a missing draft is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the ids of all stored drafts.
	List(ctx context.Context) ([]string, error)
}
