package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/quire/internal/logging"
	"github.com/aretw0/quire/pkg/builder"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/ports"
)

// ErrSessionNotFound is returned for ids that are neither live nor drafted.
var ErrSessionNotFound = errors.New("session not found")

// DefaultLockTTL bounds how long a distributed session lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// RestoreFunc rebuilds a live session from its draft.
type RestoreFunc func(*domain.Draft) (*builder.Session, error)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager keeps builder sessions, serializes access to each of them and
// writes a draft after every successful change.
// Lock entries are reference counted and dropped when unused.
type Manager struct {
	drafts  ports.DraftStore
	restore RestoreFunc

	mu    sync.Mutex
	locks map[string]*lockEntry

	liveMu sync.RWMutex
	live   map[string]*builder.Session

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking. Sessions are then rebuilt from the
// draft store on every access so that replicas observe each other's changes.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager over a draft store.
func NewManager(drafts ports.DraftStore, restore RestoreFunc, opts ...Option) *Manager {
	m := &Manager{
		drafts:  drafts,
		restore: restore,
		locks:   make(map[string]*lockEntry),
		live:    make(map[string]*builder.Session),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must Lock entry.mu and call release after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[sessionID]
	if !ok {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[sessionID]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock runs fn while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Register adds a new session and writes its first draft.
func (m *Manager) Register(ctx context.Context, s *builder.Session) error {
	return m.WithLock(ctx, s.ID(), func(ctx context.Context) error {
		if err := m.drafts.Save(ctx, s.ID(), s.Draft()); err != nil {
			return fmt.Errorf("failed to store draft: %w", err)
		}
		m.remember(s)
		return nil
	})
}

// Get returns a session without locking it. Sessions not in memory are
// restored from their draft.
func (m *Manager) Get(ctx context.Context, sessionID string) (*builder.Session, error) {
	if m.locker == nil {
		m.liveMu.RLock()
		s, ok := m.live[sessionID]
		m.liveMu.RUnlock()
		if ok {
			return s, nil
		}
	}

	d, err := m.drafts.Load(ctx, sessionID)
	if errors.Is(err, domain.ErrDraftNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}
	s, err := m.restore(d)
	if err != nil {
		return nil, fmt.Errorf("failed to restore session %s: %w", sessionID, err)
	}
	m.logger.Debug("Session restored from draft", "session_id", sessionID)
	m.remember(s)
	return s, nil
}

// Do runs fn on the session under its lock and stores a draft when fn succeeds.
func (m *Manager) Do(ctx context.Context, sessionID string, fn func(context.Context, *builder.Session) error) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		s, err := m.Get(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := fn(ctx, s); err != nil {
			return err
		}
		if err := m.drafts.Save(ctx, sessionID, s.Draft()); err != nil {
			return fmt.Errorf("failed to store draft: %w", err)
		}
		return nil
	})
}

// Persist writes the current draft of a session.
func (m *Manager) Persist(ctx context.Context, s *builder.Session) error {
	return m.WithLock(ctx, s.ID(), func(ctx context.Context) error {
		return m.drafts.Save(ctx, s.ID(), s.Draft())
	})
}

// Delete forgets a session and removes its draft.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.liveMu.Lock()
		delete(m.live, sessionID)
		m.liveMu.Unlock()
		return m.drafts.Delete(ctx, sessionID)
	})
}

// List returns the ids of live and drafted sessions, sorted.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	ids, err := m.drafts.List(ctx)
	if err != nil {
		return nil, err
	}
	m.liveMu.RLock()
	for id := range m.live {
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	m.liveMu.RUnlock()
	slices.Sort(ids)
	return ids, nil
}

// Drafts returns the underlying draft store.
func (m *Manager) Drafts() ports.DraftStore {
	return m.drafts
}

func (m *Manager) remember(s *builder.Session) {
	if m.locker != nil {
		return
	}
	m.liveMu.Lock()
	m.live[s.ID()] = s
	m.liveMu.Unlock()
}
