package quire

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/quire/internal/logging"
	"github.com/aretw0/quire/pkg/builder"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/ports"
	"github.com/aretw0/quire/pkg/session"
	"github.com/google/uuid"
)

// Studio is the high-level entry point of the library.
// It creates builder sessions, keeps them in a session.Manager and writes a
// draft after every change so that a restart loses nothing.
type Studio struct {
	api     ports.ScenarioAPI
	catalog *builder.Catalog
	manager *session.Manager
	locker  ports.DistributedLocker
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// Option defines a functional option for configuring the Studio.
type Option func(*Studio)

// WithLifecycleHooks registers observability hooks on every session.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Studio) {
		s.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Studio) {
		s.logger = logger
	}
}

// WithLocker serializes sessions across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(s *Studio) {
		s.locker = locker
	}
}

// WithClock overrides the time source of new sessions.
func WithClock(now func() time.Time) Option {
	return func(s *Studio) {
		s.now = now
	}
}

// WithIDGenerator overrides the session id generator (uuid by default).
func WithIDGenerator(gen func() string) Option {
	return func(s *Studio) {
		s.newID = gen
	}
}

// NewStudio creates a Studio over a scenario backend and a draft store.
func NewStudio(api ports.ScenarioAPI, drafts ports.DraftStore, opts ...Option) *Studio {
	s := &Studio{
		api:     api,
		catalog: builder.NewCatalog(api),
		logger:  logging.NewNop(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	mopts := []session.Option{session.WithLogger(s.logger)}
	if s.locker != nil {
		mopts = append(mopts, session.WithLocker(s.locker))
	}
	s.manager = session.NewManager(drafts, s.restore, mopts...)
	return s
}

func (s *Studio) sessionOptions() []builder.Option {
	return []builder.Option{
		builder.WithHooks(s.hooks),
		builder.WithLogger(s.logger),
		builder.WithClock(s.now),
	}
}

func (s *Studio) restore(d *domain.Draft) (*builder.Session, error) {
	return builder.Restore(d, s.api, s.catalog, s.sessionOptions()...)
}

// Catalog returns the shared facility and service catalog.
func (s *Studio) Catalog() *builder.Catalog {
	return s.catalog
}

// NewSession starts a session for a new template. It waits for metadata.
func (s *Studio) NewSession(ctx context.Context) (*builder.Session, error) {
	sess := builder.New(s.newID(), s.api, s.catalog, s.sessionOptions()...)
	if err := s.manager.Register(ctx, sess); err != nil {
		return nil, err
	}
	s.logger.Info("Session created", "session_id", sess.ID())
	return sess, nil
}

// Open starts a session on an existing scenario.
func (s *Studio) Open(ctx context.Context, scenarioID string) (*builder.Session, error) {
	rec, err := s.api.GetScenarioByID(ctx, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario: %w", err)
	}
	sess, err := builder.Edit(ctx, s.newID(), rec, s.api, s.catalog, s.sessionOptions()...)
	if err != nil {
		return nil, err
	}
	if err := s.manager.Register(ctx, sess); err != nil {
		return nil, err
	}
	s.logger.Info("Session opened", "session_id", sess.ID(), "scenario_id", scenarioID, "version", rec.Version)
	return sess, nil
}

// Session returns a live session, restoring it from its draft if needed.
func (s *Studio) Session(ctx context.Context, id string) (*builder.Session, error) {
	return s.manager.Get(ctx, id)
}

// Do runs fn on a session under its lock. The draft is written when fn succeeds.
func (s *Studio) Do(ctx context.Context, id string, fn func(context.Context, *builder.Session) error) error {
	return s.manager.Do(ctx, id, fn)
}

// Save persists a session to the backend and then refreshes its draft.
// The backend call runs outside the session lock, so concurrent changes are
// rejected with builder.ErrSessionLocked instead of queueing behind it.
// With a distributed locker the whole save holds the lock, since other
// replicas cannot observe the saving phase.
func (s *Studio) Save(ctx context.Context, id string) (*builder.SaveResult, error) {
	if s.locker != nil {
		var res *builder.SaveResult
		err := s.manager.Do(ctx, id, func(ctx context.Context, sess *builder.Session) error {
			r, err := sess.Save(ctx)
			res = r
			return err
		})
		return res, err
	}

	sess, err := s.manager.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	res, saveErr := sess.Save(ctx)
	if saveErr == nil {
		if err := s.manager.Persist(ctx, sess); err != nil {
			s.logger.Warn("Failed to refresh draft after save", "session_id", id, "err", err)
		}
	}
	return res, saveErr
}

// Abandon discards a session and its draft.
func (s *Studio) Abandon(ctx context.Context, id string) error {
	if err := s.manager.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Session abandoned", "session_id", id)
	return nil
}

// Sessions lists the ids of live and drafted sessions.
func (s *Studio) Sessions(ctx context.Context) ([]string, error) {
	return s.manager.List(ctx)
}
