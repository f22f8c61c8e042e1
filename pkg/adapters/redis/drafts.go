package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/quire/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by this package.
const DefaultPrefix = "quire:"

// farFuture is the index score of drafts without a TTL (2100-01-01).
const farFuture = 4102444800

// DraftStore implements ports.DraftStore on Redis.
// Drafts are JSON strings; a sorted set indexes them by expiry so that List
// never returns drafts Redis has already evicted.
type DraftStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a DraftStore.
type Option func(*DraftStore)

// WithTTL expires drafts that have not been saved for ttl.
func WithTTL(ttl time.Duration) Option {
	return func(s *DraftStore) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *DraftStore) {
		s.prefix = prefix
	}
}

// NewClient connects to a Redis server.
func NewClient(address, password string, db int) *backend.Client {
	return backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
}

// NewDraftStore creates a draft store on an existing client.
func NewDraftStore(client *backend.Client, opts ...Option) *DraftStore {
	s := &DraftStore{
		client: client,
		prefix: DefaultPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *DraftStore) key(sessionID string) string {
	return s.prefix + "draft:" + sessionID
}

func (s *DraftStore) indexKey() string {
	return s.prefix + "drafts"
}

// Save writes the draft and refreshes its expiry.
func (s *DraftStore) Save(ctx context.Context, sessionID string, draft *domain.Draft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}

	score := float64(farFuture)
	if s.ttl > 0 {
		score = float64(s.now().Add(s.ttl).Unix())
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(sessionID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: sessionID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save draft %s: %w", sessionID, err)
	}
	return nil
}

// Load reads a draft.
func (s *DraftStore) Load(ctx context.Context, sessionID string) (*domain.Draft, error) {
	val, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, domain.ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load draft %s: %w", sessionID, err)
	}

	var d domain.Draft
	if err := json.Unmarshal(val, &d); err != nil {
		return nil, fmt.Errorf("failed to decode draft %s: %w", sessionID, err)
	}
	return &d, nil
}

// Delete removes a draft and its index entry.
func (s *DraftStore) Delete(ctx context.Context, sessionID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(sessionID))
	pipe.ZRem(ctx, s.indexKey(), sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete draft %s: %w", sessionID, err)
	}
	return nil
}

// List prunes expired index entries and returns the remaining ids.
func (s *DraftStore) List(ctx context.Context) ([]string, error) {
	now := fmt.Sprintf("%d", s.now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", "("+now).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune draft index: %w", err)
	}
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	return ids, nil
}
