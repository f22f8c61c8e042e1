package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/quire"
	"github.com/aretw0/quire/internal/adapters/file"
	"github.com/aretw0/quire/internal/config"
	"github.com/aretw0/quire/pkg/adapters/graphql"
	"github.com/aretw0/quire/pkg/adapters/memory"
	"github.com/aretw0/quire/pkg/adapters/postgres"
	"github.com/aretw0/quire/pkg/adapters/redis"
	"github.com/aretw0/quire/pkg/observability"
	"github.com/aretw0/quire/pkg/persistence/middleware"
	"github.com/aretw0/quire/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// App is a configured Studio plus the resources it holds open.
type App struct {
	Studio   *quire.Studio
	Registry *prometheus.Registry

	closers []func() error
}

// Close releases database pools and Redis clients.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// NewApp wires the Studio described by cfg.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{Registry: prometheus.NewRegistry()}

	api, err := app.scenarioAPI(ctx, cfg.Backend, logger)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	drafts, locker, err := app.draftStore(cfg.Drafts)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	hooks := observability.LoggingHooks(logger)
	if cfg.Server.Metrics {
		app.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics, err := observability.NewMetrics(app.Registry)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		hooks = observability.Combine(hooks, metrics.Hooks())
	}

	opts := []quire.Option{
		quire.WithLogger(logger),
		quire.WithLifecycleHooks(hooks),
	}
	if locker != nil {
		opts = append(opts, quire.WithLocker(locker))
	}
	app.Studio = quire.NewStudio(api, drafts, opts...)
	return app, nil
}

func (a *App) scenarioAPI(ctx context.Context, cfg config.BackendConfig, logger *slog.Logger) (ports.ScenarioAPI, error) {
	switch cfg.Kind {
	case config.BackendMemory:
		return memory.NewBackend(), nil
	case config.BackendGraphQL:
		return graphql.New(cfg.GraphQL.Endpoint,
			graphql.WithToken(cfg.GraphQL.Token),
			graphql.WithTimeout(cfg.GraphQL.Timeout),
			graphql.WithLogger(logger),
		), nil
	case config.BackendPostgres:
		pool, err := postgres.Connect(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		backend := postgres.New(pool)
		if cfg.Postgres.Migrate {
			if err := Migrate(ctx, backend); err != nil {
				return nil, err
			}
		}
		return backend, nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Kind)
}

// Migrate creates the Postgres tables and seeds the default catalog.
func Migrate(ctx context.Context, backend *postgres.Backend) error {
	if err := backend.CreateSchema(ctx); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return backend.SeedCatalog(ctx, memory.DefaultFacilities, memory.DefaultServices)
}

func (a *App) draftStore(cfg config.DraftsConfig) (ports.DraftStore, ports.DistributedLocker, error) {
	var (
		store  ports.DraftStore
		locker ports.DistributedLocker
	)
	switch cfg.Kind {
	case config.DraftsMemory:
		store = memory.NewDraftStore()
	case config.DraftsFile:
		store = file.NewDraftStore(cfg.Dir)
	case config.DraftsRedis:
		client := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		a.closers = append(a.closers, client.Close)
		opts := []redis.Option{redis.WithTTL(cfg.TTL)}
		if cfg.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Redis.Prefix))
		}
		store = redis.NewDraftStore(client, opts...)
		if cfg.Redis.Lock {
			locker = redis.NewLocker(client, cfg.Redis.Prefix)
		}
	default:
		return nil, nil, fmt.Errorf("unknown draft store %q", cfg.Kind)
	}

	if cfg.EncryptionKey == "" {
		return store, locker, nil
	}
	enc, err := encryptionConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	return middleware.Chain(store, middleware.NewEncryptionMiddleware(enc)), locker, nil
}

func encryptionConfig(cfg config.DraftsConfig) (middleware.EncryptionConfig, error) {
	active, err := middleware.ParseKey(cfg.EncryptionKey)
	if err != nil {
		return middleware.EncryptionConfig{}, fmt.Errorf("drafts.encryption_key: %w", err)
	}
	enc := middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range cfg.FallbackKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return middleware.EncryptionConfig{}, fmt.Errorf("drafts.fallback_keys[%d]: %w", i, err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}
	return enc, nil
}
