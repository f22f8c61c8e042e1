package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aretw0/quire/pkg/schema"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no --config flag is given. A missing default file
// is not an error.
const DefaultPath = "quire.yaml"

// Backend kinds.
const (
	BackendMemory   = "memory"
	BackendGraphQL  = "graphql"
	BackendPostgres = "postgres"
)

// Draft store kinds.
const (
	DraftsMemory = "memory"
	DraftsFile   = "file"
	DraftsRedis  = "redis"
)

// Config is the whole application configuration.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Server  ServerConfig  `yaml:"server"`
	Backend BackendConfig `yaml:"backend"`
	Drafts  DraftsConfig  `yaml:"drafts"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	Metrics         bool          `yaml:"metrics"`
}

type BackendConfig struct {
	Kind     string         `yaml:"kind"`
	GraphQL  GraphQLConfig  `yaml:"graphql"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type GraphQLConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Token    string        `yaml:"token"`
	Timeout  time.Duration `yaml:"timeout"`
}

type PostgresConfig struct {
	DSN     string `yaml:"dsn"`
	Migrate bool   `yaml:"migrate"`
}

type DraftsConfig struct {
	Kind  string        `yaml:"kind"`
	Dir   string        `yaml:"dir"`
	TTL   time.Duration `yaml:"ttl"`
	Redis RedisConfig   `yaml:"redis"`

	// EncryptionKey enables AES-GCM sealing of drafts (base64 or 32 raw bytes).
	EncryptionKey string   `yaml:"encryption_key"`
	FallbackKeys  []string `yaml:"fallback_keys"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
	// Lock enables distributed session locks for multi-replica servers.
	Lock bool `yaml:"lock"`
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	return &Config{
		Log:    LogConfig{Level: "info", Format: "text"},
		Server: ServerConfig{Addr: ":8080", ShutdownTimeout: 10 * time.Second, Metrics: true},
		Backend: BackendConfig{
			Kind:    BackendMemory,
			GraphQL: GraphQLConfig{Timeout: 15 * time.Second},
		},
		Drafts: DraftsConfig{
			Kind:  DraftsMemory,
			Redis: RedisConfig{Addr: "localhost:6379", Prefix: "quire:"},
		},
	}
}

// Load reads path over the defaults and applies environment overrides.
// JSON files are accepted too, since YAML is a superset of JSON.
// If path is DefaultPath and the file is missing, defaults are used.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && path == DefaultPath:
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	cfg.applyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv lets secrets and deployment specifics come from QUIRE_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set("QUIRE_LOG_LEVEL", &c.Log.Level)
	set("QUIRE_LOG_FORMAT", &c.Log.Format)
	set("QUIRE_ADDR", &c.Server.Addr)
	set("QUIRE_BACKEND", &c.Backend.Kind)
	set("QUIRE_GRAPHQL_ENDPOINT", &c.Backend.GraphQL.Endpoint)
	set("QUIRE_GRAPHQL_TOKEN", &c.Backend.GraphQL.Token)
	set("QUIRE_POSTGRES_DSN", &c.Backend.Postgres.DSN)
	set("QUIRE_DRAFTS", &c.Drafts.Kind)
	set("QUIRE_REDIS_ADDR", &c.Drafts.Redis.Addr)
	set("QUIRE_REDIS_PASSWORD", &c.Drafts.Redis.Password)
	set("QUIRE_ENCRYPTION_KEY", &c.Drafts.EncryptionKey)
}

// Validate checks that the selected adapters have what they need.
func (c *Config) Validate() error {
	var errs []error
	switch c.Backend.Kind {
	case BackendMemory:
	case BackendGraphQL:
		if c.Backend.GraphQL.Endpoint == "" {
			errs = append(errs, schema.Invalid("backend.graphql.endpoint", "required for the graphql backend", nil))
		}
	case BackendPostgres:
		if c.Backend.Postgres.DSN == "" {
			errs = append(errs, schema.Invalid("backend.postgres.dsn", "required for the postgres backend", nil))
		}
	default:
		errs = append(errs, schema.Invalid("backend.kind", "must be memory, graphql or postgres", c.Backend.Kind))
	}

	switch c.Drafts.Kind {
	case DraftsMemory, DraftsFile:
	case DraftsRedis:
		if c.Drafts.Redis.Addr == "" {
			errs = append(errs, schema.Invalid("drafts.redis.addr", "required for the redis draft store", nil))
		}
	default:
		errs = append(errs, schema.Invalid("drafts.kind", "must be memory, file or redis", c.Drafts.Kind))
	}
	if c.Drafts.Redis.Lock && c.Drafts.Kind != DraftsRedis {
		errs = append(errs, schema.Invalid("drafts.redis.lock", "requires the redis draft store", nil))
	}
	return schema.Aggregate(errs)
}
