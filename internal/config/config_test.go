package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/quire/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	p := writeFile(t, "quire.yaml", `
log:
  level: debug
drafts:
  kind: redis
  ttl: 72h
  redis:
    addr: redis:6379
    lock: true
`)
	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, DraftsRedis, cfg.Drafts.Kind)
	assert.Equal(t, 72*time.Hour, cfg.Drafts.TTL)
	assert.Equal(t, "redis:6379", cfg.Drafts.Redis.Addr)
	assert.Equal(t, "quire:", cfg.Drafts.Redis.Prefix)
	assert.True(t, cfg.Drafts.Redis.Lock)
}

func TestLoad_AcceptsJSON(t *testing.T) {
	p := writeFile(t, "quire.json", `{"backend": {"kind": "graphql", "graphql": {"endpoint": "https://api.example.com/graphql"}}}`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, BackendGraphQL, cfg.Backend.Kind)
	assert.Equal(t, 15*time.Second, cfg.Backend.GraphQL.Timeout)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("QUIRE_BACKEND", "postgres")
	t.Setenv("QUIRE_POSTGRES_DSN", "postgres://quire@localhost/quire")
	t.Setenv("QUIRE_ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef")

	cfg, err := Load(writeFile(t, "quire.yaml", "log:\n  format: json\n"))
	require.NoError(t, err)
	assert.Equal(t, BackendPostgres, cfg.Backend.Kind)
	assert.Equal(t, "postgres://quire@localhost/quire", cfg.Backend.Postgres.DSN)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", cfg.Drafts.EncryptionKey)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Backend.Kind = BackendGraphQL
	cfg.Drafts.Kind = "s3"
	cfg.Drafts.Redis.Lock = true

	err := cfg.Validate()
	require.Error(t, err)
	keys := map[string]bool{}
	for _, ve := range schema.ValidationErrors(err) {
		keys[ve.Key] = true
	}
	assert.Equal(t, map[string]bool{
		"backend.graphql.endpoint": true,
		"drafts.kind":              true,
		"drafts.redis.lock":        true,
	}, keys)

	assert.NoError(t, Default().Validate())
}
