package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"testing"

	"github.com/aretw0/quire/pkg/adapters/memory"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/persistence/middleware"
	"github.com/aretw0/quire/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func secretDraft() *domain.Draft {
	return &domain.Draft{
		SessionID: "s1",
		Phase:     "editing",
		Metadata:  domain.TemplateMetadata{Name: "Confidential Triage", Facilities: []string{"Hospital"}, Services: []string{"Emergency"}},
		Questionnaire: &domain.Questionnaire{
			Nodes: []domain.Node{{ID: "1", Type: domain.NodeTypeSection, Data: domain.SectionData{SectionName: "Intake", Weight: 1}}},
			Edges: []domain.Edge{},
		},
	}
}

func TestEncryption_Contract(t *testing.T) {
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunDraftStoreContract(t, mw(memory.NewDraftStore()))
}

func TestEncryption_HidesContent(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewDraftStore()
	store := middleware.Chain(inner, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)}))

	require.NoError(t, store.Save(ctx, "s1", secretDraft()))

	raw, err := inner.Load(ctx, "s1")
	require.NoError(t, err)
	assert.NotEmpty(t, raw.Sealed)
	assert.Empty(t, raw.Metadata.Name)
	assert.Nil(t, raw.Questionnaire)
	assert.Equal(t, "s1", raw.SessionID)

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Confidential Triage", loaded.Metadata.Name)
	require.NotNil(t, loaded.Questionnaire)
	assert.Len(t, loaded.Questionnaire.Nodes, 1)
}

func TestEncryption_KeyRotation(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewDraftStore()
	oldKey, newKey := generateKey(t), generateKey(t)

	oldStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(inner)
	require.NoError(t, oldStore.Save(ctx, "s1", secretDraft()))

	newStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(inner)
	loaded, err := newStore.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Confidential Triage", loaded.Metadata.Name)

	require.NoError(t, newStore.Save(ctx, "s1", loaded))
	_, err = oldStore.Load(ctx, "s1")
	assert.Error(t, err, "drafts re-sealed with the new key are unreadable with the old one")
}

func TestEncryption_RejectsPlaintext(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewDraftStore()
	require.NoError(t, inner.Save(ctx, "plain", secretDraft()))

	store := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(inner)
	_, err := store.Load(ctx, "plain")
	assert.ErrorIs(t, err, middleware.ErrNotSealed)

	_, err = store.Load(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrDraftNotFound)
}

func TestEncryption_InvalidKeyPanics(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	})
}

func TestParseKey(t *testing.T) {
	raw := generateKey(t)
	k, err := middleware.ParseKey(base64.StdEncoding.EncodeToString(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, k)

	k, err = middleware.ParseKey("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	assert.Len(t, k, 32)

	_, err = middleware.ParseKey("c2hvcnQ=")
	assert.Error(t, err)
}
