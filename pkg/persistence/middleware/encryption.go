package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/ports"
)

// ErrNotSealed is returned when an encrypting store reads a plaintext draft.
var ErrNotSealed = errors.New("draft is not encrypted")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey encrypts new drafts. Must be 32 bytes (AES-256).
	ActiveKey []byte

	// FallbackKeys are tried in order when the active key cannot decrypt,
	// which allows key rotation without losing stored drafts.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.DraftStore
	config EncryptionConfig
}

// NewEncryptionMiddleware seals every draft with AES-GCM. The stored draft is
// an envelope that keeps only the session id, the timestamp and the ciphertext.
// It panics if the active key is not 32 bytes.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.DraftStore) ports.DraftStore {
		return &encryptionMiddleware{next: next, config: config}
	}
}

// ParseKey decodes a base64 key, or accepts a raw 32 character string.
func ParseKey(s string) ([]byte, error) {
	if len(s) == 32 {
		return []byte(s), nil
	}
	k, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("encryption key is neither 32 bytes nor base64: %w", err)
	}
	if len(k) != 32 {
		return nil, fmt.Errorf("encryption key must decode to 32 bytes, got %d", len(k))
	}
	return k, nil
}

func (m *encryptionMiddleware) Save(ctx context.Context, sessionID string, draft *domain.Draft) error {
	plain, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}
	sealed, err := encrypt(plain, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt draft: %w", err)
	}

	envelope := &domain.Draft{
		SessionID: draft.SessionID,
		UpdatedAt: draft.UpdatedAt,
		Sealed:    base64.StdEncoding.EncodeToString(sealed),
	}
	return m.next.Save(ctx, sessionID, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, sessionID string) (*domain.Draft, error) {
	envelope, err := m.next.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if envelope.Sealed == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotSealed, sessionID)
	}

	sealed, err := base64.StdEncoding.DecodeString(envelope.Sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}
	plain, err := decryptWithRotation(sealed, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt draft %s: %w", sessionID, err)
	}

	var d domain.Draft
	if err := json.Unmarshal(plain, &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted draft: %w", err)
	}
	return &d, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func encrypt(plaintext, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext, active []byte, fallbacks [][]byte) ([]byte, error) {
	for _, key := range append([][]byte{active}, fallbacks...) {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, body := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, body, nil)
}
