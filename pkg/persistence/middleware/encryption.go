package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/parley/pkg/kv"
	"github.com/aretw0/parley/pkg/ports"
)

// envelopePrefix marks values written by the encryption middleware.
const envelopePrefix = "enc:"

// ErrNotEncrypted is returned when a stored value lacks the encryption envelope.
var ErrNotEncrypted = errors.New("value is missing encrypted data envelope")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.KeyValueStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts every value at rest using AES-GCM.
// Paths stay in clear text so backends can still list and delete them.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, errors.New("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.KeyValueStore) ports.KeyValueStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}, nil
}

// ParseKey decodes a base64 (standard or URL alphabet) AES-256 key.
func ParseKey(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		key, err = base64.URLEncoding.DecodeString(encoded)
	}
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

func (m *encryptionMiddleware) Get(ctx context.Context, path string) (any, bool, error) {
	raw, ok, err := m.next.Get(ctx, path)
	if err != nil || !ok {
		return nil, ok, err
	}
	value, err := m.open(raw)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decrypt %s: %w", path, err)
	}
	return value, true, nil
}

func (m *encryptionMiddleware) Set(ctx context.Context, path string, value any) error {
	if value == nil {
		return m.next.Set(ctx, path, nil)
	}
	normalized, err := kv.Normalize(value)
	if err != nil {
		return err
	}
	plainText, err := kv.Encode(normalized)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", path, err)
	}
	return m.next.Set(ctx, path, envelopePrefix+base64.StdEncoding.EncodeToString(ciphertext))
}

func (m *encryptionMiddleware) Has(ctx context.Context, path string) (bool, error) {
	return m.next.Has(ctx, path)
}

func (m *encryptionMiddleware) Delete(ctx context.Context, path string) error {
	return m.next.Delete(ctx, path)
}

func (m *encryptionMiddleware) GetAll(ctx context.Context) (map[string]any, error) {
	all, err := m.next.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(all))
	for path, raw := range all {
		value, err := m.open(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt %s: %w", path, err)
		}
		out[path] = value
	}
	return out, nil
}

func (m *encryptionMiddleware) Clear(ctx context.Context) error {
	return m.next.Clear(ctx)
}

func (m *encryptionMiddleware) open(raw any) (any, error) {
	s, ok := raw.(string)
	if !ok || !strings.HasPrefix(s, envelopePrefix) {
		return nil, ErrNotEncrypted
	}
	ciphertext, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(s, envelopePrefix))
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}
	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, err
	}
	return kv.Decode(plainText)
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	ciphertextBytes := ciphertext[gcm.NonceSize():]

	return gcm.Open(nil, nonce, ciphertextBytes, nil)
}
