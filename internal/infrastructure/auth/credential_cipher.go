package auth

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

var (
	// ErrInvalidKey is returned when the configured key is not a base64
	// encoded 32-byte value
	ErrInvalidKey = errors.New("auth: encryption key must be 32 bytes, base64 encoded")
	// ErrKeyMismatch is returned when a blob was sealed under another key
	ErrKeyMismatch = errors.New("auth: credential sealed with a different key")
	// ErrMalformedCiphertext is returned for truncated or tampered blobs
	ErrMalformedCiphertext = errors.New("auth: malformed credential ciphertext")
)

// CredentialCipher seals session secrets with XChaCha20-Poly1305.
// The key is loaded once at start-up; its id changes whenever the key does.
type CredentialCipher struct {
	aead  cipher.AEAD
	keyID string
}

// NewCredentialCipher creates a cipher from a raw 32-byte key
func NewCredentialCipher(key []byte) (*CredentialCipher, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, ErrInvalidKey
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("auth: create aead: %w", err)
	}
	sum := sha256.Sum256(key)
	return &CredentialCipher{
		aead:  aead,
		keyID: hex.EncodeToString(sum[:8]),
	}, nil
}

// NewCredentialCipherFromBase64 creates a cipher from the configured key
func NewCredentialCipherFromBase64(encoded string) (*CredentialCipher, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, ErrInvalidKey
	}
	return NewCredentialCipher(key)
}

// GenerateKey returns a fresh random key in configuration form
func GenerateKey() (string, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// KeyID identifies the key without revealing it
func (c *CredentialCipher) KeyID() string {
	return c.keyID
}

// Encrypt seals a secret. The key id is bound as associated data.
func (c *CredentialCipher) Encrypt(plaintext string) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("auth: generate nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, []byte(plaintext), []byte(c.keyID)), nil
}

// Decrypt opens a blob sealed by Encrypt under keyID
func (c *CredentialCipher) Decrypt(blob []byte, keyID string) (string, error) {
	if keyID != c.keyID {
		return "", ErrKeyMismatch
	}
	ns := c.aead.NonceSize()
	if len(blob) < ns+c.aead.Overhead() {
		return "", ErrMalformedCiphertext
	}
	plaintext, err := c.aead.Open(nil, blob[:ns], blob[ns:], []byte(keyID))
	if err != nil {
		return "", ErrMalformedCiphertext
	}
	return string(plaintext), nil
}
