// Package crypto seals chat transcripts at rest. Each ciphertext is bound to
// the chat session it was written for, so rows cannot be replayed into
// another user's session.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	MinKeyLength = 32

	envelopeVersion = "v1"
)

var (
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
	ErrUnknownVersion    = errors.New("unknown ciphertext version")
)

// KeyError reports a master key that cannot be used.
type KeyError struct {
	Length int
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("MASTER_KEY must be at least %d bytes, got %d", MinKeyLength, e.Length)
}

// ValidateKey is checked at config load so a bad key fails startup instead of
// the first chat write.
func ValidateKey(masterKey string) error {
	if len(masterKey) < MinKeyLength {
		return &KeyError{Length: len(masterKey)}
	}
	return nil
}

// Sealer encrypts chat message content with AES-256-GCM.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives the AES key from the SHA-256 of the whole master key, so
// keys longer than 32 bytes keep all of their entropy.
func NewSealer(masterKey string) (*Sealer, error) {
	if err := ValidateKey(masterKey); err != nil {
		return nil, err
	}
	key := sha256.Sum256([]byte(masterKey))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

// SessionScope is the associated data for messages of one chat session.
func SessionScope(sessionID string) string {
	return "chat_session:" + sessionID
}

// Seal returns "v1.<base64url(nonce|ciphertext)>".
func (s *Sealer) Seal(plaintext, scope string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), []byte(scope))
	return envelopeVersion + "." + base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open fails when the envelope was sealed under a different key or scope.
func (s *Sealer) Open(envelope, scope string) (string, error) {
	version, payload, ok := strings.Cut(envelope, ".")
	if !ok {
		return "", ErrInvalidCiphertext
	}
	if version != envelopeVersion {
		return "", fmt.Errorf("%w: %q", ErrUnknownVersion, version)
	}
	data, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	nonceSize := s.aead.NonceSize()
	if len(data) < nonceSize+s.aead.Overhead() {
		return "", ErrInvalidCiphertext
	}
	plaintext, err := s.aead.Open(nil, data[:nonceSize], data[nonceSize:], []byte(scope))
	if err != nil {
		return "", fmt.Errorf("open chat message: %w", err)
	}
	return string(plaintext), nil
}
