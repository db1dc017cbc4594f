package crypto

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

func newTestSealer(t *testing.T, key string) *Sealer {
	t.Helper()
	sealer, err := NewSealer(key)
	require.NoError(t, err)
	return sealer
}

func TestSealOpen(t *testing.T) {
	sealer := newTestSealer(t, testKey)
	scope := SessionScope("7d7b9c5e-0d6a-4a53-9a8e-1f5b0f0c2d11")

	sealed, err := sealer.Seal("my salary is 1.2 lakh", scope)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, "v1."))
	assert.NotContains(t, sealed, "salary")

	plain, err := sealer.Open(sealed, scope)
	require.NoError(t, err)
	assert.Equal(t, "my salary is 1.2 lakh", plain)

	again, err := sealer.Seal("my salary is 1.2 lakh", scope)
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again)
}

func TestOpenRejectsOtherSession(t *testing.T) {
	sealer := newTestSealer(t, testKey)
	sealed, err := sealer.Seal("hello", SessionScope("a"))
	require.NoError(t, err)

	_, err = sealer.Open(sealed, SessionScope("b"))
	assert.Error(t, err)
}

func TestOpenRejectsTampering(t *testing.T) {
	sealer := newTestSealer(t, testKey)
	sealed, err := sealer.Seal("hello", "scope")
	require.NoError(t, err)

	_, err = newTestSealer(t, strings.Repeat("z", 32)).Open(sealed, "scope")
	assert.Error(t, err)

	_, err = sealer.Open("v1.c2hvcnQ", "scope")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = sealer.Open("no-version", "scope")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = sealer.Open("v9."+strings.TrimPrefix(sealed, "v1."), "scope")
	assert.ErrorIs(t, err, ErrUnknownVersion)
}

func TestLongKeysAreNotTruncated(t *testing.T) {
	a := newTestSealer(t, testKey+"-one")
	b := newTestSealer(t, testKey+"-two")

	sealed, err := a.Seal("hello", "scope")
	require.NoError(t, err)
	_, err = b.Open(sealed, "scope")
	assert.Error(t, err)
}

func TestShortKey(t *testing.T) {
	_, err := NewSealer("short")
	var keyErr *KeyError
	require.True(t, errors.As(err, &keyErr))
	assert.Equal(t, 5, keyErr.Length)
	assert.NoError(t, ValidateKey(testKey))
}
