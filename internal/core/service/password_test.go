package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/identity-service/internal/core/domain"
)

func TestBcryptHasher(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	t.Run("hash is not the plaintext", func(t *testing.T) {
		hash, err := hasher.Hash("secret123")
		require.NoError(t, err)
		assert.NotEqual(t, "secret123", hash)
		assert.NotContains(t, hash, "secret123")
	})

	t.Run("same password produces different hashes", func(t *testing.T) {
		h1, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		h2, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		assert.NotEqual(t, h1, h2)
	})

	t.Run("verify accepts the original password", func(t *testing.T) {
		hash, err := hasher.Hash("secret123")
		require.NoError(t, err)
		assert.True(t, hasher.Verify("secret123", hash))
	})

	t.Run("verify rejects other passwords", func(t *testing.T) {
		hash, err := hasher.Hash("secret123")
		require.NoError(t, err)
		for _, wrong := range []string{"", "secret12", "secret1234", "SECRET123"} {
			assert.False(t, hasher.Verify(wrong, hash), wrong)
		}
	})

	t.Run("verify rejects malformed digests", func(t *testing.T) {
		assert.False(t, hasher.Verify("secret123", "not-a-hash"))
		assert.False(t, hasher.Verify("secret123", ""))
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := hasher.Hash("")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("rejects passwords over 72 bytes", func(t *testing.T) {
		_, err := hasher.Hash(strings.Repeat("a", 73))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestNewBcryptHasher_CostBounds(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(bcrypt.MaxCost+1).cost)
	assert.Equal(t, 12, NewBcryptHasher(12).cost)
}
