package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_UniqueSaltsBothVerify(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	first, err := h.Hash("Secret1!")
	require.NoError(t, err)
	second, err := h.Hash("Secret1!")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "hashes should differ due to unique salts")
	for _, hashed := range []string{first, second} {
		assert.True(t, h.Verify("Secret1!", hashed))
		assert.False(t, h.Verify("WrongPass", hashed))
	}
}

func TestBcryptHasher_VerifyMalformedHash(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	for _, hashed := range []string{"", "not-a-hash", "$2a$04$short"} {
		assert.False(t, h.Verify("Secret1!", hashed), "hash %q", hashed)
	}
}

func TestBcryptHasher_CostFallback(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(bcrypt.MaxCost+1).cost)
	assert.Equal(t, 10, NewBcryptHasher(10).cost)
}

func TestBcryptHasher_UsesConfiguredCost(t *testing.T) {
	h := NewBcryptHasher(5)
	hashed, err := h.Hash("Secret1!")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hashed))
	require.NoError(t, err)
	assert.Equal(t, 5, cost)
}

func TestBcryptHasher_RejectsOverlongPassword(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	_, err := h.Hash(strings.Repeat("a", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	_, err = h.Hash(strings.Repeat("a", MaxPasswordBytes))
	assert.NoError(t, err)
}

func TestBcryptHasher_VerifyRejectsOverlongPassword(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	stored := strings.Repeat("a", MaxPasswordBytes)
	hashed, err := h.Hash(stored)
	require.NoError(t, err)

	assert.True(t, h.Verify(stored, hashed))
	// bcrypt alone would accept this: only the first 72 bytes are compared
	assert.False(t, h.Verify(stored+"WRONG-SUFFIX", hashed))
}
