package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	for _, pw := range []string{"pw123", "", "ünïcødé", strings.Repeat("a", 72)} {
		digest, err := h.HashPassword(pw)
		require.NoError(t, err, pw)
		assert.NotEqual(t, pw, digest)
		assert.True(t, h.VerifyPassword(pw, digest), pw)
		assert.False(t, h.VerifyPassword(pw+"x", digest), pw)
	}
}

func TestHashIsSalted(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	a, err := h.HashPassword("same")
	require.NoError(t, err)
	b, err := h.HashPassword("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.True(t, h.VerifyPassword("same", a))
	assert.True(t, h.VerifyPassword("same", b))
}

func TestHashRejectsBadInput(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	_, err := h.HashPassword("a\x00b")
	assert.ErrorIs(t, err, ErrPasswordEncoding)

	_, err = h.HashPassword(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, ErrPasswordEncoding)
}

func TestVerifyMalformedDigest(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	assert.False(t, h.VerifyPassword("pw", ""))
	assert.False(t, h.VerifyPassword("pw", "not-a-bcrypt-hash"))
	assert.False(t, h.VerifyPassword("pw", "$2a$04$short"))
}

func TestNewHasherClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(99).cost)
	assert.Equal(t, bcrypt.MinCost, NewHasher(bcrypt.MinCost).cost)
}
