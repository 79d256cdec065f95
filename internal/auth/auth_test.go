package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	digest, salt, err := HashPassword("supersecret", "")
	require.NoError(t, err)
	assert.NotEmpty(t, digest)
	assert.Len(t, salt, 32)

	assert.True(t, VerifyPassword("supersecret", digest, salt))
	assert.False(t, VerifyPassword("wrong", digest, salt))
	assert.False(t, VerifyPassword("", digest, salt))
}

func TestHashPasswordWithGivenSalt(t *testing.T) {
	first, salt, err := HashPassword("password123", "fixed-salt")
	require.NoError(t, err)
	assert.Equal(t, "fixed-salt", salt)

	second, _, err := HashPassword("password123", "fixed-salt")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, _, err := HashPassword("password123", "other-salt")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestVerifyPasswordAcrossSalts(t *testing.T) {
	for _, salt := range []string{"a", "0123456789abcdef", "ünïcode"} {
		digest, _, err := HashPassword("hunter22", salt)
		require.NoError(t, err)
		assert.True(t, VerifyPassword("hunter22", digest, salt), "salt %q", salt)
		assert.False(t, VerifyPassword("hunter23", digest, salt), "salt %q", salt)
	}
}

func TestVerifyPasswordRejectsEmptySalt(t *testing.T) {
	digest, _, err := HashPassword("password123", "salt")
	require.NoError(t, err)
	assert.False(t, VerifyPassword("password123", digest, ""))
}

func TestIssueTokenHasTTL(t *testing.T) {
	issuer, err := NewTokenIssuer("secret", 10*time.Minute)
	require.NoError(t, err)

	userID := uuid.New()
	token, expiresAt, err := issuer.Issue(userID)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))
	assert.True(t, expiresAt.Before(time.Now().Add(10*time.Minute+5*time.Second)))

	parsed, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestIssueTokenIsUnique(t *testing.T) {
	issuer, err := NewTokenIssuer("secret", time.Minute)
	require.NoError(t, err)

	userID := uuid.New()
	first, _, err := issuer.Issue(userID)
	require.NoError(t, err)
	second, _, err := issuer.Issue(userID)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestParseRejectsOtherSecretAndExpiry(t *testing.T) {
	issuer, err := NewTokenIssuer("secret", time.Minute)
	require.NoError(t, err)
	token, _, err := issuer.Issue(uuid.New())
	require.NoError(t, err)

	other, err := NewTokenIssuer("another-secret", time.Minute)
	require.NoError(t, err)
	_, err = other.Parse(token)
	assert.Error(t, err)

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = issuer.Parse(token)
	assert.Error(t, err)
}

func TestNewTokenIssuerValidation(t *testing.T) {
	_, err := NewTokenIssuer("", time.Minute)
	assert.Error(t, err)

	_, err = NewTokenIssuer("secret", 0)
	assert.Error(t, err)
}
