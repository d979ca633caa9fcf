package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Network1945/backend/internal/domain"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.NoError(t, CheckPassword(hash, "correct horse battery staple"))
}

func TestCheckPassword_Wrong(t *testing.T) {
	hash, err := HashPassword("secret-password")
	require.NoError(t, err)

	err = CheckPassword(hash, "other-password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	err := CheckPassword("not-a-bcrypt-hash", "whatever")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestHashPassword_DistinctSalts(t *testing.T) {
	a, err := HashPassword("same-password")
	require.NoError(t, err)
	b, err := HashPassword("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}
