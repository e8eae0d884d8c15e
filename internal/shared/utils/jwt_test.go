package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken_Success(t *testing.T) {
	secret := "test-secret"

	token, err := GenerateToken("student-1", "student", secret, 1*time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := ValidateToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "student-1", claims.UserID)
	assert.Equal(t, "student-1", claims.Subject)
	assert.Equal(t, "student", claims.Role)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken("student-1", "student", "secret1", 1*time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken(token, "secret2")
	assert.Equal(t, ErrInvalidToken, err)
}

func TestValidateToken_Expired(t *testing.T) {
	token, err := GenerateToken("student-1", "student", "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token, "secret")
	assert.Equal(t, ErrInvalidToken, err)
}

func TestValidateToken_Malformed(t *testing.T) {
	_, err := ValidateToken("malformed-token", "secret")
	assert.Equal(t, ErrInvalidToken, err)
}

func TestValidateToken_Empty(t *testing.T) {
	_, err := ValidateToken("", "secret")
	assert.Equal(t, ErrInvalidToken, err)
}

func TestValidateToken_MissingUser(t *testing.T) {
	token, err := GenerateToken("", "student", "secret", time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken(token, "secret")
	assert.Equal(t, ErrInvalidToken, err)
}
