package jwt_test

import (
	"testing"
	"time"

	"github.com/mentorhub/mentorhub-api/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	tm := jwt.NewTokenManager("test-secret", "mentorhub-test", 1)

	token, err := tm.GenerateToken("user-1", "mentor", "mentor@example.com", "Marcus Mentor")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "mentor", claims.Role)
	assert.Equal(t, "mentor@example.com", claims.Email)
	assert.Equal(t, "Marcus Mentor", claims.Name)
	assert.Equal(t, "mentorhub-test", claims.Issuer)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	tm := jwt.NewTokenManager("test-secret", "mentorhub-test", 1)
	other := jwt.NewTokenManager("other-secret", "mentorhub-test", 1)

	token, err := other.GenerateToken("user-1", "mentor", "x@example.com", "X")
	require.NoError(t, err)

	_, err = tm.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Garbage(t *testing.T) {
	tm := jwt.NewTokenManager("test-secret", "mentorhub-test", 1)

	_, err := tm.ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestGetExpirationTime(t *testing.T) {
	tm := jwt.NewTokenManager("test-secret", "mentorhub-test", 24)
	assert.Equal(t, 24*time.Hour, tm.GetExpirationTime())
}

func TestTimingSafeCompare(t *testing.T) {
	assert.True(t, jwt.TimingSafeCompare("abc", "abc"))
	assert.False(t, jwt.TimingSafeCompare("abc", "abd"))
	assert.False(t, jwt.TimingSafeCompare("abc", "abcd"))
}
