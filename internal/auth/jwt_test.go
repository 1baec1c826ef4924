package auth

import (
	"testing"

	"fuelsync-backend/internal/config"
	"fuelsync-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager(secret string) *JWTManager {
	cfg := &config.Config{}
	cfg.JWT.Secret = secret
	cfg.JWT.ExpirationHours = 1
	cfg.JWT.Issuer = "test"
	return NewJWTManager(cfg)
}

func TestTokenRoundTrip(t *testing.T) {
	m := testManager("s3cret")
	user := &models.User{ID: "u1", TenantID: "t1", Email: "a@b.c", Role: models.RoleManager}

	token, err := m.GenerateToken(user)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "t1", claims.TenantID)
	assert.Equal(t, models.RoleManager, claims.Role)
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := testManager("one").GenerateToken(&models.User{ID: "u1"})
	require.NoError(t, err)

	_, err = testManager("two").ValidateToken(token)
	assert.Error(t, err)
}

func TestTempTokenNotAcceptedAsTemp(t *testing.T) {
	m := testManager("s3cret")
	user := &models.User{ID: "u1", TenantID: "t1"}

	temp, err := m.GenerateTempToken(user)
	require.NoError(t, err)
	claims, err := m.ValidateTempToken(temp)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)

	full, err := m.GenerateToken(user)
	require.NoError(t, err)
	_, err = m.ValidateTempToken(full)
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "hunter2"))
	assert.False(t, VerifyPassword(hash, "hunter3"))
}
