package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := NewJWTService("test-secret")

	tokenID, token, ttl, err := svc.GenerateSessionToken(42, "corey", false)
	assert.NoError(t, err)
	assert.NotEmpty(t, tokenID)
	assert.NotEmpty(t, token)
	assert.Equal(t, SessionExpiry, ttl)

	claims, err := svc.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "corey", claims.Username)
	assert.Equal(t, tokenID, claims.ID)
}

func TestJWTService_RememberExtendsExpiry(t *testing.T) {
	svc := NewJWTService("test-secret")

	_, token, ttl, err := svc.GenerateSessionToken(1, "corey", true)
	assert.NoError(t, err)
	assert.Equal(t, RememberedSessionExpiry, ttl)

	claims, err := svc.ValidateToken(token)
	assert.NoError(t, err)
	expiresIn := time.Until(claims.ExpiresAt.Time)
	assert.Greater(t, expiresIn, SessionExpiry)
}

func TestJWTService_RejectsWrongSecret(t *testing.T) {
	svc := NewJWTService("test-secret")
	_, token, _, err := svc.GenerateSessionToken(1, "corey", false)
	assert.NoError(t, err)

	other := NewJWTService("different-secret")
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_RejectsGarbage(t *testing.T) {
	svc := NewJWTService("test-secret")
	_, err := svc.ValidateToken("not.a.token")
	assert.Error(t, err)
}
