package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func testManager() *Manager {
	return NewManager(TokenConfig{Secret: []byte("test-secret")})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	mgr := testManager()
	user := User{ID: uuid.New(), Username: "sam", Email: "sam@example.com"}

	token, err := mgr.GenerateAccessToken(user)
	assert.NoError(t, err)

	claims, err := mgr.ValidateAccessToken(token)
	assert.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "sam", claims.Username)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	mgr := testManager()
	user := User{ID: uuid.New(), Username: "sam"}

	access, _ := mgr.GenerateAccessToken(user)
	refresh, _ := mgr.GenerateRefreshToken(user)

	_, err := mgr.ValidateAccessToken(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = mgr.ValidateRefreshToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredTokenRejected(t *testing.T) {
	mgr := NewManager(TokenConfig{
		Secret:    []byte("test-secret"),
		AccessTTL: -time.Minute,
	})

	token, err := mgr.GenerateAccessToken(User{ID: uuid.New()})
	assert.NoError(t, err)

	_, err = mgr.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestWrongSecretRejected(t *testing.T) {
	token, err := testManager().GenerateAccessToken(User{ID: uuid.New()})
	assert.NoError(t, err)

	other := NewManager(TokenConfig{Secret: []byte("different-secret")})
	_, err = other.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
