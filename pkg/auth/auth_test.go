package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dmehra2102/PostDeck/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": exp.Unix(),
	})
	s, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)
	return s
}

func TestCredentialsContext(t *testing.T) {
	ctx := ContextWithCredentials(context.Background(), Credentials{Token: "abc", UserID: 4})
	creds, ok := CredentialsFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "user:4", creds.Scope())

	_, ok = CredentialsFromContext(ContextWithCredentials(context.Background(), Credentials{}))
	assert.False(t, ok)
	assert.Empty(t, Credentials{}.Scope())
}

func TestCheckExpiry(t *testing.T) {
	now := time.Now()

	assert.NoError(t, CheckExpiry("", now))
	assert.NoError(t, CheckExpiry("opaque-token", now))
	assert.NoError(t, CheckExpiry(signed(t, now.Add(time.Hour)), now))

	err := CheckExpiry(signed(t, now.Add(-time.Minute)), now)
	require.Error(t, err)
	assert.True(t, IsAuthExpired(err))
	assert.Equal(t, domain.KindAuthExpired, domain.KindOf(err))
}

func TestIsAuthExpiredIgnoresMessageText(t *testing.T) {
	assert.False(t, IsAuthExpired(errors.New("invalid token")))
	assert.True(t, IsAuthExpired(fmt.Errorf("profile: %w", domain.AuthExpiredError("GET /me", "unauthorized"))))
}
