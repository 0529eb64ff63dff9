package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/dmehra2102/PostDeck/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const credentialsContextKey contextKey = "credentials"

// Credentials are the bearer credentials attached to outgoing requests.
type Credentials struct {
	Token  string
	UserID int
}

// ContextWithCredentials adds credentials to the context
func ContextWithCredentials(ctx context.Context, creds Credentials) context.Context {
	if creds.Token == "" {
		return ctx
	}
	return context.WithValue(ctx, credentialsContextKey, creds)
}

// CredentialsFromContext extracts credentials from the context
func CredentialsFromContext(ctx context.Context) (Credentials, bool) {
	creds, ok := ctx.Value(credentialsContextKey).(Credentials)
	return creds, ok && creds.Token != ""
}

// Scope returns the cache scope for the credentials. Anonymous reads share
// the empty scope.
func (c Credentials) Scope() string {
	if c.Token == "" {
		return ""
	}
	return "user:" + strconv.Itoa(c.UserID)
}

// CheckExpiry reports an AuthExpired error when token is a JWT whose exp
// claim is in the past. Opaque tokens carry no expiry and always pass; their
// expiry is only learned from a 401 response.
func CheckExpiry(token string, now time.Time) error {
	if token == "" {
		return nil
	}

	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		// not a JWT
		return nil
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return domain.AuthExpiredError("check token", "malformed exp claim")
	}
	if exp != nil && !now.Before(exp.Time) {
		return domain.AuthExpiredError("check token", "token expired at "+exp.UTC().Format(time.RFC3339))
	}
	return nil
}

// IsAuthExpired classifies err by kind, never by message text.
func IsAuthExpired(err error) bool {
	return errors.Is(err, domain.ErrAuthExpired)
}
