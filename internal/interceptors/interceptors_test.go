package interceptors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmehra2102/PostDeck/internal/domain"
	"github.com/dmehra2102/PostDeck/pkg/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func okTransport(seen *http.Request) http.RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		*seen = *req
		rec := httptest.NewRecorder()
		rec.WriteHeader(http.StatusOK)
		return rec.Result(), nil
	})
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.RoundTripper) http.RoundTripper {
			return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next.RoundTrip(req)
			})
		}
	}

	var seen http.Request
	rt := Chain(okTransport(&seen), mark("outer"), mark("inner"))
	req := httptest.NewRequest(http.MethodGet, "http://example.test/posts", nil)
	_, err := rt.RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestAuthInterceptor(t *testing.T) {
	now := time.Now()

	t.Run("anonymous requests pass untouched", func(t *testing.T) {
		var seen http.Request
		rt := Chain(okTransport(&seen), AuthInterceptor(func() time.Time { return now }))
		_, err := rt.RoundTrip(httptest.NewRequest(http.MethodGet, "http://example.test/posts", nil))
		require.NoError(t, err)
		assert.Empty(t, seen.Header.Get("Authorization"))
	})

	t.Run("bearer token attached", func(t *testing.T) {
		var seen http.Request
		rt := Chain(okTransport(&seen), AuthInterceptor(func() time.Time { return now }))
		req := httptest.NewRequest(http.MethodGet, "http://example.test/users/1", nil)
		req = req.WithContext(auth.ContextWithCredentials(context.Background(), auth.Credentials{Token: "t0k", UserID: 1}))
		_, err := rt.RoundTrip(req)
		require.NoError(t, err)
		assert.Equal(t, "Bearer t0k", seen.Header.Get("Authorization"))
		assert.Empty(t, req.Header.Get("Authorization"), "caller request must not be modified")
	})

	t.Run("expired jwt fails before dispatch", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"exp": now.Add(-time.Hour).Unix(),
		}).SignedString([]byte("k"))
		require.NoError(t, err)

		called := false
		rt := Chain(RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			called = true
			return nil, nil
		}), AuthInterceptor(func() time.Time { return now }))

		req := httptest.NewRequest(http.MethodGet, "http://example.test/users/1", nil)
		req = req.WithContext(auth.ContextWithCredentials(context.Background(), auth.Credentials{Token: token}))
		_, err = rt.RoundTrip(req)
		assert.ErrorIs(t, err, domain.ErrAuthExpired)
		assert.False(t, called)
	})
}

func TestLoggingInterceptorRequestID(t *testing.T) {
	var seen http.Request
	rt := Chain(okTransport(&seen), LoggingInterceptor(zap.NewNop()))

	_, err := rt.RoundTrip(httptest.NewRequest(http.MethodGet, "http://example.test/posts", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, seen.Header.Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "http://example.test/posts", nil)
	req.Header.Set(requestIDHeader, "fixed")
	_, err = rt.RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, "fixed", seen.Header.Get(requestIDHeader))
}

func TestRecoveryInterceptor(t *testing.T) {
	rt := Chain(RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		panic("transport exploded")
	}), RecoveryInterceptor(zap.NewNop()), MetricsInterceptor())

	_, err := rt.RoundTrip(httptest.NewRequest(http.MethodGet, "http://example.test/posts", nil))
	assert.ErrorContains(t, err, "transport exploded")
}

func TestResourceLabel(t *testing.T) {
	assert.Equal(t, "posts", resourceLabel("/posts/1/comments"))
	assert.Equal(t, "todos", resourceLabel("/todos"))
	assert.Equal(t, "root", resourceLabel("/"))
}
