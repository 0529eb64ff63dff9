package interceptors

import (
	"net/http"
	"time"

	"github.com/dmehra2102/PostDeck/pkg/auth"
)

// AuthInterceptor attaches the bearer token from the request context. Requests
// without credentials are sent anonymously. An expired JWT fails before dispatch.
func AuthInterceptor(now func() time.Time) Middleware {
	if now == nil {
		now = time.Now
	}
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			creds, ok := auth.CredentialsFromContext(req.Context())
			if !ok {
				return next.RoundTrip(req)
			}

			if err := auth.CheckExpiry(creds.Token, now()); err != nil {
				return nil, err
			}

			req = req.Clone(req.Context())
			req.Header.Set("Authorization", "Bearer "+creds.Token)
			return next.RoundTrip(req)
		})
	}
}
