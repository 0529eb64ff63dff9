package interceptors

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDHeader = "X-Request-ID"
)

func LoggingInterceptor(logger *zap.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()

			requestID := req.Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
				req = req.Clone(req.Context())
				req.Header.Set(requestIDHeader, requestID)
			}

			// Log request
			logger.Debug("http request started",
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.String("request_id", requestID),
			)

			resp, err := next.RoundTrip(req)

			duration := time.Since(start)

			if err != nil {
				logger.Error("http request failed",
					zap.String("method", req.Method),
					zap.String("path", req.URL.Path),
					zap.String("request_id", requestID),
					zap.Duration("duration", duration),
					zap.Error(err),
				)
			} else {
				logger.Info("http request completed",
					zap.String("method", req.Method),
					zap.String("path", req.URL.Path),
					zap.String("request_id", requestID),
					zap.Int("status", resp.StatusCode),
					zap.Duration("duration", duration),
				)
			}

			return resp, err
		})
	}
}
