package interceptors

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"
)

func RecoveryInterceptor(logger *zap.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (resp *http.Response, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("panic recovered",
						zap.String("method", req.Method),
						zap.String("path", req.URL.Path),
						zap.Any("panic", r),
						zap.String("stack", string(debug.Stack())),
					)
					resp, err = nil, fmt.Errorf("round trip panic: %v", r)
				}
			}()

			return next.RoundTrip(req)
		})
	}
}
