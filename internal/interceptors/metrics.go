package interceptors

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_client_requests_total",
			Help: "Total number of outgoing API requests",
		},
		[]string{"method", "resource", "code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_client_request_duration_seconds",
			Help:    "Histogram of outgoing API request durations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "resource"},
	)

	httpActiveRequests = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "api_client_active_requests",
			Help: "Number of outgoing API requests in flight",
		},
		[]string{"method"},
	)
)

func MetricsInterceptor() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resource := resourceLabel(req.URL.Path)

			httpActiveRequests.WithLabelValues(req.Method).Inc()
			defer httpActiveRequests.WithLabelValues(req.Method).Dec()

			resp, err := next.RoundTrip(req)

			duration := time.Since(start).Seconds()
			httpRequestDuration.WithLabelValues(req.Method, resource).Observe(duration)

			code := "error"
			if err == nil {
				code = strconv.Itoa(resp.StatusCode)
			}
			httpRequestsTotal.WithLabelValues(req.Method, resource, code).Inc()

			return resp, err
		})
	}
}
