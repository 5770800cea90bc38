package backend

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "churchadmin_backend_requests_total",
			Help: "Requests sent to the church backend, by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	requestDuration = promauto.NewHistogramVec( //nolint:gochecknoglobals
		prometheus.HistogramOpts{
			Name:    "churchadmin_backend_request_duration_seconds",
			Help:    "Latency of requests sent to the church backend.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// routeLabel replaces numeric path segments with ":id" to bound label cardinality.
func routeLabel(path string) string {
	parts := strings.Split(path, "/")

	for i, p := range parts {
		if p == "" {
			continue
		}

		if _, err := strconv.ParseUint(p, 10, 64); err == nil {
			parts[i] = ":id"
		}
	}

	return strings.Join(parts, "/")
}

func statusLabel(resp *http.Response, err error) string {
	switch {
	case resp != nil:
		return strconv.Itoa(resp.StatusCode)
	case err != nil:
		return "error"
	}

	return "none"
}
