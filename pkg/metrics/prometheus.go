package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	remoteRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_remote_requests_total",
			Help: "Total number of requests sent to the remote catalog.",
		},
		[]string{"method", "endpoint", "status"},
	)
	remoteRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_remote_request_duration_seconds",
			Help:    "Histogram of remote catalog request durations.",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)
	cacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_lookups_total",
			Help: "Query cache lookups by resource kind and result.",
		},
		[]string{"kind", "result"},
	)
	mutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_mutations_total",
			Help: "Catalog mutations by kind and final state.",
		},
		[]string{"kind", "state"},
	)
)

func init() {
	prometheus.MustRegister(remoteRequestsTotal)
	prometheus.MustRegister(remoteRequestDuration)
	prometheus.MustRegister(cacheLookupsTotal)
	prometheus.MustRegister(mutationsTotal)
}

// RecordRequest records one remote catalog call. statusCode is zero when no response arrived.
func RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := classifyStatus(statusCode)
	remoteRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	remoteRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

// RecordCacheLookup counts a hit, miss or shared load for a resource kind.
func RecordCacheLookup(kind, result string) {
	cacheLookupsTotal.WithLabelValues(kind, result).Inc()
}

func RecordMutation(kind, state string) {
	mutationsTotal.WithLabelValues(kind, state).Inc()
}

func classifyStatus(statusCode int) string {
	switch {
	case statusCode == 0:
		return "network"
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500 && statusCode < 600:
		return "5xx"
	}
	return "unknown"
}

func Handler() http.Handler {
	return promhttp.Handler()
}
