package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BackendMetrics records latency of calls to the storefront backend.
type BackendMetrics struct {
	duration *prometheus.HistogramVec
}

// NewBackendMetrics registers the backend client histogram.
func NewBackendMetrics(reg prometheus.Registerer) *BackendMetrics {
	if reg == nil {
		return &BackendMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "backend_request_duration_seconds",
		Help:    "Duration of storefront backend requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "status"})
	reg.MustRegister(duration)
	return &BackendMetrics{duration: duration}
}

// Observe records one call. status 0 means the request never got a response.
func (b *BackendMetrics) Observe(operation string, status int, d time.Duration) {
	if b == nil || b.duration == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	b.duration.WithLabelValues(normalizeLabel(operation), label).Observe(d.Seconds())
}
