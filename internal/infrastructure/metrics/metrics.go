// Package metrics records outbound calls to the loan service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "los_client"

type Recorder struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New creates a Recorder on its own registry so tests never collide with the
// global one.
func New() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}
	r.requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Calls made to the loan service, by operation and HTTP status.",
		},
		[]string{"operation", "code"},
	)
	r.duration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Latency of calls made to the loan service.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	r.registry.MustRegister(r.requests, r.duration)
	return r
}

// Observe records one call. code 0 means the request never got a response.
func (r *Recorder) Observe(operation string, code int, d time.Duration) {
	if r == nil {
		return
	}
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	r.requests.WithLabelValues(operation, label).Inc()
	r.duration.WithLabelValues(operation).Observe(d.Seconds())
}

func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
