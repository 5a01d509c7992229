// Package metrics records per-route request counts and latencies.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const defaultNamespace = "urlapi"

// Option configures a Recorder
type Option func(*Recorder)

// WithNamespace sets the metric namespace
func WithNamespace(namespace string) Option {
	return func(r *Recorder) {
		if namespace != "" {
			r.namespace = namespace
		}
	}
}

// WithRegistry registers the metrics into registry instead of a private one
func WithRegistry(registry *prometheus.Registry) Option {
	return func(r *Recorder) {
		if registry != nil {
			r.registry = registry
		}
	}
}

// Recorder holds request metrics. A nil *Recorder records nothing.
type Recorder struct {
	namespace string
	registry  *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	storeErrors     *prometheus.CounterVec
}

// NewRecorder
func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{namespace: defaultNamespace}
	for _, opt := range opts {
		opt(r)
	}
	if r.registry == nil {
		r.registry = prometheus.NewRegistry()
	}

	auto := promauto.With(r.registry)
	r.requests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: r.namespace,
			Name:      "requests_total",
			Help:      "Dispatched requests by route and status code",
		},
		[]string{"route", "status"},
	)
	r.requestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: r.namespace,
			Name:      "request_duration_seconds",
			Help:      "Dispatch latency by route",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	r.storeErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: r.namespace,
			Name:      "store_errors_total",
			Help:      "Requests answered with a server error by route",
		},
		[]string{"route"},
	)

	return r
}

// Registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveRequest records one dispatched request
func (r *Recorder) ObserveRequest(route string, status int, duration time.Duration) {
	if r == nil {
		return
	}

	r.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	r.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
	if status >= 500 {
		r.storeErrors.WithLabelValues(route).Inc()
	}
}
