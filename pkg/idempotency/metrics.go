package idempotency

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the idempotency Prometheus collectors. All Record methods
// are safe on a nil receiver so callers never need to guard.
type Metrics struct {
	Hits                *prometheus.CounterVec
	Misses              *prometheus.CounterVec
	ParameterMismatches *prometheus.CounterVec
	ConcurrentRequests  *prometheus.CounterVec
	LockDuration        *prometheus.HistogramVec
	StorageErrors       *prometheus.CounterVec
}

// NewMetrics registers the idempotency collectors on registry, or on the
// default registerer when registry is nil.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		Hits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "idempotency_hits_total",
				Help: "Requests answered by replaying a stored response",
			},
			[]string{"service", "endpoint", "method"},
		),
		Misses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "idempotency_misses_total",
				Help: "Requests processed for the first time under their key",
			},
			[]string{"service", "endpoint", "method"},
		),
		ParameterMismatches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "idempotency_parameter_mismatches_total",
				Help: "Requests reusing a key with a different body",
			},
			[]string{"service", "endpoint", "method"},
		),
		ConcurrentRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "idempotency_concurrent_collisions_total",
				Help: "Requests rejected because their key was locked",
			},
			[]string{"service", "endpoint", "method"},
		),
		LockDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "idempotency_lock_acquisition_duration_seconds",
				Help:    "Time taken to acquire the idempotency lock",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service", "endpoint", "method"},
		),
		StorageErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "idempotency_storage_errors_total",
				Help: "Failures talking to the idempotency store",
			},
			[]string{"service", "operation"},
		),
	}
}

// RecordHit counts a replayed response.
func (m *Metrics) RecordHit(service, endpoint, method string) {
	if m == nil || m.Hits == nil {
		return
	}
	m.Hits.WithLabelValues(service, endpoint, method).Inc()
}

// RecordMiss counts a first execution.
func (m *Metrics) RecordMiss(service, endpoint, method string) {
	if m == nil || m.Misses == nil {
		return
	}
	m.Misses.WithLabelValues(service, endpoint, method).Inc()
}

// RecordParameterMismatch counts a key reuse with a different body.
func (m *Metrics) RecordParameterMismatch(service, endpoint, method string) {
	if m == nil || m.ParameterMismatches == nil {
		return
	}
	m.ParameterMismatches.WithLabelValues(service, endpoint, method).Inc()
}

// RecordConcurrentCollision counts a rejected concurrent request.
func (m *Metrics) RecordConcurrentCollision(service, endpoint, method string) {
	if m == nil || m.ConcurrentRequests == nil {
		return
	}
	m.ConcurrentRequests.WithLabelValues(service, endpoint, method).Inc()
}

// RecordLockAcquisitionDuration observes the lock acquisition latency in
// seconds.
func (m *Metrics) RecordLockAcquisitionDuration(service, endpoint, method string, seconds float64) {
	if m == nil || m.LockDuration == nil {
		return
	}
	m.LockDuration.WithLabelValues(service, endpoint, method).Observe(seconds)
}

// RecordStorageError counts a storage failure for the given operation.
func (m *Metrics) RecordStorageError(service, operation string) {
	if m == nil || m.StorageErrors == nil {
		return
	}
	m.StorageErrors.WithLabelValues(service, operation).Inc()
}
