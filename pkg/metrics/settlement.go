package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SettlementMetrics records settlement throughput and latency.
type SettlementMetrics struct {
	duration       *prometheus.HistogramVec
	settled        *prometheus.CounterVec
	alreadySettled *prometheus.CounterVec
	failed         *prometheus.CounterVec
	dispatchErrors *prometheus.CounterVec
}

// NewSettlementMetrics registers the settlement metrics on the provided registerer.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "settlement_duration_seconds",
		Help:    "Duration of settlement operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	settled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_settled_total",
		Help: "Settlements completed for the first time.",
	}, []string{"operation"})
	alreadySettled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_already_settled_total",
		Help: "Settlement calls short-circuited by an idempotency gate.",
	}, []string{"operation"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_failed_total",
		Help: "Settlement operations that returned an error.",
	}, []string{"operation"})
	dispatchErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_dispatch_errors_total",
		Help: "Secondary dispatch failures after the primary settlement committed.",
	}, []string{"path"})
	reg.MustRegister(duration, settled, alreadySettled, failed, dispatchErrors)
	return &SettlementMetrics{
		duration:       duration,
		settled:        settled,
		alreadySettled: alreadySettled,
		failed:         failed,
		dispatchErrors: dispatchErrors,
	}
}

// ObserveDuration records the duration for the named operation.
func (s *SettlementMetrics) ObserveDuration(operation string, duration time.Duration) {
	if s == nil || s.duration == nil {
		return
	}
	s.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncSettled increments the first-time settlement counter.
func (s *SettlementMetrics) IncSettled(operation string) {
	if s == nil || s.settled == nil {
		return
	}
	s.settled.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncAlreadySettled increments the idempotent-replay counter.
func (s *SettlementMetrics) IncAlreadySettled(operation string) {
	if s == nil || s.alreadySettled == nil {
		return
	}
	s.alreadySettled.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncFailed increments the failure counter.
func (s *SettlementMetrics) IncFailed(operation string) {
	if s == nil || s.failed == nil {
		return
	}
	s.failed.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncDispatchError increments the secondary dispatch failure counter.
func (s *SettlementMetrics) IncDispatchError(path string) {
	if s == nil || s.dispatchErrors == nil {
		return
	}
	s.dispatchErrors.WithLabelValues(normalizeLabel(path)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
