package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamMetrics counts retries and circuit breaker transitions of calls to
// Ollama, Qdrant and NATS.
type UpstreamMetrics struct {
	service      string
	retriesTotal *prometheus.CounterVec
	breakerState *prometheus.CounterVec
}

func NewUpstreamMetrics(service string, reg prometheus.Registerer) *UpstreamMetrics {
	m := &UpstreamMetrics{
		service: service,
		retriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "retries_total",
			Help:      "Retried upstream calls by operation.",
		}, []string{"service", "operation"}),
		breakerState: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "breaker_transitions_total",
			Help:      "Circuit breaker state changes by operation and new state.",
		}, []string{"service", "operation", "state"}),
	}
	reg.MustRegister(m.retriesTotal, m.breakerState)
	return m
}

func (m *UpstreamMetrics) OnRetry(operation string) {
	m.retriesTotal.WithLabelValues(m.service, operation).Inc()
}

func (m *UpstreamMetrics) OnBreakerState(operation, state string) {
	m.breakerState.WithLabelValues(m.service, operation, state).Inc()
}
