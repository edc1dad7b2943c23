package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

// RAGMetrics observes every answered question.
type RAGMetrics struct {
	service string

	requestsTotal    *prometheus.CounterVec
	expansionsTotal  *prometheus.CounterVec
	noSourcesTotal   *prometheus.CounterVec
	cacheHitsTotal   *prometheus.CounterVec
	degradedTotal    *prometheus.CounterVec
	unavailableTotal *prometheus.CounterVec
	sources          *prometheus.HistogramVec
	duration         *prometheus.HistogramVec
}

func NewRAGMetrics(service string, reg prometheus.Registerer) *RAGMetrics {
	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rag",
			Name:      name,
			Help:      help,
		}, append([]string{"service"}, labels...))
	}

	m := &RAGMetrics{
		service:          service,
		requestsTotal:    counter("requests_total", "Answered questions by search strategy.", "strategy"),
		expansionsTotal:  counter("expansions_total", "Questions that triggered query expansion."),
		noSourcesTotal:   counter("no_sources_total", "Answers produced without any relevant source."),
		cacheHitsTotal:   counter("cache_hits_total", "Answers served from the answer cache."),
		degradedTotal:    counter("degraded_total", "Answers replaced by the fallback after a generation failure."),
		unavailableTotal: counter("retrieval_unavailable_total", "Questions answered while the chunk store was unavailable."),
		sources: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rag",
			Name:      "sources",
			Help:      "Distribution of sources per answer.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		}, []string{"service"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rag",
			Name:      "duration_seconds",
			Help:      "End-to-end answer duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service"}),
	}

	reg.MustRegister(
		m.requestsTotal,
		m.expansionsTotal,
		m.noSourcesTotal,
		m.cacheHitsTotal,
		m.degradedTotal,
		m.unavailableTotal,
		m.sources,
		m.duration,
	)
	return m
}

func (m *RAGMetrics) ObserveQuery(event domain.QueryEvent, retrievalUnavailable bool) {
	strategy := string(event.Strategy)
	if strategy == "" {
		strategy = "unknown"
	}
	m.requestsTotal.WithLabelValues(m.service, strategy).Inc()
	m.sources.WithLabelValues(m.service).Observe(float64(event.SourceCount))
	m.duration.WithLabelValues(m.service).Observe(event.Duration.Seconds())

	if event.Expanded {
		m.expansionsTotal.WithLabelValues(m.service).Inc()
	}
	if event.NoSources {
		m.noSourcesTotal.WithLabelValues(m.service).Inc()
	}
	if event.CacheHit {
		m.cacheHitsTotal.WithLabelValues(m.service).Inc()
	}
	if event.Degraded {
		m.degradedTotal.WithLabelValues(m.service).Inc()
	}
	if retrievalUnavailable {
		m.unavailableTotal.WithLabelValues(m.service).Inc()
	}
}
