package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

// WorkerMetrics covers document processing in the ingestion worker.
type WorkerMetrics struct {
	registry *prometheus.Registry
	service  string

	processed   *prometheus.CounterVec
	failures    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	inFlight    prometheus.Gauge
	lastSuccess prometheus.Gauge
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	m := &WorkerMetrics{
		registry: prometheus.NewRegistry(),
		service:  service,
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "document_process_total",
			Help:      "Processed documents by final status (ready or failed).",
		}, []string{"service", "status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "document_failures_total",
			Help:      "Failed documents by reason: invalid_input, not_found, temporary or internal.",
		}, []string{"service", "reason"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "document_process_duration_seconds",
			Help:      "Document processing duration in seconds by final status.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}, []string{"service", "status"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "worker",
			Name:        "document_process_in_flight",
			Help:        "Documents currently being processed.",
			ConstLabels: prometheus.Labels{"service": service},
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "worker",
			Name:        "last_success_timestamp_seconds",
			Help:        "Unix time of the last document indexed successfully.",
			ConstLabels: prometheus.Labels{"service": service},
		}),
	}
	m.registry.MustRegister(m.processed, m.failures, m.duration, m.inFlight, m.lastSuccess)
	return m
}

func (m *WorkerMetrics) Registry() prometheus.Registerer {
	return m.registry
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Track wraps a document handler with in-flight, outcome and duration metrics.
func (m *WorkerMetrics) Track(handler func(documentID string) error) func(documentID string) error {
	return func(documentID string) error {
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		start := time.Now()
		err := handler(documentID)
		elapsed := time.Since(start).Seconds()

		if err != nil {
			m.processed.WithLabelValues(m.service, "failed").Inc()
			m.failures.WithLabelValues(m.service, failureReason(err)).Inc()
			m.duration.WithLabelValues(m.service, "failed").Observe(elapsed)
			return err
		}
		m.processed.WithLabelValues(m.service, "ready").Inc()
		m.duration.WithLabelValues(m.service, "ready").Observe(elapsed)
		m.lastSuccess.SetToCurrentTime()
		return nil
	}
}

func failureReason(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return "invalid_input"
	case domain.IsKind(err, domain.ErrDocumentNotFound):
		return "not_found"
	case domain.IsKind(err, domain.ErrTemporary):
		return "temporary"
	default:
		return "internal"
	}
}
