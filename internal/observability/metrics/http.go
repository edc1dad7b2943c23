package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "faq"

// knownRoutes bounds the route label. Anything else is counted as "other".
var knownRoutes = map[string]struct{}{
	"/healthz":                    {},
	"/metrics":                    {},
	"/v1/faq/query":               {},
	"/v1/faq/search":              {},
	"/v1/documents":               {},
	"/v1/admin/reindex":           {},
	"/v1/admin/cache/clear":       {},
	"/v1/analytics/top-questions": {},
	"/v1/analytics/report.xlsx":   {},
}

// HTTPServerMetrics owns the API registry. RAG and upstream collectors register
// on it so a single /metrics endpoint exposes everything.
type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	responseSize *prometheus.HistogramVec
	inFlight     prometheus.Gauge
	rejected     *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	m := &HTTPServerMetrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"service", "method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"service", "method", "route"}),
		responseSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "response_size_bytes",
			Help:      "HTTP response body size in bytes.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 7),
		}, []string{"service", "route"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "http",
			Name:        "in_flight_requests",
			Help:        "HTTP requests currently being served.",
			ConstLabels: prometheus.Labels{"service": service},
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rejected_total",
			Help:      "Requests rejected before reaching a handler, by reason.",
		}, []string{"service", "reason"}),
	}
	m.registry.MustRegister(m.requests, m.duration, m.responseSize, m.inFlight, m.rejected)
	return m
}

func (m *HTTPServerMetrics) Registry() prometheus.Registerer {
	return m.registry
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		start := time.Now()
		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r)

		route := routeLabel(r.URL.Path)
		m.requests.WithLabelValues(service, r.Method, route, strconv.Itoa(rec.statusCode)).Inc()
		m.duration.WithLabelValues(service, r.Method, route).Observe(time.Since(start).Seconds())
		m.responseSize.WithLabelValues(service, route).Observe(float64(rec.bytes))
	})
}

// RecordRejected counts requests turned away by rate limiting or backpressure.
func (m *HTTPServerMetrics) RecordRejected(service, reason string) {
	m.rejected.WithLabelValues(service, reason).Inc()
}

func routeLabel(path string) string {
	if _, ok := knownRoutes[path]; ok {
		return path
	}
	if id, ok := strings.CutPrefix(path, "/v1/documents/"); ok && id != "" && !strings.Contains(id, "/") {
		return "/v1/documents/{id}"
	}
	return "other"
}
