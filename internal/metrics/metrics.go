package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ingestion step names used in logs and the step_failures counter
const (
	StepCache     = "cache"
	StepHistory   = "history"
	StepTypeCount = "type_count"
	StepLedger    = "ledger"
)

// Metrics holds the service collectors on a private registry so tests can build
// as many instances as they like.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests          *prometheus.CounterVec
	HTTPDuration          *prometheus.HistogramVec
	IngestionStepFailures *prometheus.CounterVec
	ReadingsRecorded      prometheus.Counter
	EventPublishFailures  prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "senser",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "senser",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		IngestionStepFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "senser",
			Name:      "ingestion_step_failures_total",
			Help:      "Failed store writes while recording a reading, by step.",
		}, []string{"step"}),
		ReadingsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "senser",
			Name:      "readings_recorded_total",
			Help:      "Readings written to every store.",
		}),
		EventPublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "senser",
			Name:      "event_publish_failures_total",
			Help:      "reading.recorded events that could not be published.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.IngestionStepFailures,
		m.ReadingsRecorded,
		m.EventPublishFailures,
	)
	return m
}

// StepFailed nil-safe
func (m *Metrics) StepFailed(step string) {
	if m == nil {
		return
	}
	m.IngestionStepFailures.WithLabelValues(step).Inc()
}

// ReadingRecorded nil-safe
func (m *Metrics) ReadingRecorded() {
	if m == nil {
		return
	}
	m.ReadingsRecorded.Inc()
}

// PublishFailed nil-safe
func (m *Metrics) PublishFailed() {
	if m == nil {
		return
	}
	m.EventPublishFailures.Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler Prometheus exposition of this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
