package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	classificationTotal    *prometheus.CounterVec
	classificationDuration *prometheus.HistogramVec
	degradedMode           prometheus.Gauge
}

func NewHTTPMetrics(service string) *HTTPMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wse",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wse",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "wse",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	classificationTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wse",
			Subsystem: "classifier",
			Name:      "classifications_total",
			Help:      "Total classified queries by resolved intent.",
		},
		[]string{"service", "intent"},
	)
	classificationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wse",
			Subsystem: "classifier",
			Name:      "classification_duration_seconds",
			Help:      "Query classification duration in seconds.",
			Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"service"},
	)
	degradedMode := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "wse",
			Subsystem: "classifier",
			Name:      "degraded_mode",
			Help:      "1 when the annotation pipeline is running without full parsing.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		classificationTotal,
		classificationDuration,
		degradedMode,
	)

	return &HTTPMetrics{
		registry:               registry,
		service:                service,
		requestTotal:           requestTotal,
		requestDuration:        requestDuration,
		requestInFlight:        requestInFlight,
		classificationTotal:    classificationTotal,
		classificationDuration: classificationDuration,
		degradedMode:           degradedMode,
	}
}

func (m *HTTPMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPMetrics) StartRequest() {
	m.requestInFlight.Inc()
}

func (m *HTTPMetrics) FinishRequest(service, method, path string, status int, duration time.Duration) {
	m.requestInFlight.Dec()
	m.requestTotal.WithLabelValues(service, method, path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(service, method, path).Observe(duration.Seconds())
}

func (m *HTTPMetrics) ObserveClassification(intent string, duration time.Duration) {
	if intent == "" {
		intent = "unknown"
	}
	m.classificationTotal.WithLabelValues(m.service, intent).Inc()
	m.classificationDuration.WithLabelValues(m.service).Observe(duration.Seconds())
}

func (m *HTTPMetrics) SetDegradedMode(active bool) {
	if active {
		m.degradedMode.Set(1)
		return
	}
	m.degradedMode.Set(0)
}

func (m *HTTPMetrics) Service() string {
	return m.service
}
