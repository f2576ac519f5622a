package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	enrichTotal    *prometheus.CounterVec
	enrichDuration *prometheus.HistogramVec
	enrichInFlight prometheus.Gauge
	queueLag       *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	enrichTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wse",
			Subsystem: "worker",
			Name:      "enrichment_jobs_total",
			Help:      "Total processed enrichment jobs by status.",
		},
		[]string{"service", "status"},
	)
	enrichDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wse",
			Subsystem: "worker",
			Name:      "enrichment_duration_seconds",
			Help:      "Enrichment job duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	enrichInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "wse",
			Subsystem: "worker",
			Name:      "enrichment_in_flight",
			Help:      "Number of in-flight enrichment jobs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wse",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between job submission and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)
	registry.MustRegister(enrichTotal, enrichDuration, enrichInFlight, queueLag)

	return &WorkerMetrics{
		registry:       registry,
		enrichTotal:    enrichTotal,
		enrichDuration: enrichDuration,
		enrichInFlight: enrichInFlight,
		queueLag:       queueLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartJob() {
	m.enrichInFlight.Inc()
}

func (m *WorkerMetrics) FinishJob(service string, duration time.Duration, err error) {
	m.enrichInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.enrichTotal.WithLabelValues(service, status).Inc()
	m.enrichDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}
