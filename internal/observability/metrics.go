package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "salesboard"

// Metrics holds every collector the service exports.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	HTTPInFlight    prometheus.Gauge
	PipelineRuns    *prometheus.CounterVec
	PipelineSeconds prometheus.Histogram
	RowsIngested    prometheus.Counter
	RowsDropped     prometheus.Counter
	DatasetRecords  prometheus.Gauge
	DatasetProducts prometheus.Gauge
	SSEPatches      *prometheus.CounterVec
}

// NewMetrics registers the service collectors, plus Go runtime and process
// collectors, on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		HTTPInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests currently being served.",
		}),
		PipelineRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Pipeline queries by cache outcome.",
		}, []string{"cache"}),
		PipelineSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Time spent computing uncached pipeline results.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		RowsIngested: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_rows_total",
			Help:      "Raw rows read from files and uploads.",
		}),
		RowsDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_rows_dropped_total",
			Help:      "Raw rows dropped during normalization.",
		}),
		DatasetRecords: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_records",
			Help:      "Canonical records in the current dataset.",
		}),
		DatasetProducts: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_products",
			Help:      "Distinct products in the current dataset.",
		}),
		SSEPatches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sse_patches_total",
			Help:      "Datastar patches sent by target.",
		}, []string{"target"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
