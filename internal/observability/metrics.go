package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes the service instrumentation on a private registry so
// tests can create isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	DatasetRows     prometheus.Gauge
	DatasetLoads    prometheus.Counter
	QueriesTotal    *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "salesiq_http_requests_total",
			Help: "HTTP requests by method, path pattern, and status code.",
		}, []string{"method", "path", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "salesiq_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		DatasetRows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "salesiq_dataset_rows",
			Help: "Rows in the currently loaded canonical table.",
		}),
		DatasetLoads: factory.NewCounter(prometheus.CounterOpts{
			Name: "salesiq_dataset_loads_total",
			Help: "Successful dataset loads (file and upload).",
		}),
		QueriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "salesiq_queries_total",
			Help: "Orchestrated queries by detected intent.",
		}, []string{"intent"}),
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
