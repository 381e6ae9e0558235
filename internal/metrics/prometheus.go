package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// promMetrics mirrors the scrape surface of the original scoring API.
// A private registry keeps repeated Registry construction (tests)
// from tripping duplicate-registration panics.
type promMetrics struct {
	registry *prometheus.Registry

	requestsTotal      *prometheus.CounterVec
	requestLatency     prometheus.Histogram
	fraudDetectedTotal *prometheus.CounterVec
	errorsTotal        *prometheus.CounterVec

	dbPoolConnections *prometheus.GaugeVec
	dbPoolMax         prometheus.Gauge
}

func newPromMetrics() *promMetrics {
	reg := prometheus.NewRegistry()

	p := &promMetrics{
		registry: reg,

		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fraud_api_requests_total",
			Help: "Total number of API requests",
		}, []string{"method", "path", "status"}),

		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fraud_api_latency_seconds",
			Help:    "Request latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}),

		fraudDetectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fraud_api_fraud_detected_total",
			Help: "Total transactions flagged for review or decline",
		}, []string{"decision"}),

		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fraud_api_errors_total",
			Help: "Total API errors by class",
		}, []string{"error_type"}),

		dbPoolConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fraud_api_db_pool_connections",
			Help: "Current database connection pool connections by state",
		}, []string{"state"}),

		dbPoolMax: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fraud_api_db_pool_max_connections",
			Help: "Maximum database connection pool size",
		}),
	}

	reg.MustRegister(
		p.requestsTotal,
		p.requestLatency,
		p.fraudDetectedTotal,
		p.errorsTotal,
		p.dbPoolConnections,
		p.dbPoolMax,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return p
}

// PrometheusHandler serves this registry's metrics for scraping.
func (r *Registry) PrometheusHandler() http.Handler {
	return promhttp.HandlerFor(r.prom.registry, promhttp.HandlerOpts{})
}

// SetDBPoolStats publishes database pool utilization.
func (r *Registry) SetDBPoolStats(acquired, idle, total, max int64) {
	r.SetDBPoolSize(total)

	r.prom.dbPoolConnections.WithLabelValues("acquired").Set(float64(acquired))
	r.prom.dbPoolConnections.WithLabelValues("idle").Set(float64(idle))
	r.prom.dbPoolConnections.WithLabelValues("total").Set(float64(total))
	r.prom.dbPoolMax.Set(float64(max))
}

func statusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}

func errorClass(code int) string {
	switch {
	case code >= 400 && code < 500:
		return "client_error"
	default:
		return "server_error"
	}
}
