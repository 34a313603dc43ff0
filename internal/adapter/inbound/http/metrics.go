package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Sentinel-Gate/paapigate/internal/domain/paapi"
)

// Metrics holds all Prometheus metrics for the gateway.
// Pass to components that need to record metrics.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	EntriesTotal     *prometheus.CounterVec
	BatchSize        *prometheus.HistogramVec
	RateLimitedTotal prometheus.Counter
	RateLimitKeys    prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RequestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "paapigate",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"route", "status"}, // status=ok/error
		),
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "paapigate",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		EntriesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "paapigate",
				Name:      "entries_total",
				Help:      "Batch entries processed, by operation and outcome",
			},
			[]string{"operation", "outcome"}, // outcome=success/validation/api/transport
		),
		BatchSize: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "paapigate",
				Name:      "batch_entries",
				Help:      "Number of entries per batch request",
				Buckets:   []float64{1, 2, 5, 10, 25, 50, 100},
			},
			[]string{"endpoint"},
		),
		RateLimitedTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "paapigate",
				Name:      "rate_limited_total",
				Help:      "Requests rejected by the per-caller rate limit",
			},
		),
		RateLimitKeys: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: "paapigate",
				Name:      "rate_limit_keys",
				Help:      "Number of active rate limit keys",
			},
		),
	}
}

// Record counts one processed entry. It lets Metrics observe the
// invocation services directly.
func (m *Metrics) Record(operation string, kind paapi.ErrorKind) {
	if m == nil {
		return
	}
	if operation == "" {
		operation = "unknown"
	}
	outcome := string(kind)
	if kind == paapi.KindNone {
		outcome = "success"
	}
	m.EntriesTotal.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) observeBatch(endpoint string, n int) {
	if m == nil {
		return
	}
	m.BatchSize.WithLabelValues(endpoint).Observe(float64(n))
}
