// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// Ledger metrics
	LedgerOperations   *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	TransactionAmount  prometheus.Histogram

	// Persistence metrics
	PersistenceErrors  *prometheus.CounterVec
	PersistenceRetries prometheus.Counter
	SaveDuration       prometheus.Histogram

	// Dashboard metrics
	DashboardCache *prometheus.CounterVec
	HealthScore    prometheus.Histogram

	// Sync metrics
	SyncPublished *prometheus.CounterVec
	SyncAppended  *prometheus.CounterVec

	// API metrics
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	HTTPInFlight     prometheus.Gauge
	RateLimitRejects prometheus.Counter
}

// New creates the collectors on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		LedgerOperations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moneymate_ledger_operations_total",
				Help: "Ledger mutations by operation and outcome",
			},
			[]string{"operation", "status"},
		),
		ValidationFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moneymate_validation_failures_total",
				Help: "Rejected submissions by field",
			},
			[]string{"field"},
		),
		TransactionAmount: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "moneymate_transaction_amount",
			Help:    "Recorded transaction amounts",
			Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000},
		}),

		PersistenceErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moneymate_persistence_errors_total",
				Help: "Ledger store failures by operation",
			},
			[]string{"operation"},
		),
		PersistenceRetries: f.NewCounter(prometheus.CounterOpts{
			Name: "moneymate_persistence_retries_total",
			Help: "Retried ledger saves",
		}),
		SaveDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "moneymate_save_duration_seconds",
			Help:    "Duration of ledger saves including retries",
			Buckets: prometheus.DefBuckets,
		}),

		DashboardCache: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moneymate_dashboard_cache_total",
				Help: "Dashboard cache lookups by result",
			},
			[]string{"result"},
		),
		HealthScore: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "moneymate_health_score",
			Help:    "Displayed financial health scores",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),

		SyncPublished: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moneymate_sync_published_total",
				Help: "Transaction events published for spreadsheet sync",
			},
			[]string{"status"},
		),
		SyncAppended: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moneymate_sync_appended_total",
				Help: "Spreadsheet rows appended by the sync worker",
			},
			[]string{"status"},
		),

		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moneymate_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "moneymate_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
		HTTPInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "moneymate_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),
		RateLimitRejects: f.NewCounter(prometheus.CounterOpts{
			Name: "moneymate_rate_limit_rejects_total",
			Help: "Requests rejected by the rate limiter",
		}),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveOperation counts a ledger mutation outcome.
func (m *Metrics) ObserveOperation(op string, err error) {
	if m == nil {
		return
	}
	m.LedgerOperations.WithLabelValues(op, status(err)).Inc()
}

// ObservePublish counts a sync event publication outcome.
func (m *Metrics) ObservePublish(err error) {
	if m == nil {
		return
	}
	m.SyncPublished.WithLabelValues(status(err)).Inc()
}

// ObserveAppend counts a spreadsheet append outcome.
func (m *Metrics) ObserveAppend(err error) {
	if m == nil {
		return
	}
	m.SyncAppended.WithLabelValues(status(err)).Inc()
}
