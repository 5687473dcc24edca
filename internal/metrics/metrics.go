package metrics

import (
	"time"

	"currency-rate-proxy/internal/domain/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	RateRequestsTotal       prometheus.Counter
	ConversionRequestsTotal prometheus.Counter
	HistoricalRequestsTotal prometheus.Counter
	CurrencyRequestsTotal   prometheus.Counter

	CacheLookupsTotal    *prometheus.CounterVec
	UpstreamAttempts     *prometheus.CounterVec
	UpstreamRetriesTotal *prometheus.CounterVec
	CircuitState         *prometheus.GaugeVec
}

// NewMetrics registers all collectors with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"path", "method", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),

		RateRequestsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rate_requests_total",
				Help: "Total number of latest exchange rate requests",
			},
		),

		ConversionRequestsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "conversion_requests_total",
				Help: "Total number of currency conversion requests",
			},
		),

		HistoricalRequestsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "historical_requests_total",
				Help: "Total number of historical exchange rate requests",
			},
		),

		CurrencyRequestsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "currency_list_requests_total",
				Help: "Total number of currency list requests",
			},
		),

		CacheLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_cache_lookups_total",
				Help: "Cache lookups by operation kind and result (hit, miss, stale, error)",
			},
			[]string{"kind", "result"},
		),

		UpstreamAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upstream_attempts_total",
				Help: "Upstream call attempts by operation and outcome",
			},
			[]string{"op", "outcome"},
		),

		UpstreamRetriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upstream_retries_total",
				Help: "Upstream retries scheduled by operation",
			},
			[]string{"op"},
		),

		CircuitState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "upstream_circuit_state",
				Help: "Circuit breaker phase per upstream (0 closed, 1 open, 2 half-open)",
			},
			[]string{"upstream"},
		),
	}
}

// The methods below accept a nil receiver so components can run without metrics.

// ObserveHTTPRequest records one served request; statusClass is e.g. "2xx".
func (m *Metrics) ObserveHTTPRequest(path, method, statusClass string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(path, method).Observe(d.Seconds())
	m.HTTPRequestsTotal.WithLabelValues(path, method, statusClass).Inc()
}

func (m *Metrics) ObserveRateRequest() {
	if m == nil {
		return
	}
	m.RateRequestsTotal.Inc()
}

func (m *Metrics) ObserveConversionRequest() {
	if m == nil {
		return
	}
	m.ConversionRequestsTotal.Inc()
}

func (m *Metrics) ObserveHistoricalRequest() {
	if m == nil {
		return
	}
	m.HistoricalRequestsTotal.Inc()
}

func (m *Metrics) ObserveCurrencyRequest() {
	if m == nil {
		return
	}
	m.CurrencyRequestsTotal.Inc()
}

func (m *Metrics) ObserveCacheLookup(kind, result string) {
	if m == nil {
		return
	}
	m.CacheLookupsTotal.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) ObserveAttempt(op, outcome string) {
	if m == nil {
		return
	}
	m.UpstreamAttempts.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) ObserveRetry(op string) {
	if m == nil {
		return
	}
	m.UpstreamRetriesTotal.WithLabelValues(op).Inc()
}

func (m *Metrics) SetCircuitState(upstream string, _, to model.CircuitPhase) {
	if m == nil {
		return
	}
	m.CircuitState.WithLabelValues(upstream).Set(float64(to))
}
