// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Scan metrics
	ScansTotal        prometheus.Counter
	ScanDuration      prometheus.Histogram
	CandidatesScanned prometheus.Counter

	// Entry metrics
	EntriesOpened   prometheus.Counter
	EntriesRejected *prometheus.CounterVec

	// Exit metrics
	ExitsTotal     *prometheus.CounterVec
	PartialCloses  prometheus.Counter

	// Portfolio metrics
	OpenPositions    prometheus.Gauge
	Equity           prometheus.Gauge
	DailyRealizedPnl prometheus.Gauge
	CircuitBreaker   prometheus.Gauge

	// Market data metrics
	PriceFetchLatency prometheus.Histogram
	PriceFetchErrors  prometheus.Counter

	// Persistence metrics
	TradesPersisted prometheus.Counter
	TicksPersisted  prometheus.Counter
	PersistErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "paper_trader"
	}

	return &Metrics{
		ScansTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "scans_total",
			Help:      "Total number of market scans performed",
		}),
		ScanDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "scan_duration_seconds",
			Help:      "Duration of one full scan cycle",
			Buckets:   prometheus.DefBuckets,
		}),
		CandidatesScanned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "candidates_scanned_total",
			Help:      "Total number of entry candidates evaluated",
		}),
		EntriesOpened: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "entries_opened_total",
			Help:      "Total number of positions opened",
		}),
		EntriesRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "entries_rejected_total",
			Help:      "Total number of rejected entry candidates by reason",
		}, []string{"reason"}),
		ExitsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "exits_total",
			Help:      "Total number of closed positions by exit reason",
		}, []string{"reason"}),
		PartialCloses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "partial_closes_total",
			Help:      "Total number of partial take-profit fills",
		}),
		OpenPositions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "portfolio",
			Name:      "open_positions",
			Help:      "Number of currently open positions",
		}),
		Equity: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "portfolio",
			Name:      "equity",
			Help:      "Current free equity in account currency",
		}),
		DailyRealizedPnl: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "portfolio",
			Name:      "daily_realized_pnl",
			Help:      "Realized profit and loss since the last daily reset",
		}),
		CircuitBreaker: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "portfolio",
			Name:      "circuit_breaker_active",
			Help:      "1 while the daily loss limit is halting new entries",
		}),
		PriceFetchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "marketdata",
			Name:      "price_fetch_duration_seconds",
			Help:      "Latency of per-token price lookups",
			Buckets:   prometheus.DefBuckets,
		}),
		PriceFetchErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "marketdata",
			Name:      "price_fetch_errors_total",
			Help:      "Total number of failed price lookups",
		}),
		TradesPersisted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "trades_persisted_total",
			Help:      "Total number of closed trades written to the trade store",
		}),
		TicksPersisted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "ticks_persisted_total",
			Help:      "Total number of price ticks written to the tick store",
		}),
		PersistErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "persist_errors_total",
			Help:      "Total number of persistence failures by store",
		}, []string{"store"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordScan records one completed scan cycle.
func RecordScan(durationSeconds float64) {
	DefaultMetrics.ScansTotal.Inc()
	DefaultMetrics.ScanDuration.Observe(durationSeconds)
}

// RecordCandidate increments the scanned-candidate counter.
func RecordCandidate() {
	DefaultMetrics.CandidatesScanned.Inc()
}

// RecordEntry increments the opened-position counter.
func RecordEntry() {
	DefaultMetrics.EntriesOpened.Inc()
}

// RecordRejection records a rejected entry candidate.
func RecordRejection(reason string) {
	DefaultMetrics.EntriesRejected.WithLabelValues(reason).Inc()
}

// RecordExit records a fully closed position.
func RecordExit(reason string) {
	DefaultMetrics.ExitsTotal.WithLabelValues(reason).Inc()
}

// RecordPartialClose increments the partial take-profit counter.
func RecordPartialClose() {
	DefaultMetrics.PartialCloses.Inc()
}

// UpdatePortfolio updates the portfolio gauges.
func UpdatePortfolio(openPositions int, equity, dailyPnl float64, circuitBreaker bool) {
	DefaultMetrics.OpenPositions.Set(float64(openPositions))
	DefaultMetrics.Equity.Set(equity)
	DefaultMetrics.DailyRealizedPnl.Set(dailyPnl)
	if circuitBreaker {
		DefaultMetrics.CircuitBreaker.Set(1)
	} else {
		DefaultMetrics.CircuitBreaker.Set(0)
	}
}

// RecordPriceFetch records a per-token price lookup.
func RecordPriceFetch(seconds float64, err error) {
	DefaultMetrics.PriceFetchLatency.Observe(seconds)
	if err != nil {
		DefaultMetrics.PriceFetchErrors.Inc()
	}
}

// RecordPersist records a persistence attempt against a store.
func RecordPersist(store string, count int, err error) {
	if err != nil {
		DefaultMetrics.PersistErrors.WithLabelValues(store).Inc()
		return
	}
	switch store {
	case "trades":
		DefaultMetrics.TradesPersisted.Add(float64(count))
	case "ticks":
		DefaultMetrics.TicksPersisted.Add(float64(count))
	}
}
