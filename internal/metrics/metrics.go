package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch outcomes
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

var (
	PriceFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealpicker_price_fetch_total",
			Help: "Total number of price fetches per platform and outcome",
		},
		[]string{"platform", "outcome"},
	)

	PriceFetchDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dealpicker_price_fetch_duration_seconds",
			Help:    "Price fetch duration in seconds per platform",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"platform"},
	)

	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealpicker_queries_total",
			Help: "Total number of comparison queries per outcome",
		},
		[]string{"outcome"},
	)

	BestDealSavings = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dealpicker_best_deal_savings",
			Help: "Savings of the last best deal per platform",
		},
		[]string{"platform"},
	)
)

// ObserveFetch records one price fetch
func ObserveFetch(platform string, startedAt time.Time, err error) {
	PriceFetchDurationSeconds.WithLabelValues(platform).Observe(time.Since(startedAt).Seconds())
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	PriceFetchTotal.WithLabelValues(platform, outcome).Inc()
}

// ObserveQuery records a finished comparison query
func ObserveQuery(err error) {
	if err != nil {
		QueriesTotal.WithLabelValues(OutcomeError).Inc()
		return
	}
	QueriesTotal.WithLabelValues(OutcomeSuccess).Inc()
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
