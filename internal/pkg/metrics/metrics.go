package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ValuationPassesTotal counts completed valuation passes by result.
	ValuationPassesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nav_valuation_passes_total",
			Help: "Number of completed NAV valuation passes.",
		},
		[]string{"result"},
	)

	// QuoteFailuresTotal counts candidate routes that did not produce a
	// usable quote, by quoter and failure class.
	QuoteFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nav_quote_failures_total",
			Help: "Number of candidate routes that failed to produce a positive quote.",
		},
		[]string{"quoter", "outcome"},
	)

	// UnvaluedTokensTotal counts tokens that degraded to the unvalued
	// marker in a valuation pass.
	UnvaluedTokensTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nav_unvalued_tokens_total",
			Help: "Number of portfolio tokens no route could price.",
		},
	)

	// MulticallBatchesTotal counts dispatched multicall batches by result.
	MulticallBatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nav_multicall_batches_total",
			Help: "Number of dispatched multicall batches.",
		},
		[]string{"result"},
	)

	// RPCEndpointSwitchesTotal counts failovers between configured call
	// endpoints.
	RPCEndpointSwitchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nav_rpc_endpoint_switches_total",
			Help: "Number of failovers to the next configured RPC endpoint.",
		},
	)

	// ValuationDurationSeconds observes end-to-end valuation pass latency.
	ValuationDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nav_valuation_duration_seconds",
			Help:    "End-to-end duration of a NAV valuation pass.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// MustRegisterMetrics registers all collectors with the default registry.
// Call once at startup; a second call panics on duplicate registration.
func MustRegisterMetrics() {
	prometheus.MustRegister(
		ValuationPassesTotal,
		QuoteFailuresTotal,
		UnvaluedTokensTotal,
		MulticallBatchesTotal,
		RPCEndpointSwitchesTotal,
		ValuationDurationSeconds,
	)
}
