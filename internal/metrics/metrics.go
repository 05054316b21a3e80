// Package metrics holds the Prometheus collectors of the trading engine.
// Collectors register with the default registry, which /metrics exposes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TradesExecuted counts executed orders by action (buy, sell).
	TradesExecuted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paper_trader_trades_executed_total",
			Help: "Total number of executed paper trades",
		},
		[]string{"action"},
	)

	// TradesRejected counts orders refused by a business rule.
	TradesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paper_trader_trades_rejected_total",
			Help: "Total number of rejected paper trades",
		},
		[]string{"action", "reason"},
	)

	// TradeValue observes the notional value of executed orders.
	TradeValue = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "paper_trader_trade_value",
			Help:    "Notional value of executed paper trades",
			Buckets: prometheus.ExponentialBuckets(10, 4, 10),
		},
		[]string{"action"},
	)

	// OracleRequests counts price lookups by outcome (ok, error, open).
	OracleRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paper_trader_oracle_requests_total",
			Help: "Total number of price oracle lookups",
		},
		[]string{"result"},
	)

	OracleLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "paper_trader_oracle_latency_seconds",
			Help:    "Price oracle lookup latency",
			Buckets: prometheus.DefBuckets,
		},
	)

	// StrategyDecisions counts strategy outcomes by policy and action.
	StrategyDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paper_trader_strategy_decisions_total",
			Help: "Total number of strategy decisions",
		},
		[]string{"strategy", "action"},
	)

	SnapshotsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "paper_trader_snapshots_recorded_total",
			Help: "Total number of performance snapshots recorded",
		},
	)

	// HTTPRequests counts served requests by method, route pattern and status.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paper_trader_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "paper_trader_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// JobRuns counts scheduled job executions by job name and outcome.
	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paper_trader_job_runs_total",
			Help: "Total number of scheduled job runs",
		},
		[]string{"job", "outcome"},
	)
)
