// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fellas"

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "API request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "path"},
	)

	ChainTx = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "transactions_total",
			Help:      "Contract writes by kind and result code",
		},
		[]string{"kind", "code"},
	)

	ChainTxDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "transaction_duration_seconds",
			Help:      "Time from submission to receipt",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"kind"},
	)

	ChainCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "calls_total",
			Help:      "Read-only contract calls",
		},
		[]string{"method", "result"},
	)

	ReconcileRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collection",
			Name:      "reconcile_runs_total",
			Help:      "Collection reconciliation passes",
		},
		[]string{"result"},
	)

	MintedSlots = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "collection",
		Name:      "minted_slots",
		Help:      "Slots currently known to be minted",
	})

	IndexerHead = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "indexer",
		Name:      "cursor_block",
		Help:      "Last block processed by the indexer",
	})

	IndexedMints = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "indexer",
		Name:      "mints_total",
		Help:      "Mint events recorded by the indexer",
	})

	WebhookDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "deliveries_total",
			Help:      "Webhook deliveries by result",
		},
		[]string{"result"},
	)
)

// Result maps an error to a label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
