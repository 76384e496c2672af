package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search index propagation metrics.
var (
	IndexPropagationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "app2automate",
			Name:      "index_propagation_failures_total",
			Help:      "Search index writes that failed after the primary store committed",
		},
		[]string{"op"},
	)

	IndexReconciled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "app2automate",
			Name:      "index_reconciled_total",
			Help:      "Outbox entries applied to the search index by the reconciler",
		},
		[]string{"op", "status"},
	)

	OutboxPending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "app2automate",
			Name:      "index_outbox_pending",
			Help:      "Outbox entries not yet applied to the search index",
		},
	)
)

func init() {
	prometheus.MustRegister(IndexPropagationFailures, IndexReconciled, OutboxPending)
}
