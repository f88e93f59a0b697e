package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// StakingActions counts mutating staking calls by action and outcome.
	StakingActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walletd_staking_actions_total",
			Help: "Mutating staking actions by kind and result.",
		},
		[]string{"action", "result"},
	)

	// ResyncDuration observes how long a full position resync takes.
	ResyncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "walletd_position_resync_duration_seconds",
			Help:    "Duration of full staking position resyncs.",
			Buckets: prometheus.DefBuckets,
		},
	)

	// StaleResponses counts load responses discarded by request fencing.
	StaleResponses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walletd_stale_responses_total",
			Help: "Load responses dropped because a newer load superseded them.",
		},
		[]string{"loader"},
	)

	// BridgeRequests counts outbound wallet integration calls by outcome.
	BridgeRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walletd_bridge_requests_total",
			Help: "Outbound wallet integration requests by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)
)

// MustRegisterMetrics registers all collectors on the default registry.
// Call once from main.
func MustRegisterMetrics() {
	prometheus.MustRegister(
		StakingActions,
		ResyncDuration,
		StaleResponses,
		BridgeRequests,
	)
}
