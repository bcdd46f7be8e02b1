package waiter

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics used in monitoring service.
var (
	outcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Help:      "Number of finished transaction confirmations by final state",
			Name:      "confirmations_total",
			Namespace: "tpgo",
		},
		[]string{"state"},
	)
	confirmTime = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Help:      "Time from submission to block validation",
			Name:      "confirmation_time",
			Namespace: "tpgo",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 8),
		},
	)
)

func observeOutcome(s State, since time.Time) {
	outcomes.WithLabelValues(s.String()).Inc()
	if s.IsSuccess() {
		confirmTime.Observe(time.Since(since).Seconds())
	}
}

func init() {
	prometheus.MustRegister(
		outcomes,
		confirmTime,
	)
}
