package rpcclient

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics of node API calls.
var (
	requestTimes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Help:      "Node API call time",
			Name:      "client_request_time",
			Namespace: "tpgo",
		},
		[]string{"call"},
	)
	requestErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Help:      "Number of failed node API calls",
			Name:      "client_request_errors",
			Namespace: "tpgo",
		},
		[]string{"call"},
	)
)

func observeRequest(call string, t time.Duration, err error) {
	requestTimes.WithLabelValues(call).Observe(t.Seconds())
	if err != nil {
		requestErrors.WithLabelValues(call).Inc()
	}
}

func init() {
	prometheus.MustRegister(
		requestTimes,
		requestErrors,
	)
}
