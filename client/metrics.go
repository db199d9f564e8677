package client

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	callDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lvrpc_call_duration_seconds",
		Help:    "Round-trip latency of a single RPC CALL, by procedure.",
		Buckets: prometheus.DefBuckets,
	}, []string{"procedure"})

	callErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lvrpc_call_errors_total",
		Help: "RPC CALL failures, by procedure and error kind.",
	}, []string{"procedure", "kind"})
)

func init() {
	prometheus.MustRegister(callDuration, callErrors)
}

func recordCallDuration(procedureName string, d time.Duration) {
	callDuration.WithLabelValues(procedureName).Observe(d.Seconds())
}

func recordCallError(procedureName string, kind fmt.Stringer) {
	callErrors.WithLabelValues(procedureName, kind.String()).Inc()
}
