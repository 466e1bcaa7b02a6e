package metrics

import (
    "sync"

    "github.com/prometheus/client_golang/prometheus"
)

var (
    once sync.Once

    CommandLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "salepulse",
            Subsystem: "chat",
            Name:      "command_latency_seconds",
            Help:      "Latency of chat command handling",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"command"},
    )

    CommandErrors = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "salepulse",
            Subsystem: "chat",
            Name:      "command_errors_total",
            Help:      "Errors by chat command",
        },
        []string{"command"},
    )
)

func Register() {
    once.Do(func() {
        prometheus.MustRegister(CommandLatency, CommandErrors)
    })
}
