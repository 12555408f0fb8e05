package queue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	publishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "leadqueue",
		Subsystem: "queue",
		Name:      "published_total",
		Help:      "Delivery IDs published, by backend.",
	}, []string{"backend"})

	consumedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "leadqueue",
		Subsystem: "queue",
		Name:      "consumed_total",
		Help:      "Messages taken off the queue, by backend and outcome (ok, error, malformed).",
	}, []string{"backend", "outcome"})

	handleSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "leadqueue",
		Subsystem: "queue",
		Name:      "handle_seconds",
		Help:      "Time spent in the message handler.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"backend"})
)
