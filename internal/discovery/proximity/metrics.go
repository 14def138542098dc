package proximity

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	resultOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "proximity_results_total",
		Help: "Proximity filter outcomes grouped by coverage.",
	}, []string{"outcome"})

	candidatesConsidered = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "proximity_candidates",
		Help:    "Number of merchant candidates measured per search.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})
)
