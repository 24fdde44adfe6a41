package search

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	generationsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "movie_search_generations_issued_total",
		Help: "Total searches issued by the coordinator",
	})

	staleDiscards = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "movie_search_stale_discards_total",
		Help: "Search outcomes dropped because a newer search was issued, by outcome",
	}, []string{"outcome"})

	inflightSearches = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "movie_search_inflight",
		Help: "Searches issued and not yet completed",
	})

	searchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "movie_search_duration_seconds",
		Help:    "Time from issue to completion of a search, by outcome",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"outcome"})
)

const (
	outcomeSuccess = "success"
	outcomeError   = "error"
)
