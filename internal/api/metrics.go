package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "groupdir_searches_total",
		Help: "Group searches by outcome (ok or the query error kind)",
	}, []string{"outcome"})

	searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "groupdir_search_duration_seconds",
		Help:    "End to end latency of group searches, compile and execute",
		Buckets: prometheus.DefBuckets,
	})
)
