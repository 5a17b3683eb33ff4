package disclosure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestTotal counts description requests by how they were served
	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "disclosure_description_requests_total",
		Help: "Description requests by path taken (cache_hit, coalesced, fetch)",
	}, []string{"path"})

	// fetchTotal counts settled fetches by outcome
	fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "disclosure_fetch_total",
		Help: "Settled description fetches by outcome",
	}, []string{"outcome"})

	// fetchDuration tracks fetch latency
	fetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "disclosure_fetch_duration_seconds",
		Help:    "Description fetch duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
	})

	// droppedSettlements counts settlements discarded after Dispose
	droppedSettlements = promauto.NewCounter(prometheus.CounterOpts{
		Name: "disclosure_dropped_settlements_total",
		Help: "Fetch settlements dropped because the session was disposed",
	})
)

const (
	pathCacheHit  = "cache_hit"
	pathCoalesced = "coalesced"
	pathFetch     = "fetch"

	outcomeLoaded = "loaded"
	outcomeEmpty  = "empty"
	outcomeFailed = "failed"
)
