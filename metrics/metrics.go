// Package metrics holds the process's prometheus collectors so both
// the engine and the matcher can record against them without an
// import cycle back through the main package.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	IngestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fpengine_ingest_total",
		Help: "Ingestion attempts by outcome.",
	}, []string{"outcome"})

	IngestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fpengine_ingest_duration_seconds",
		Help:    "Time to fingerprint and store one track.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	IngestFingerprintsPerTrack = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fpengine_ingest_fingerprints_per_track",
		Help:    "Number of fingerprints produced per ingested track.",
		Buckets: prometheus.ExponentialBuckets(100, 2, 12),
	})

	MatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fpengine_match_total",
		Help: "Match requests by outcome (found, no_match, error).",
	}, []string{"outcome"})

	MatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fpengine_match_duration_seconds",
		Help:    "Time to fingerprint a query clip and score it against the index.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	})

	CacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fpengine_match_cache_total",
		Help: "Match cache lookups by outcome (hit, miss).",
	}, []string{"outcome"})

	IndexSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fpengine_index_size",
		Help: "Current size of the fingerprint index by unit (tracks, fingerprints).",
	}, []string{"unit"})
)
