package ridemap

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// runsGenerated counts generated run maps by difficulty.
	runsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ridemap_runs_generated_total",
		Help: "Total run maps generated by difficulty",
	}, []string{"difficulty"})

	generateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ridemap_generate_duration_seconds",
		Help:    "Wall time to build a full run map including terrain",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12), // 0.1ms to ~400ms
	})

	profileSegments = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ridemap_profile_segments",
		Help:    "Number of segments per synthesized terrain profile",
		Buckets: []float64{3, 5, 10, 20, 40, 80},
	})

	// bridgedProfiles counts courses too short for the segment loop.
	bridgedProfiles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ridemap_profiles_bridged_total",
		Help: "Profiles that fell back to a single bridging terrain segment",
	})
)
