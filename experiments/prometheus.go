package experiments

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gamesearch"

// counters tracks tournament progress. A nil registerer leaves them unregistered.
type counters struct {
	matches  *prometheus.CounterVec
	wins     *prometheus.CounterVec
	failed   prometheus.Counter
	duration prometheus.Histogram
}

func newCounters(reg prometheus.Registerer) *counters {
	factory := promauto.With(reg)
	return &counters{
		matches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tournament",
			Name:      "matches_total",
			Help:      "Finished matches by outcome (win or draw).",
		}, []string{"outcome"}),
		wins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tournament",
			Name:      "wins_total",
			Help:      "Won matches by agent.",
		}, []string{"agent"}),
		failed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tournament",
			Name:      "failed_matches_total",
			Help:      "Matches aborted by an error.",
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tournament",
			Name:      "match_duration_seconds",
			Help:      "Wall-clock duration of finished matches.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}
}
