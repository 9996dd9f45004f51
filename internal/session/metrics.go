package session

import "github.com/prometheus/client_golang/prometheus"

var (
	sessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edged",
			Subsystem: "session",
			Name:      "sessions_total",
			Help:      "Total sessions by outcome",
		},
		[]string{"outcome"},
	)

	sessionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "edged",
			Subsystem: "session",
			Name:      "duration_seconds",
			Help:      "Duration of full tokenize-to-decode sessions",
			Buckets:   prometheus.DefBuckets,
		},
	)

	frameBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edged",
			Subsystem: "wire",
			Name:      "frame_bytes_total",
			Help:      "Frame body bytes exchanged with the peer, by direction",
		},
		[]string{"direction"},
	)
)

func init() {
	prometheus.MustRegister(sessionsTotal, sessionDuration, frameBytes)
}
