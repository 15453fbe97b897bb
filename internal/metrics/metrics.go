// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submissions_total",
			Help: "Total number of graded submissions",
		},
		[]string{"problem", "verdict", "result"},
	)

	SubmissionScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "submission_score",
			Help:    "Distribution of submission scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
		[]string{"problem"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
