package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Attempt engine counters, exported at /metrics via promhttp.
var (
	AttemptsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studykit_attempts_started_total",
		Help: "Test attempts started.",
	})

	SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studykit_submissions_total",
		Help: "Successful attempt submissions by trigger.",
	}, []string{"trigger"})

	SubmissionsSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studykit_submissions_suppressed_total",
		Help: "Duplicate submission triggers suppressed by the exactly-once guard.",
	})

	SubmissionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studykit_submission_failures_total",
		Help: "Submission attempts that failed and returned to the active state.",
	})
)
