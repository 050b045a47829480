package metrics

import (
	"strconv"

	"mercator-hq/docgate/pkg/config"
	"mercator-hq/docgate/pkg/submission"

	"github.com/prometheus/client_golang/prometheus"
)

// SubmissionMetrics tracks document submissions.
type SubmissionMetrics struct {
	total         *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	admissionWait prometheus.Histogram
}

// NewSubmissionMetrics creates and registers submission metrics with the
// provided registry.
func NewSubmissionMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *SubmissionMetrics {
	sm := &SubmissionMetrics{
		total: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "submissions_total",
				Help:      "Total number of document submission attempts",
			},
			[]string{"outcome", "status"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "submission_duration_seconds",
				Help:      "Duration of the HTTP exchange with the document endpoint",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"outcome"},
		),

		admissionWait: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "admission_wait_seconds",
				Help:      "Time spent waiting for an admission permit",
				Buckets:   []float64{0.001, 0.01, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
		),
	}

	registry.MustRegister(sm.total, sm.duration, sm.admissionWait)

	return sm
}

// Record records one outcome. Attempts rejected before admission do not
// contribute to the latency or wait histograms.
func (sm *SubmissionMetrics) Record(outcome *submission.Outcome) {
	result := string(outcome.Result())

	status := "none"
	if outcome.StatusCode != 0 {
		status = strconv.Itoa(outcome.StatusCode)
	}
	sm.total.WithLabelValues(result, status).Inc()

	switch outcome.Result() {
	case submission.ResultInvalid, submission.ResultEncode:
		return
	}

	sm.admissionWait.Observe(outcome.Wait.Seconds())
	if outcome.Latency > 0 {
		sm.duration.WithLabelValues(result).Observe(outcome.Latency.Seconds())
	}
}
