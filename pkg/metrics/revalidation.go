package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RevalidationJobMetrics records metadata for background revalidation jobs.
type RevalidationJobMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	flagged  *prometheus.CounterVec
	purged   *prometheus.CounterVec
}

// NewRevalidationJobMetrics registers the job metrics on the provided registerer.
func NewRevalidationJobMetrics(reg prometheus.Registerer) *RevalidationJobMetrics {
	if reg == nil {
		return &RevalidationJobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "revalidation_job_duration_seconds",
		Help:    "Duration of revalidation jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "revalidation_job_success",
		Help: "Successful revalidation job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "revalidation_job_failure",
		Help: "Failed revalidation job executions.",
	}, []string{"job"})
	flagged := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "revalidation_lines_flagged",
		Help: "Cart lines flagged by revalidation, by reason.",
	}, []string{"reason"})
	purged := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "revalidation_lines_purged",
		Help: "Cart lines removed by revalidation, by reason.",
	}, []string{"reason"})
	reg.MustRegister(duration, success, failure, flagged, purged)
	return &RevalidationJobMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		flagged:  flagged,
		purged:   purged,
	}
}

// ObserveDuration records the duration for the named job.
func (m *RevalidationJobMetrics) ObserveDuration(job string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named job.
func (m *RevalidationJobMetrics) IncSuccess(job string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncFailure increments the failure counter for the named job.
func (m *RevalidationJobMetrics) IncFailure(job string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

// AddFlagged counts cart lines flagged for the given reason.
func (m *RevalidationJobMetrics) AddFlagged(reason string, count int) {
	if m == nil || m.flagged == nil || count <= 0 {
		return
	}
	m.flagged.WithLabelValues(normalizeLabel(reason)).Add(float64(count))
}

// AddPurged counts cart lines removed for the given reason. Purging is a
// mutation, not a flag; it gets its own counter.
func (m *RevalidationJobMetrics) AddPurged(reason string, count int) {
	if m == nil || m.purged == nil || count <= 0 {
		return
	}
	m.purged.WithLabelValues(normalizeLabel(reason)).Add(float64(count))
}

func normalizeLabel(label string) string {
	if label == "" {
		return "unknown"
	}
	return label
}
