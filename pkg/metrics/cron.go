package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RunResult labels the outcome of one scheduled job attempt.
type RunResult string

const (
	RunSucceeded RunResult = "success"
	RunFailed    RunResult = "failure"
	// RunSkipped means another replica held the job lock.
	RunSkipped RunResult = "skipped"
)

// CronJobMetrics counts job attempts by outcome and times the ones that ran.
type CronJobMetrics struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	m := &CronJobMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_cron_job_runs_total",
			Help: "Scheduled job attempts by job and result.",
		}, []string{"job", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_cron_job_duration_seconds",
			Help:    "Wall time of scheduled jobs that acquired their lock.",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"job"}),
	}
	reg.MustRegister(m.runs, m.duration)
	return m
}

// Record counts one attempt of job. elapsed is observed only for attempts
// that actually ran the job body.
func (m *CronJobMetrics) Record(job string, result RunResult, elapsed time.Duration) {
	if m == nil || m.runs == nil {
		return
	}
	job = normalizeLabel(job)
	m.runs.WithLabelValues(job, string(result)).Inc()
	if result != RunSkipped && elapsed > 0 {
		m.duration.WithLabelValues(job).Observe(elapsed.Seconds())
	}
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
