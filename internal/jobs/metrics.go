// Package jobmetrics instruments background work: queue handlers, cron
// warmups and upload resolution.
package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	statusSuccess = "success"
	statusFailure = "failure"
)

// Metrics holds the job collectors. A nil *Metrics records nothing.
type Metrics struct {
	runs     *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
	uploads  *prometheus.CounterVec
}

var (
	processOnce    sync.Once
	processMetrics *Metrics
)

// NewMetrics registers the collectors on registerer. A nil registerer shares
// one set on the process-wide default registry, so repeated calls are safe.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer != nil {
		return register(registerer)
	}
	processOnce.Do(func() {
		processMetrics = register(prometheus.DefaultRegisterer)
	})
	return processMetrics
}

func register(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finconsol_jobs_total",
			Help: "Job runs by job type and status.",
		}, []string{"job", "status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finconsol_jobs_failures_total",
			Help: "Failed job runs by job type.",
		}, []string{"job"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "finconsol_job_duration_seconds",
			Help:    "Wall time of a job run.",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 15, 30},
		}, []string{"job"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finconsol_upload_outcomes_total",
			Help: "Resolved budget uploads by market and final status.",
		}, []string{"market", "status"}),
	}
	reg.MustRegister(m.runs, m.failures, m.duration, m.uploads)
	return m
}

// Tracker times one job run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track starts timing a run of job.
func (m *Metrics) Track(job string) *Tracker {
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End records the run as a success or failure and passes err through, so it
// can wrap a deferred return value.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	status := statusSuccess
	if err != nil {
		status = statusFailure
		t.metrics.failures.WithLabelValues(t.job).Inc()
	}
	t.metrics.runs.WithLabelValues(t.job, status).Inc()
	t.metrics.duration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	return err
}

// AddUploadOutcome counts an upload leaving the processing state.
func (m *Metrics) AddUploadOutcome(market, status string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(market, status).Inc()
}
