// Package jobmetrics instruments background jobs run by the worker.
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

// Metrics holds the worker side collectors.
type Metrics struct {
	runs         *prometheus.CounterVec
	failures     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	lastSuccess  *prometheus.GaugeVec
	expiredRoles *prometheus.GaugeVec
}

var (
	sharedOnce    sync.Once
	sharedMetrics *Metrics
)

// NewMetrics registers the collectors on registerer. A nil registerer shares
// one instance on the process wide default registry.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer != nil {
		return register(registerer)
	}
	sharedOnce.Do(func() {
		sharedMetrics = register(prometheus.DefaultRegisterer)
	})
	return sharedMetrics
}

// Tracker times a single job run.
type Tracker struct {
	metrics *Metrics
	job     string
	started time.Time
}

// Track starts timing job. It is safe on a nil receiver.
func (m *Metrics) Track(job string) *Tracker {
	return &Tracker{metrics: m, job: job, started: time.Now()}
}

// End records the outcome of the run and hands err back.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	m := t.metrics
	m.duration.WithLabelValues(t.job).Observe(time.Since(t.started).Seconds())
	if err != nil {
		m.failures.WithLabelValues(t.job).Inc()
		m.runs.WithLabelValues(t.job, statusFailure).Inc()
		return err
	}
	m.runs.WithLabelValues(t.job, statusSuccess).Inc()
	m.lastSuccess.WithLabelValues(t.job).SetToCurrentTime()
	return nil
}

// SetExpiredRoles publishes the number of expired roles a customer still stores.
func (m *Metrics) SetExpiredRoles(customer string, count int) {
	if m == nil {
		return
	}
	m.expiredRoles.WithLabelValues(customer).Set(float64(count))
}

func register(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "modular_jobs_total",
			Help: "Job runs by job and status.",
		}, []string{"job", "status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "modular_jobs_failures_total",
			Help: "Failed job runs.",
		}, []string{"job"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "modular_job_duration_seconds",
			Help:    "Job run duration.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "modular_job_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run.",
		}, []string{"job"}),
		expiredRoles: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "modular_rbac_expired_roles",
			Help: "Expired roles still stored per customer at the last audit.",
		}, []string{"customer"}),
	}
	registerer.MustRegister(m.runs, m.failures, m.duration, m.lastSuccess, m.expiredRoles)
	return m
}
