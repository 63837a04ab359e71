package worker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks processed jobs and availability checks.
type Metrics struct {
	jobs        *prometheus.CounterVec
	jobDuration prometheus.Histogram
	checks      *prometheus.CounterVec
	routesAge   prometheus.Gauge
	routesStale prometheus.Gauge
}

// NewMetrics registers the worker metrics on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		jobs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aycf_jobs_total",
				Help: "Search jobs processed by final status.",
			},
			[]string{"status"},
		),
		jobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "aycf_job_duration_seconds",
			Help:    "Wall time spent on one search job.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 3600},
		}),
		checks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aycf_checks_total",
				Help: "Availability checks by source.",
			},
			[]string{"source"},
		),
		routesAge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aycf_routes_snapshot_age_seconds",
			Help: "Time since the route snapshot in use was parsed.",
		}),
		routesStale: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aycf_routes_snapshot_stale",
			Help: "1 when a newer route network has been published than the snapshot in use.",
		}),
	}
	for _, c := range []prometheus.Collector{m.jobs, m.jobDuration, m.checks, m.routesAge, m.routesStale} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) job(status string, took time.Duration) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(status).Inc()
	m.jobDuration.Observe(took.Seconds())
}

func (m *Metrics) check(source string) {
	if m == nil {
		return
	}
	m.checks.WithLabelValues(source).Inc()
}

func (m *Metrics) snapshot(lastParsed, now time.Time, stale bool) {
	if m == nil {
		return
	}
	if !lastParsed.IsZero() {
		m.routesAge.Set(now.Sub(lastParsed).Seconds())
	}
	if stale {
		m.routesStale.Set(1)
	} else {
		m.routesStale.Set(0)
	}
}
