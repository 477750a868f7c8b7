// Package metrics records digest pipeline observability data for Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder tracks digest runs and their outcomes.
type Recorder struct {
	runsTotal        *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
	emailsFetched    prometheus.Counter
	newslettersFound prometheus.Counter
	activeRuns       prometheus.Gauge
}

// NewRecorder registers the digest metrics with reg; a nil reg means the
// default registry.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Recorder{
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "digest_runs_total",
				Help: "Total number of digest runs by final pipeline stage",
			},
			[]string{"stage"},
		),
		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "digest_run_duration_seconds",
				Help:    "Duration of digest runs in seconds",
				Buckets: prometheus.ExponentialBuckets(1, 2, 9),
			},
			[]string{"stage"},
		),
		emailsFetched: factory.NewCounter(prometheus.CounterOpts{
			Name: "digest_emails_fetched_total",
			Help: "Total number of emails fetched across all runs",
		}),
		newslettersFound: factory.NewCounter(prometheus.CounterOpts{
			Name: "digest_newsletters_found_total",
			Help: "Total number of emails classified as newsletters across all runs",
		}),
		activeRuns: factory.NewGauge(prometheus.GaugeOpts{
			Name: "digest_active_runs",
			Help: "Number of digest runs currently executing",
		}),
	}
}

// RunStarted marks a run as in flight.
func (r *Recorder) RunStarted() {
	r.activeRuns.Inc()
}

// ObserveRun records one finished run and marks it no longer in flight.
func (r *Recorder) ObserveRun(stage string, emails, newsletters int, duration time.Duration) {
	r.activeRuns.Dec()
	r.runsTotal.WithLabelValues(stage).Inc()
	r.runDuration.WithLabelValues(stage).Observe(duration.Seconds())
	r.emailsFetched.Add(float64(emails))
	r.newslettersFound.Add(float64(newsletters))
}
