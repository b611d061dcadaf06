package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Run outcomes used as the "outcome" label.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Metrics counts runs and rendered charts.
type Metrics struct {
	runs     *prometheus.CounterVec
	queued   prometheus.Counter
	students prometheus.Counter
	duration prometheus.Histogram
}

// NewMetrics registers the pipeline collectors with reg. A nil reg returns
// unregistered collectors, which is convenient in tests and the CLI.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scorecharts",
			Name:      "runs_total",
			Help:      "Chart runs by outcome.",
		}, []string{"outcome"}),
		queued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scorecharts",
			Name:      "runs_queued_total",
			Help:      "Runs that found every slot busy and had to wait.",
		}),
		students: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scorecharts",
			Name:      "charts_rendered_total",
			Help:      "Student charts rendered.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "scorecharts",
			Name:      "run_duration_seconds",
			Help:      "Time from upload parse to last chart rendered.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.runs, m.queued, m.students, m.duration)
	}
	return m
}

func (m *Metrics) observe(outcome string, charts int, elapsed time.Duration) {
	m.runs.WithLabelValues(outcome).Inc()
	m.students.Add(float64(charts))
	m.duration.Observe(elapsed.Seconds())
}
