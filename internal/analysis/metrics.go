package analysis

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for orchestrator activity. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	started    prometheus.Counter
	completed  *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	superseded prometheus.Counter
	rejected   *prometheus.CounterVec
	inFlight   prometheus.Gauge
}

// MustNewMetrics registers the collectors with reg and panics on any error
// other than a matching collector already being registered, in which case the
// existing collector is reused.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		started: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "byteme",
			Subsystem: "analysis",
			Name:      "started_total",
			Help:      "Analyses that entered the loading state.",
		}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "byteme",
			Subsystem: "analysis",
			Name:      "completed_total",
			Help:      "Analyses that reached a terminal state, by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "byteme",
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Time from submit to terminal state, including the minimum display duration.",
			Buckets:   []float64{0.5, 1, 2, 4, 6, 8, 10, 15, 30, 60},
		}, []string{"outcome"}),
		superseded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "byteme",
			Subsystem: "analysis",
			Name:      "superseded_total",
			Help:      "Completions dropped because a reset or newer request superseded them.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "byteme",
			Subsystem: "analysis",
			Name:      "rejected_submissions_total",
			Help:      "Submissions refused before entering the loading state, by reason.",
		}, []string{"reason"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "byteme",
			Subsystem: "analysis",
			Name:      "in_flight",
			Help:      "Analyses currently loading.",
		}),
	}

	m.started = register(reg, m.started)
	m.completed = register(reg, m.completed)
	m.duration = register(reg, m.duration)
	m.superseded = register(reg, m.superseded)
	m.rejected = register(reg, m.rejected)
	m.inFlight = register(reg, m.inFlight)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (m *Metrics) observeStart() {
	if m == nil {
		return
	}
	m.started.Inc()
	m.inFlight.Inc()
}

func (m *Metrics) observeDone(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	m.completed.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// observeAbandoned records a loading state left through reset or close.
func (m *Metrics) observeAbandoned() {
	if m == nil {
		return
	}
	m.inFlight.Dec()
}

func (m *Metrics) observeSuperseded() {
	if m == nil {
		return
	}
	m.superseded.Inc()
}

func (m *Metrics) observeRejected(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}
