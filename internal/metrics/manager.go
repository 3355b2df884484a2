// Package metrics exposes Prometheus instruments for the rep engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager holds the engine's collectors.
type Manager struct {
	// counters
	CounterFrames         *prometheus.CounterVec
	CounterReps           *prometheus.CounterVec
	CounterSessionsClosed *prometheus.CounterVec
	CounterAppendFailures prometheus.Counter

	// gauges
	GaugeActiveSession prometheus.Gauge
}

// NewTestManager returns a Manager on a private registry.
func NewTestManager() *Manager {
	return NewManager("repcounter", "test", prometheus.NewRegistry())
}

// NewTestManagerAndRegistry also returns the registry for assertions.
func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("repcounter", "test", reg), reg
}

// NewManager registers all collectors with reg.
func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		CounterFrames: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "frames_total",
			Help:      "Frames processed, by outcome",
		}, []string{"outcome"}),
		CounterReps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reps_total",
			Help:      "Repetitions counted, by exercise",
		}, []string{"exercise"}),
		CounterSessionsClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sessions_closed_total",
			Help:      "Sessions persisted, by exercise",
		}, []string{"exercise"}),
		CounterAppendFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "store_append_failures_total",
			Help:      "Session log writes that failed",
		}),
		GaugeActiveSession: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "active_session",
			Help:      "1 while a training session is open",
		}),
	}
}
