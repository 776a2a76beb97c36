// Package metrics provides Prometheus metrics collection for the engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/actionloop/agentcore/pkg/toolkit"
)

const namespace = "agentcore"

// Metrics is a Prometheus-backed implementation of react.Metrics. A nil
// *Metrics is valid and every method is a no-op against it, so callers can
// pass nil to disable metrics entirely without branching at every call site.
type Metrics struct {
	registry *prometheus.Registry

	turnsStarted      prometheus.Counter
	turnDuration      prometheus.Histogram
	toolInvocations   *prometheus.CounterVec
	budgetExhaustions prometheus.Counter
	upstreamErrors    prometheus.Counter
}

// New creates a Metrics instance with its own registry, so multiple engines
// (or engine tests) running in the same process never collide over the
// default global registerer.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.turnsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "turn",
		Name:      "started_total",
		Help:      "Total number of ReAct turns started",
	})

	m.turnDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "turn",
		Name:      "duration_seconds",
		Help:      "Turn duration in seconds, from Run() entry to its terminal state",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14), // 100ms to ~13min
	})

	m.toolInvocations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tool",
		Name:      "invocations_total",
		Help:      "Total number of tool invocations by dispatch kind",
	}, []string{"kind"})

	m.budgetExhaustions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "turn",
		Name:      "budget_exceeded_total",
		Help:      "Total number of turns that hit the max step budget",
	})

	m.upstreamErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "turn",
		Name:      "upstream_errors_total",
		Help:      "Total number of turns that ended in an upstream model error",
	})

	m.registry.MustRegister(
		m.turnsStarted,
		m.turnDuration,
		m.toolInvocations,
		m.budgetExhaustions,
		m.upstreamErrors,
	)

	return m
}

// TurnStarted records a new turn entering the loop.
func (m *Metrics) TurnStarted() {
	if m == nil {
		return
	}
	m.turnsStarted.Inc()
}

// ToolInvoked records a tool dispatch, labeled by its invocation kind.
func (m *Metrics) ToolInvoked(kind toolkit.Kind) {
	if m == nil {
		return
	}
	m.toolInvocations.WithLabelValues(string(kind)).Inc()
}

// BudgetExceeded records a turn that was cut off by the max step budget.
func (m *Metrics) BudgetExceeded() {
	if m == nil {
		return
	}
	m.budgetExhaustions.Inc()
}

// UpstreamError records a turn that ended because the model adapter
// returned an error.
func (m *Metrics) UpstreamError() {
	if m == nil {
		return
	}
	m.upstreamErrors.Inc()
}

// TurnDuration records how long a whole turn took, regardless of outcome.
func (m *Metrics) TurnDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.turnDuration.Observe(d.Seconds())
}

// Handler returns an HTTP handler serving this instance's metrics in the
// Prometheus exposition format, for mounting under e.g. /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
