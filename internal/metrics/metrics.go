// Package metrics exposes run progress as Prometheus metrics.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"outagebench/internal/core"
	"outagebench/internal/outage"
)

const namespace = "outagebench"

// Metrics records operations and connection state transitions.
// It is both a tracker observer and a driver recorder.
type Metrics struct {
	registry *prometheus.Registry

	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	outages    prometheus.Counter
	outageTime prometheus.Histogram
	connected  prometheus.GaugeFunc

	mu     sync.Mutex
	source StateSource
}

// StateSource reports whether the store is currently reachable.
type StateSource interface {
	State() outage.State
}

// New creates the collectors on a private registry, so several runs in
// one process (tests) never collide on the default registerer.
func New(runID, topology string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(prometheus.WrapRegistererWith(
		prometheus.Labels{"run_id": runID, "topology": topology}, reg))

	m := &Metrics{registry: reg}
	m.operations = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Store operations issued, by kind and outcome",
		}, []string{"op", "outcome"},
	)
	m.latency = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency of successful store operations",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"op"},
	)
	m.outages = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outages_total",
			Help:      "Closed outage intervals",
		},
	)
	m.outageTime = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "outage_duration_seconds",
			Help:      "Length of closed outage intervals",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
	)
	m.connected = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected",
			Help:      "1 while the store is reachable, 0 during an outage",
		}, m.connectedValue,
	)
	return m
}

// Watch makes the connected gauge read src at scrape time. Until a source
// is set the gauge reads 1.
func (m *Metrics) Watch(src StateSource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.source = src
}

func (m *Metrics) connectedValue() float64 {
	m.mu.Lock()
	src := m.source
	m.mu.Unlock()
	if src == nil || src.State() == outage.Connected {
		return 1
	}
	return 0
}

// Record counts one operation.
func (m *Metrics) Record(op core.Op, outcome core.Outcome, d time.Duration) {
	m.operations.WithLabelValues(string(op), outcome.String()).Inc()
	if outcome == core.OutcomeSuccess {
		m.latency.WithLabelValues(string(op)).Observe(d.Seconds())
	}
}

func (m *Metrics) OnDisconnect(time.Time) {}

func (m *Metrics) OnReconnect(iv outage.Interval) {
	m.outages.Inc()
	m.outageTime.Observe(iv.Duration().Seconds())
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
