package coordinator

import (
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"outagebench/internal/collector"
	"outagebench/internal/outage"
)

// TransitionLogger logs every Connected/Disconnected transition.
type TransitionLogger struct {
	logger *zap.Logger
}

func NewTransitionLogger(logger *zap.Logger) *TransitionLogger {
	return &TransitionLogger{logger: logger}
}

func (l *TransitionLogger) OnDisconnect(start time.Time) {
	l.logger.Info("Disconnected", zap.Time("at", start))
}

func (l *TransitionLogger) OnReconnect(iv outage.Interval) {
	l.logger.Info("Connected",
		zap.Int("seq", iv.Seq),
		zap.Time("at", iv.End),
		zap.Duration("outage", iv.Duration()))
}

// IncrementalReport writes the running outage statistics each time an
// interval closes.
type IncrementalReport struct {
	mu        sync.Mutex
	w         io.Writer
	collector *collector.Collector
}

func NewIncrementalReport(w io.Writer, c *collector.Collector) *IncrementalReport {
	return &IncrementalReport{w: w, collector: c}
}

func (r *IncrementalReport) OnDisconnect(time.Time) {}

// OnReconnect runs after the tracker has added iv to the collector, so the
// snapshot already contains it.
func (r *IncrementalReport) OnReconnect(outage.Interval) {
	stats := collector.ComputeStats(r.collector.Intervals())
	r.mu.Lock()
	defer r.mu.Unlock()
	collector.FormatStats(r.w, stats)
}
