package collector

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"outagebench/internal/core"
)

// Operations counts the operations drivers issue and records the latency of
// successful ones in an HDR histogram. Safe for concurrent drivers.
type Operations struct {
	reads    atomic.Int64
	writes   atomic.Int64
	failures atomic.Int64

	mu   sync.Mutex
	hist *hdrhistogram.Histogram
}

// NewOperations creates a recorder tracking latencies from 1µs to 10min
// with 3 significant figures.
func NewOperations() *Operations {
	return &Operations{
		hist: hdrhistogram.New(1, int64(10*time.Minute/time.Microsecond), 3),
	}
}

// Record accounts for one finished operation.
func (o *Operations) Record(op core.Op, outcome core.Outcome, d time.Duration) {
	if op == core.OpWrite {
		o.writes.Add(1)
	} else {
		o.reads.Add(1)
	}
	if outcome != core.OutcomeSuccess {
		o.failures.Add(1)
		return
	}

	us := d.Microseconds()
	if us < 1 {
		us = 1
	}
	o.mu.Lock()
	// values above the trackable range are dropped by the histogram
	_ = o.hist.RecordValue(us)
	o.mu.Unlock()
}

// Total returns the number of operations recorded.
func (o *Operations) Total() int64 {
	return o.reads.Load() + o.writes.Load()
}

// Failures returns the number of failed operations.
func (o *Operations) Failures() int64 {
	return o.failures.Load()
}

// LatencySummary is a snapshot of successful operation latencies.
type LatencySummary struct {
	Reads    int64         `json:"reads"`
	Writes   int64         `json:"writes"`
	Failures int64         `json:"failures"`
	Mean     time.Duration `json:"mean"`
	P50      time.Duration `json:"p50"`
	P99      time.Duration `json:"p99"`
	Max      time.Duration `json:"max"`
}

// Summary snapshots counters and latency quantiles.
func (o *Operations) Summary() LatencySummary {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := LatencySummary{
		Reads:    o.reads.Load(),
		Writes:   o.writes.Load(),
		Failures: o.failures.Load(),
	}
	if o.hist.TotalCount() == 0 {
		return s
	}
	s.Mean = time.Duration(o.hist.Mean() * float64(time.Microsecond))
	s.P50 = time.Duration(o.hist.ValueAtQuantile(50)) * time.Microsecond
	s.P99 = time.Duration(o.hist.ValueAtQuantile(99)) * time.Microsecond
	s.Max = time.Duration(o.hist.Max()) * time.Microsecond
	return s
}
