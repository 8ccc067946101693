// Package collector stores closed outage intervals and reduces them to
// summary statistics.
package collector

import (
	"sync"

	"outagebench/internal/outage"
)

// Collector is an append-only, concurrency-safe set of closed intervals.
type Collector struct {
	intervals []outage.Interval
	target    int
	late      int
	sealed    bool
	done      chan struct{}
	doneOnce  sync.Once
	mu        sync.Mutex
}

// NewCollector creates a Collector whose Done channel closes once target
// intervals have been added. A target of zero or less never fires.
func NewCollector(target int) *Collector {
	return &Collector{
		intervals: make([]outage.Interval, 0, max(target, 0)),
		target:    target,
		done:      make(chan struct{}),
	}
}

// Add appends a closed interval. Intervals added after Seal are counted
// as late and discarded.
func (c *Collector) Add(iv outage.Interval) {
	c.mu.Lock()
	if c.sealed {
		c.late++
		c.mu.Unlock()
		return
	}
	c.intervals = append(c.intervals, iv)
	reached := c.target > 0 && len(c.intervals) >= c.target
	c.mu.Unlock()

	if reached {
		c.doneOnce.Do(func() { close(c.done) })
	}
}

// Len returns the number of collected intervals.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.intervals)
}

// Target returns the interval count that closes Done.
func (c *Collector) Target() int {
	return c.target
}

// Done is closed when the target interval count has been reached.
func (c *Collector) Done() <-chan struct{} {
	return c.done
}

// Seal stops accepting intervals. Call it after every driver has stopped.
func (c *Collector) Seal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sealed {
		return
	}
	c.sealed = true
}

// Late returns how many intervals arrived after Seal.
func (c *Collector) Late() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.late
}

// Intervals returns a copy of the collected intervals in insertion order.
func (c *Collector) Intervals() []outage.Interval {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]outage.Interval, len(c.intervals))
	copy(result, c.intervals)
	return result
}
