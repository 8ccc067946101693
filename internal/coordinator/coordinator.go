// Package coordinator runs the workload drivers until enough outages have
// been observed and reduces what they collected.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"outagebench/internal/collector"
	"outagebench/internal/core"
	"outagebench/internal/outage"
)

// Stepper is one workload driver. Step issues a single operation.
type Stepper interface {
	ID() int
	Step(ctx context.Context) error
}

// RunResult is the sealed outcome of a run.
type RunResult struct {
	Intervals []outage.Interval
	Stats     *collector.Stats
	Elapsed   time.Duration
	Late      int
	// Completed is set when the target interval count was reached.
	Completed bool
	// Interrupted is set when the caller cancelled the run first.
	Interrupted bool
}

type Coordinator struct {
	collector *collector.Collector
	logger    *zap.Logger
	clock     core.Clock
}

// Option configures a Coordinator.
type Option func(*Coordinator)

func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

func WithClock(clock core.Clock) Option {
	return func(c *Coordinator) { c.clock = clock }
}

func NewCoordinator(c *collector.Collector, opts ...Option) *Coordinator {
	coord := &Coordinator{
		collector: c,
		logger:    zap.NewNop(),
		clock:     core.RealClock{},
	}
	for _, opt := range opts {
		opt(coord)
	}
	return coord
}

// Run loops every driver until the collector reaches its target, ctx is
// cancelled or a driver fails fatally. Drivers are joined before the
// collector is sealed, so the returned snapshot is final.
func (c *Coordinator) Run(ctx context.Context, drivers []Stepper) (*RunResult, error) {
	start := c.clock.Now()

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)
	go func() {
		select {
		case <-c.collector.Done():
			c.logger.Debug("target reached, stopping drivers", zap.Int("target", c.collector.Target()))
			stop()
		case <-gctx.Done():
		}
	}()

	for _, d := range drivers {
		g.Go(func() (err error) {
			defer c.recoverPanic(d.ID(), &err)
			return c.loop(gctx, d)
		})
	}

	err := g.Wait()
	c.collector.Seal()

	intervals := c.collector.Intervals()
	result := &RunResult{
		Intervals: intervals,
		Stats:     collector.ComputeStats(intervals),
		Elapsed:   c.clock.Since(start),
		Late:      c.collector.Late(),
	}
	select {
	case <-c.collector.Done():
		result.Completed = true
	default:
		result.Interrupted = ctx.Err() != nil
	}
	if result.Late > 0 {
		c.logger.Warn("outages closed after the run stopped", zap.Int("late", result.Late))
	}
	return result, err
}

// loop steps d until ctx ends. Errors surfacing because ctx ended are not
// failures; fatal errors are always returned.
func (c *Coordinator) loop(ctx context.Context, d Stepper) error {
	for ctx.Err() == nil {
		err := d.Step(ctx)
		if err == nil {
			continue
		}
		if errors.Is(err, core.ErrFatal) || ctx.Err() == nil {
			c.logger.Error("driver stopped", zap.Int("driver", d.ID()), zap.Error(err))
			return err
		}
	}
	return nil
}

// recoverPanic turns a driver panic into a fatal error for the group.
func (c *Coordinator) recoverPanic(driverID int, err *error) {
	if r := recover(); r != nil {
		c.logger.Error("driver panicked", zap.Int("driver", driverID), zap.Any("panic", r))
		*err = fmt.Errorf("%w: driver %d panicked: %v", core.ErrFatal, driverID, r)
	}
}
