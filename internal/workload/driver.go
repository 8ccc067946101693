package workload

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"outagebench/internal/core"
	"outagebench/internal/outage"
	"outagebench/internal/ratelimit"
)

// DefaultWriteRatio is the share of operations that are writes.
const DefaultWriteRatio = 0.3

// DefaultSlowOp is the latency above which an operation is logged.
const DefaultSlowOp = time.Second

// StateReporter receives the outcome of every operation.
// *outage.Tracker implements it.
type StateReporter interface {
	ReportSuccess() (outage.Interval, bool)
	ReportFailure() bool
}

// Recorder accounts for finished operations.
type Recorder interface {
	Record(op core.Op, outcome core.Outcome, d time.Duration)
}

// Option configures a Driver.
type Option func(*Driver)

func WithPayload(p Payload) Option { return func(d *Driver) { d.payload = p } }

func WithWriteRatio(r float64) Option { return func(d *Driver) { d.writeRatio = r } }

func WithRateLimiter(l *ratelimit.RateLimiter) Option { return func(d *Driver) { d.limiter = l } }

// WithRecorder adds a sink for per-operation outcomes; it may be repeated.
func WithRecorder(r Recorder) Option {
	return func(d *Driver) {
		if r != nil {
			d.recorders = append(d.recorders, r)
		}
	}
}

func WithLogger(l *zap.Logger) Option { return func(d *Driver) { d.logger = l } }

func WithClock(c core.Clock) Option { return func(d *Driver) { d.clock = c } }

// WithSlowOp sets the latency above which operations are logged. Zero disables it.
func WithSlowOp(threshold time.Duration) Option { return func(d *Driver) { d.slowOp = threshold } }

// WithSeed makes the operation mix and random payloads reproducible.
func WithSeed(seed uint64) Option {
	return func(d *Driver) { d.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// Driver generates one operation per Step. A Driver is NOT safe for
// concurrent use; run one per goroutine against a shared tracker.
type Driver struct {
	id         int
	store      core.Store
	tracker    StateReporter
	limiter    *ratelimit.RateLimiter
	recorders  []Recorder
	payload    Payload
	writeRatio float64
	slowOp     time.Duration
	rng        *rand.Rand
	clock      core.Clock
	logger     *zap.Logger
}

// NewDriver creates a driver issuing operations against store.
func NewDriver(id int, store core.Store, tracker StateReporter, opts ...Option) *Driver {
	d := &Driver{
		id:         id,
		store:      store,
		tracker:    tracker,
		payload:    Fixed(DefaultValue),
		writeRatio: DefaultWriteRatio,
		slowOp:     DefaultSlowOp,
		rng:        rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		clock:      core.RealClock{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With(zap.Int("driver", id))
	return d
}

// ID returns the driver's identifier.
func (d *Driver) ID() int {
	return d.id
}

// Step issues one operation and classifies its outcome.
// Connectivity failures are absorbed; any other store error is returned
// wrapped in core.ErrFatal. A cancelled ctx is returned as is.
func (d *Driver) Step(ctx context.Context) error {
	op := d.nextOp()
	key := d.payload.Next(d.rng)

	start := d.clock.Now()
	var err error
	if op == core.OpWrite {
		err = d.store.Write(ctx, key, d.payload.Next(d.rng))
	} else {
		err = d.store.Read(ctx, key)
	}
	elapsed := d.clock.Since(start)

	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}

	outcome := core.Classify(err)
	for _, r := range d.recorders {
		r.Record(op, outcome, elapsed)
	}
	if d.slowOp > 0 && elapsed > d.slowOp {
		d.logger.Info("slow operation",
			zap.String("op", string(op)),
			zap.Duration("duration", elapsed),
			zap.Stringer("outcome", outcome))
	}

	switch outcome {
	case core.OutcomeSuccess:
		d.tracker.ReportSuccess()
		d.pace(ctx)
		return nil
	case core.OutcomeConnectivity:
		d.tracker.ReportFailure()
		d.logger.Debug("operation failed",
			zap.String("op", string(op)),
			zap.Error(err),
			zap.String("store", d.store.Describe()))
		return nil
	default:
		return fmt.Errorf("%w: driver %d %s: %w", core.ErrFatal, d.id, op, err)
	}
}

func (d *Driver) nextOp() core.Op {
	if d.rng.IntN(100) < int(d.writeRatio*100+0.5) {
		return core.OpWrite
	}
	return core.OpRead
}

// pace sleeps after a successful operation. An interrupted sleep is logged
// and ignored; the caller notices the cancellation at its next iteration.
func (d *Driver) pace(ctx context.Context) {
	if err := d.limiter.Pause(ctx); err != nil {
		d.logger.Debug("rate limiter wait interrupted", zap.Error(err))
	}
}
