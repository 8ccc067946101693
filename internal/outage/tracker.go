package outage

import (
	"sync"
	"time"

	"outagebench/internal/core"
)

// State is the connection state observed by a Tracker.
type State int

const (
	Connected State = iota
	Disconnected
)

func (s State) String() string {
	if s == Disconnected {
		return "disconnected"
	}
	return "connected"
}

// Sink receives every closed interval exactly once.
type Sink interface {
	Add(Interval)
}

// Observer is notified after each state transition.
// Callbacks run outside the tracker lock and may arrive out of order when
// several drivers report concurrently.
type Observer interface {
	OnDisconnect(start time.Time)
	OnReconnect(iv Interval)
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock sets the clock used to timestamp interval boundaries.
func WithClock(c core.Clock) Option {
	return func(t *Tracker) { t.clock = c }
}

// WithObserver registers an observer for state transitions.
func WithObserver(o Observer) Option {
	return func(t *Tracker) {
		if o != nil {
			t.observers = append(t.observers, o)
		}
	}
}

// Tracker is the Connected/Disconnected state machine.
// ReportSuccess and ReportFailure are mutually exclusive, so concurrent
// drivers can never leave an interval open or close it twice.
type Tracker struct {
	mu        sync.Mutex
	state     State
	open      Interval
	closed    int
	sink      Sink
	clock     core.Clock
	observers []Observer
}

// NewTracker creates a tracker in the Connected state.
func NewTracker(sink Sink, opts ...Option) *Tracker {
	t := &Tracker{
		state: Connected,
		sink:  sink,
		clock: core.RealClock{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ReportSuccess closes the open interval if the tracker is Disconnected.
// It returns the closed interval and true on a transition, false otherwise.
func (t *Tracker) ReportSuccess() (Interval, bool) {
	t.mu.Lock()
	if t.state == Connected {
		t.mu.Unlock()
		return Interval{}, false
	}

	iv := t.open
	iv.End = t.clock.Now()
	if iv.End.Before(iv.Start) {
		iv.End = iv.Start
	}
	t.closed++
	iv.Seq = t.closed
	t.open = Interval{}
	t.state = Connected
	if t.sink != nil {
		t.sink.Add(iv)
	}
	t.mu.Unlock()

	for _, o := range t.observers {
		o.OnReconnect(iv)
	}
	return iv, true
}

// ReportFailure opens a new interval if the tracker is Connected.
// Failures while already Disconnected extend the current outage.
func (t *Tracker) ReportFailure() bool {
	t.mu.Lock()
	if t.state == Disconnected {
		t.mu.Unlock()
		return false
	}

	start := t.clock.Now()
	t.open = Interval{Start: start}
	t.state = Disconnected
	t.mu.Unlock()

	for _, o := range t.observers {
		o.OnDisconnect(start)
	}
	return true
}

// State returns the current connection state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Closed returns how many intervals this tracker has closed.
func (t *Tracker) Closed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// OpenSince returns the start of the current outage, if any.
func (t *Tracker) OpenSince() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == Connected {
		return time.Time{}, false
	}
	return t.open.Start, true
}
