// Package outage turns a stream of per-operation success and failure signals
// into a bracketed sequence of outage intervals.
package outage

import (
	"fmt"
	"time"
)

const timeLayout = "15:04:05.000"

// Interval is one outage: from the first failed operation after a connected
// period to the first successful operation after it.
type Interval struct {
	Seq   int       `json:"seq"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns End - Start, never negative.
func (i Interval) Duration() time.Duration {
	if i.End.Before(i.Start) {
		return 0
	}
	return i.End.Sub(i.Start)
}

// Closed reports whether the interval has an end timestamp.
func (i Interval) Closed() bool {
	return !i.End.IsZero()
}

func (i Interval) String() string {
	if !i.Closed() {
		return fmt.Sprintf("[%s -> open]", i.Start.Format(timeLayout))
	}
	return fmt.Sprintf("[%s -> %s (%.3fs)]",
		i.Start.Format(timeLayout), i.End.Format(timeLayout), i.Duration().Seconds())
}
