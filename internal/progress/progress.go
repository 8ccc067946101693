// Package progress renders a single status line while the run is active.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
)

// Intervals is the view of the interval collection the line needs.
type Intervals interface {
	Len() int
	Target() int
}

// Operations is the view of the operation counters the line needs.
type Operations interface {
	Total() int64
	Failures() int64
}

// Connection is the view of the tracker the line needs.
type Connection interface {
	OpenSince() (time.Time, bool)
}

var (
	connectedColor    = color.New(color.FgGreen, color.Bold)
	disconnectedColor = color.New(color.FgRed, color.Bold)
)

type Progress struct {
	startTime time.Time
	intervals Intervals
	ops       Operations
	conn      Connection
	ticker    *time.Ticker
	stopCh    chan struct{}
	stopped   atomic.Bool
	quiet     bool
	output    io.Writer
	mu        sync.Mutex
}

func NewProgress(intervals Intervals, ops Operations, quiet bool) *Progress {
	return &Progress{
		intervals: intervals,
		ops:       ops,
		quiet:     quiet,
		output:    os.Stderr,
	}
}

// Watch adds the connection state to the line.
func (p *Progress) Watch(conn Connection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conn = conn
}

func (p *Progress) SetOutput(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.output = w
}

func (p *Progress) Start() {
	if p.quiet {
		return
	}
	p.startTime = time.Now()
	p.stopCh = make(chan struct{})
	p.ticker = time.NewTicker(1 * time.Second)
	go p.run()
}

func (p *Progress) run() {
	for {
		select {
		case <-p.stopCh:
			return
		case now := <-p.ticker.C:
			p.mu.Lock()
			fmt.Fprint(p.output, "\r\033[K"+p.line(now))
			p.mu.Unlock()
		}
	}
}

// line renders the status at now. Callers hold p.mu.
func (p *Progress) line(now time.Time) string {
	elapsed := now.Sub(p.startTime).Round(time.Second)
	mins := int(elapsed.Minutes())
	secs := int(elapsed.Seconds()) % 60

	total := p.ops.Total()
	failures := p.ops.Failures()
	failureRate := 0.0
	if total > 0 {
		failureRate = float64(failures) / float64(total) * 100
	}

	line := fmt.Sprintf("[%02d:%02d] Outages: %d/%d | Ops: %d | Failures: %d (%.1f%%)",
		mins, secs, p.intervals.Len(), p.intervals.Target(), total, failures, failureRate)
	if p.conn == nil {
		return line
	}
	if since, open := p.conn.OpenSince(); open {
		return line + " | " + disconnectedColor.Sprintf("DISCONNECTED %.1fs", now.Sub(since).Seconds())
	}
	return line + " | " + connectedColor.Sprint("CONNECTED")
}

func (p *Progress) Stop() {
	if p.quiet || p.stopped.Swap(true) {
		return
	}
	if p.ticker != nil {
		p.ticker.Stop()
	}
	if p.stopCh != nil {
		close(p.stopCh)
	}
	p.mu.Lock()
	fmt.Fprint(p.output, "\r\033[K")
	p.mu.Unlock()
}

// Write prints b above the status line. It is not silenced by quiet, so
// reports routed through it are never lost.
func (p *Progress) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := fmt.Fprint(p.output, "\r\033[K"); err != nil {
		return 0, err
	}
	return p.output.Write(b)
}

func (p *Progress) Print(message string) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	fmt.Fprintf(p.output, "\r\033[K%s\n", message)
	p.mu.Unlock()
}

func (p *Progress) Printf(format string, args ...interface{}) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	fmt.Fprintf(p.output, "\r\033[K"+format+"\n", args...)
	p.mu.Unlock()
}
