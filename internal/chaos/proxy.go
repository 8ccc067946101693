// Package chaos provides a TCP proxy that induces outages on demand.
package chaos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const defaultDialTimeout = 2 * time.Second

// Schedule alternates between forwarding for Up and cutting for Down.
type Schedule struct {
	Up   time.Duration
	Down time.Duration
}

func (s Schedule) validate() error {
	if s.Up <= 0 || s.Down <= 0 {
		return fmt.Errorf("chaos: schedule needs positive up and down durations, got up=%v down=%v", s.Up, s.Down)
	}
	return nil
}

// Stats counts what the proxy has done since it started.
type Stats struct {
	Accepted int64
	Refused  int64
	Severed  int64
	Cuts     int64
}

// Proxy forwards TCP connections to an upstream address. While cut, it
// drops every live connection and closes new ones as soon as they arrive.
type Proxy struct {
	listener    net.Listener
	upstream    string
	dialTimeout time.Duration
	logger      *zap.Logger

	mu     sync.Mutex
	cut    bool
	closed bool
	conns  map[net.Conn]struct{}

	accepted atomic.Int64
	refused  atomic.Int64
	severed  atomic.Int64
	cuts     atomic.Int64

	wg sync.WaitGroup
}

// Option configures a Proxy.
type Option func(*Proxy)

func WithLogger(l *zap.Logger) Option {
	return func(p *Proxy) { p.logger = l }
}

func WithDialTimeout(d time.Duration) Option {
	return func(p *Proxy) { p.dialTimeout = d }
}

// Listen binds addr and returns a proxy to upstream. Call Serve to start
// accepting.
func Listen(addr, upstream string, opts ...Option) (*Proxy, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("chaos: listen %s: %w", addr, err)
	}
	p := &Proxy{
		listener:    ln,
		upstream:    upstream,
		dialTimeout: defaultDialTimeout,
		logger:      zap.NewNop(),
		conns:       make(map[net.Conn]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Addr returns the address clients should connect to.
func (p *Proxy) Addr() string {
	return p.listener.Addr().String()
}

// Serve accepts connections until ctx is cancelled or the listener is
// closed, then severs whatever is still connected.
func (p *Proxy) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { p.listener.Close() })
	defer stop()
	defer func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		p.severAll()
		p.wg.Wait()
	}()

	for {
		conn, err := p.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("chaos: accept: %w", err)
		}
		if p.Down() {
			p.refused.Add(1)
			conn.Close()
			continue
		}
		p.accepted.Add(1)
		p.wg.Add(1)
		go p.handle(conn)
	}
}

func (p *Proxy) handle(client net.Conn) {
	defer p.wg.Done()

	upstream, err := net.DialTimeout("tcp", p.upstream, p.dialTimeout)
	if err != nil {
		p.logger.Debug("upstream dial failed", zap.String("upstream", p.upstream), zap.Error(err))
		client.Close()
		return
	}
	if !p.track(client, upstream) {
		p.refused.Add(1)
		client.Close()
		upstream.Close()
		return
	}
	defer p.untrack(client, upstream)

	done := make(chan struct{}, 2)
	pipe := func(dst, src net.Conn) {
		_, _ = io.Copy(dst, src)
		done <- struct{}{}
	}
	go pipe(upstream, client)
	go pipe(client, upstream)

	<-done
	client.Close()
	upstream.Close()
	<-done
}

// track registers both ends unless the proxy was cut or shut down while
// dialing.
func (p *Proxy) track(conns ...net.Conn) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cut || p.closed {
		return false
	}
	for _, c := range conns {
		p.conns[c] = struct{}{}
	}
	return true
}

func (p *Proxy) untrack(conns ...net.Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range conns {
		delete(p.conns, c)
	}
}

func (p *Proxy) severAll() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.conns)
	for c := range p.conns {
		c.Close()
		delete(p.conns, c)
	}
	return n
}

// Cut starts an outage: live connections are dropped and new ones refused.
func (p *Proxy) Cut() {
	p.mu.Lock()
	if p.cut {
		p.mu.Unlock()
		return
	}
	p.cut = true
	p.mu.Unlock()

	p.cuts.Add(1)
	// Each proxied connection is tracked as a client and an upstream end.
	n := p.severAll() / 2
	p.severed.Add(int64(n))
	p.logger.Info("outage started", zap.Int("severed", n))
}

// Restore ends the outage.
func (p *Proxy) Restore() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.cut {
		return
	}
	p.cut = false
	p.logger.Info("outage ended")
}

// Down reports whether the proxy is currently cut.
func (p *Proxy) Down() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cut
}

// Run toggles the proxy following s until ctx is cancelled, starting with
// an Up period. The proxy is restored on return.
func (p *Proxy) Run(ctx context.Context, s Schedule) error {
	if err := s.validate(); err != nil {
		return err
	}
	defer p.Restore()

	timer := time.NewTimer(s.Up)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			if p.Down() {
				p.Restore()
				timer.Reset(s.Up)
			} else {
				p.Cut()
				timer.Reset(s.Down)
			}
		}
	}
}

// Stats returns a snapshot of the proxy counters.
func (p *Proxy) Stats() Stats {
	return Stats{
		Accepted: p.accepted.Load(),
		Refused:  p.refused.Load(),
		Severed:  p.severed.Load(),
		Cuts:     p.cuts.Load(),
	}
}

// Close stops accepting connections.
func (p *Proxy) Close() error {
	return p.listener.Close()
}
