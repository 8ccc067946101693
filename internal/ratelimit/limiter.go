// Package ratelimit paces the operations issued by a single driver.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter suspends a driver for a full 1/rate after each successful
// operation, however long the operation itself took. Each driver owns its
// own limiter so a sleeping driver never delays another one.
// A nil or unbounded limiter never waits.
type RateLimiter struct {
	limit rate.Limit
}

// NewRateLimiter creates a limiter for opsPerSecond operations per second.
// Zero or negative means unbounded.
func NewRateLimiter(opsPerSecond float64) *RateLimiter {
	limit := rate.Inf
	if opsPerSecond > 0 {
		limit = rate.Limit(opsPerSecond)
	}
	return &RateLimiter{limit: limit}
}

// Pause blocks for Interval or until ctx is done.
func (r *RateLimiter) Pause(ctx context.Context) error {
	if r == nil || r.limit == rate.Inf {
		return nil
	}
	// A fresh bucket holds exactly one token. Taking it first leaves Wait
	// to cover the whole interval, with no credit saved from slow
	// operations or outages.
	bucket := rate.NewLimiter(r.limit, 1)
	bucket.Allow()
	return bucket.Wait(ctx)
}

// Interval returns the pause after each success, zero when unbounded.
func (r *RateLimiter) Interval() time.Duration {
	if r == nil || r.limit == rate.Inf || r.limit <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / float64(r.limit))
}
