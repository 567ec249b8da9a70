// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package northpass

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Profile selects which outbound throttle a request runs under. The
// properties sub-API tolerates far less traffic than the rest of the API, so
// it gets its own independent counters.
type Profile string

const (
	ProfileStandard   Profile = "standard"
	ProfileProperties Profile = "properties"
)

// LimiterConfig caps requests per window and enforces a minimum spacing
// between consecutive dispatches. The two constraints are independent: a
// burst allowance left in the window still waits out MinDelay.
type LimiterConfig struct {
	Requests int
	Window   time.Duration
	MinDelay time.Duration
}

func (c *LimiterConfig) applyDefaults(defaults LimiterConfig) {
	if c.Requests <= 0 {
		c.Requests = defaults.Requests
	}
	if c.Window <= 0 {
		c.Window = defaults.Window
	}
	if c.MinDelay <= 0 {
		c.MinDelay = defaults.MinDelay
	}
}

// Limiter is one throttle profile. Waiters are released in FIFO arrival
// order: the token bucket hands out reservations in request order, and the
// spacing slot assignment below is serialized under the mutex.
type Limiter struct {
	bucket   *rate.Limiter
	minDelay time.Duration

	lock sync.Mutex
	last time.Time

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewLimiter builds a profile limiter from config.
func NewLimiter(config LimiterConfig) *Limiter {
	return &Limiter{
		bucket:   rate.NewLimiter(rate.Limit(float64(config.Requests)/config.Window.Seconds()), config.Requests),
		minDelay: config.MinDelay,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Wait blocks until the caller may dispatch. It returns early only when ctx
// is done. The returned duration is the total time spent waiting.
func (l *Limiter) Wait(ctx context.Context) (time.Duration, error) {
	start := l.now()
	if err := l.bucket.Wait(ctx); err != nil {
		return l.now().Sub(start), err
	}

	// claim the next spacing slot; claims are handed out FIFO because the
	// bucket released us in arrival order
	l.lock.Lock()
	now := l.now()
	slot := l.last.Add(l.minDelay)
	if slot.Before(now) {
		slot = now
	}
	l.last = slot
	l.lock.Unlock()

	if d := slot.Sub(now); d > 0 {
		if err := l.sleep(ctx, d); err != nil {
			return l.now().Sub(start), err
		}
	}
	return l.now().Sub(start), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
