package pacing

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Interval is a randomized gap between two paced operations
type Interval struct {
	Min time.Duration
	Max time.Duration
}

// Fixed returns an interval with no jitter
func Fixed(d time.Duration) Interval {
	return Interval{Min: d, Max: d}
}

// Pacer keeps an idle gap between consecutive operations. Wait blocks until
// Min plus a random jitter of at most Max-Min has passed since the previous
// operation called Done. The first Wait returns immediately.
//
// Each Done arms a fresh single-token limiter whose token is spent at the
// completion time, so the next token is available exactly one gap later.
type Pacer struct {
	iv Interval

	mu      sync.Mutex
	limiter *rate.Limiter
	calls   int
}

// New creates a pacer for the given interval
func New(iv Interval) *Pacer {
	if iv.Min < 0 {
		iv.Min = 0
	}
	if iv.Max < iv.Min {
		iv.Max = iv.Min
	}
	return &Pacer{
		iv:      iv,
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
}

// Wait blocks until the next operation may start or ctx is done
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	p.calls++
	limiter := p.limiter
	p.mu.Unlock()

	return limiter.Wait(ctx)
}

// Done marks the end of the operation started after the last Wait. The gap
// before the next operation is measured from this moment.
func (p *Pacer) Done() {
	gap := p.gap()
	if gap <= 0 {
		return
	}

	now := time.Now()
	limiter := rate.NewLimiter(rate.Every(gap), 1)
	limiter.AllowN(now, 1)

	p.mu.Lock()
	p.limiter = limiter
	p.mu.Unlock()
}

func (p *Pacer) gap() time.Duration {
	jitter := p.iv.Max - p.iv.Min
	if jitter <= 0 {
		return p.iv.Min
	}
	return p.iv.Min + time.Duration(rand.Int63n(int64(jitter+1)))
}

// Calls returns how many times Wait has been called
func (p *Pacer) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Sleep waits for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
