package retry

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"slices"
	"time"

	crawlerrors "sjsage522/estateworker/pkg/errors"
)

// Policy defines retry behavior with exponential backoff
type Policy struct {
	MaxAttempts          int           // total attempts including the first
	InitialBackoff       time.Duration // wait before the second attempt
	MaxBackoff           time.Duration // cap for a single wait
	Multiplier           float64       // growth per attempt
	RetryableStatusCodes []int
}

// DefaultPolicy returns three attempts with 1s, 2s backoff on transient statuses
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
		RetryableStatusCodes: []int{
			http.StatusTooManyRequests,     // 429
			http.StatusInternalServerError, // 500
			http.StatusBadGateway,          // 502
			http.StatusServiceUnavailable,  // 503
			http.StatusGatewayTimeout,      // 504
		},
	}
}

// Backoff returns the wait before attempt number attempt+1 (attempt is zero based)
func (p Policy) Backoff(attempt int) time.Duration {
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	backoff := float64(p.InitialBackoff) * math.Pow(mult, float64(attempt))
	if p.MaxBackoff > 0 && backoff > float64(p.MaxBackoff) {
		backoff = float64(p.MaxBackoff)
	}
	return time.Duration(backoff)
}

// ShouldRetry reports whether err is worth another attempt under this policy
func (p Policy) ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if code := crawlerrors.StatusCode(err); code != 0 {
		return slices.Contains(p.RetryableStatusCodes, code)
	}
	return crawlerrors.IsType(err, crawlerrors.ErrorTypeTransport)
}

// Hook is called before each backoff wait
type Hook func(attempt int, wait time.Duration, err error)

// Do runs fn until it succeeds, returns a non-retryable error, or attempts run out.
// The last error is returned wrapped with the attempt count.
func Do(ctx context.Context, p Policy, hook Hook, fn func(attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if !p.ShouldRetry(err) {
			return err
		}
		if attempt == attempts-1 {
			break
		}

		wait := p.Backoff(attempt)
		if hook != nil {
			hook(attempt+1, wait, err)
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	return fmt.Errorf("gave up after %d attempts: %w", attempts, lastErr)
}
