package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrInvalidLimit reports a non-positive request ceiling or window.
var ErrInvalidLimit = errors.New("rate limit requires positive max requests and window")

// RateLimit represents a sliding rate limit window.
type RateLimit struct {
	RequestsPerWindow int
	WindowDuration    time.Duration
}

// DefaultLimit mirrors the public tarkov.dev guidance of 60 requests per minute.
var DefaultLimit = RateLimit{RequestsPerWindow: 60, WindowDuration: time.Minute}

// Validate reports whether the limit can ever admit a request.
func (l RateLimit) Validate() error {
	if l.RequestsPerWindow <= 0 || l.WindowDuration <= 0 {
		return fmt.Errorf("%w: requests=%d window=%s", ErrInvalidLimit, l.RequestsPerWindow, l.WindowDuration)
	}
	return nil
}

// RateLimiter admits at most Limit.RequestsPerWindow calls in any trailing
// Limit.WindowDuration. A zero or negative limit blocks every caller until its
// context is cancelled; use NewRateLimiter to reject such limits up front.
type RateLimiter struct {
	Limit RateLimit
	Clock func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error

	// OnWait is called with the computed wait before a caller sleeps.
	OnWait func(wait time.Duration)
	// OnAdmit is called under the limiter lock with each recorded admission.
	OnAdmit func(at time.Time)

	mu       sync.Mutex
	history  []time.Time
	admitted int
}

// NewRateLimiter validates the limit and returns a limiter using the wall clock.
func NewRateLimiter(limit RateLimit) (*RateLimiter, error) {
	if err := limit.Validate(); err != nil {
		return nil, err
	}
	return &RateLimiter{Limit: limit}, nil
}

// Acquire blocks until the caller is admitted or ctx is done. Admission order
// between racing waiters is not FIFO: every waiter re-evaluates the window
// after it wakes.
func (r *RateLimiter) Acquire(ctx context.Context) error {
	if r == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		wait, admitted := r.tryAdmit()
		if admitted {
			return nil
		}

		if r.OnWait != nil {
			r.OnWait(wait)
		}
		if err := r.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// tryAdmit prunes, decides and records under the lock. It returns the time the
// caller should wait before trying again when it is not admitted.
func (r *RateLimiter) tryAdmit() (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.pruneLocked(now)

	if len(r.history) < r.Limit.RequestsPerWindow {
		r.history = append(r.history, now)
		r.admitted++
		if r.OnAdmit != nil {
			r.OnAdmit(now)
		}
		return 0, true
	}

	if len(r.history) == 0 {
		// Non-positive ceiling: nothing will ever expire to make room.
		return r.blockedWait(), false
	}

	wait := r.Limit.WindowDuration - now.Sub(r.history[0])
	return wait, false
}

func (r *RateLimiter) pruneLocked(now time.Time) {
	cutoff := now.Add(-r.Limit.WindowDuration)
	idx := 0
	for idx < len(r.history) && !r.history[idx].After(cutoff) {
		idx++
	}
	if idx == 0 {
		return
	}
	r.history = append(r.history[:0], r.history[idx:]...)
}

func (r *RateLimiter) blockedWait() time.Duration {
	if r.Limit.WindowDuration > 0 {
		return r.Limit.WindowDuration
	}
	return time.Second
}

// History returns a copy of the admissions still inside the window, oldest first.
func (r *RateLimiter) History() []time.Time {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]time.Time, len(r.history))
	copy(out, r.history)
	return out
}

// Admitted returns the total number of admissions recorded since creation.
func (r *RateLimiter) Admitted() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.admitted
}

// Snapshot returns the number of admissions in the trailing window and the wait
// a new caller would face right now.
func (r *RateLimiter) Snapshot() (int, time.Duration) {
	if r == nil {
		return 0, 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.pruneLocked(now)
	if len(r.history) < r.Limit.RequestsPerWindow || len(r.history) == 0 {
		return len(r.history), 0
	}
	return len(r.history), r.Limit.WindowDuration - now.Sub(r.history[0])
}

func (r *RateLimiter) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	if r.Sleep != nil {
		return r.Sleep(ctx, d)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (r *RateLimiter) now() time.Time {
	if r != nil && r.Clock != nil {
		return r.Clock()
	}
	// Keep the monotonic reading; UTC() would strip it.
	return time.Now()
}
