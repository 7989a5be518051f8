package gateway

import (
	"context"
	"errors"
	"math"
	"time"
)

// Executor runs one GraphQL document.
type Executor interface {
	Execute(ctx context.Context, query string, vars map[string]any) (map[string]any, error)
}

// Retrying retries transport failures with exponential backoff. Upstream
// failures and NotInitialized are returned immediately. Every attempt goes
// through Next, so every attempt consumes its own rate-limit slot.
type Retrying struct {
	Next        Executor
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Sleep       func(ctx context.Context, d time.Duration) error
}

// Execute implements Executor.
func (r *Retrying) Execute(ctx context.Context, query string, vars map[string]any) (map[string]any, error) {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		data, err := r.Next.Execute(ctx, query, vars)
		if err == nil {
			return data, nil
		}
		lastErr = err

		if !errors.Is(err, ErrTransport) || attempt == attempts {
			break
		}
		if err := r.sleep(ctx, r.delay(attempt)); err != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

func (r *Retrying) delay(attempt int) time.Duration {
	base := r.BaseDelay
	if base <= 0 {
		base = 250 * time.Millisecond
	}
	ceiling := r.MaxDelay
	if ceiling <= 0 {
		ceiling = time.Duration(math.MaxInt64)
	}

	d := base
	for i := 1; i < attempt && d < ceiling; i++ {
		if d > ceiling/2 {
			d = ceiling
			break
		}
		d *= 2
	}
	if d > ceiling {
		d = ceiling
	}
	return d
}

func (r *Retrying) sleep(ctx context.Context, d time.Duration) error {
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
