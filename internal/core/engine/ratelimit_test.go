package engine

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeClock advances only when a waiter sleeps.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
	return nil
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func requireWindowBound(t *testing.T, admissions []time.Time, limit RateLimit) {
	t.Helper()

	sorted := append([]time.Time(nil), admissions...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	for i, start := range sorted {
		end := start.Add(limit.WindowDuration)
		count := 0
		for _, ts := range sorted[i:] {
			if !ts.Before(end) {
				break
			}
			count++
		}
		require.LessOrEqualf(t, count, limit.RequestsPerWindow, "window starting at %s admitted %d", start, count)
	}
}

func TestNewRateLimiterRejectsNonPositiveLimits(t *testing.T) {
	_, err := NewRateLimiter(RateLimit{RequestsPerWindow: 0, WindowDuration: time.Second})
	require.ErrorIs(t, err, ErrInvalidLimit)

	_, err = NewRateLimiter(RateLimit{RequestsPerWindow: 5, WindowDuration: 0})
	require.ErrorIs(t, err, ErrInvalidLimit)

	limiter, err := NewRateLimiter(DefaultLimit)
	require.NoError(t, err)
	require.Equal(t, 60, limiter.Limit.RequestsPerWindow)
}

func TestRateLimiterAdmitsUnderBudgetWithoutSleeping(t *testing.T) {
	clock := newFakeClock()
	limiter := &RateLimiter{
		Limit: RateLimit{RequestsPerWindow: 3, WindowDuration: time.Minute},
		Clock: clock.Now,
		Sleep: func(ctx context.Context, d time.Duration) error {
			t.Fatalf("unexpected sleep for %s", d)
			return nil
		},
	}

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Acquire(context.Background()))
	}
	require.Len(t, limiter.History(), 3)
}

func TestRateLimiterWaitsForOldestToExpire(t *testing.T) {
	clock := newFakeClock()
	var waits []time.Duration
	limiter := &RateLimiter{
		Limit:  RateLimit{RequestsPerWindow: 2, WindowDuration: time.Minute},
		Clock:  clock.Now,
		Sleep:  clock.Sleep,
		OnWait: func(wait time.Duration) { waits = append(waits, wait) },
	}

	start := clock.Now()
	require.NoError(t, limiter.Acquire(context.Background()))
	clock.Advance(10 * time.Second)
	require.NoError(t, limiter.Acquire(context.Background()))
	clock.Advance(5 * time.Second)

	require.NoError(t, limiter.Acquire(context.Background()))
	require.Equal(t, []time.Duration{45 * time.Second}, waits)

	history := limiter.History()
	require.Len(t, history, 2)
	require.Equal(t, start.Add(10*time.Second), history[0])
	require.Equal(t, start.Add(time.Minute), history[1])
	require.Equal(t, 3, limiter.Admitted())
}

func TestRateLimiterSequentialRealClock(t *testing.T) {
	limiter, err := NewRateLimiter(RateLimit{RequestsPerWindow: 2, WindowDuration: 100 * time.Millisecond})
	require.NoError(t, err)

	var admissions []time.Time
	limiter.OnAdmit = func(at time.Time) { admissions = append(admissions, at) }

	start := time.Now()
	ctx := context.Background()
	require.NoError(t, limiter.Acquire(ctx))
	require.NoError(t, limiter.Acquire(ctx))
	require.Less(t, time.Since(start), 50*time.Millisecond)

	require.NoError(t, limiter.Acquire(ctx))
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	require.Len(t, admissions, 3)
	require.Less(t, admissions[1].Sub(start), 50*time.Millisecond)
	require.GreaterOrEqual(t, admissions[2].Sub(start), 50*time.Millisecond)
	require.Equal(t, 3, limiter.Admitted())
}

func TestRateLimiterConcurrentAcquires(t *testing.T) {
	clock := newFakeClock()
	limit := RateLimit{RequestsPerWindow: 5, WindowDuration: time.Second}

	var (
		mu         sync.Mutex
		admissions []time.Time
	)
	limiter := &RateLimiter{
		Limit: limit,
		Clock: clock.Now,
		Sleep: clock.Sleep,
		OnAdmit: func(at time.Time) {
			mu.Lock()
			admissions = append(admissions, at)
			mu.Unlock()
		},
	}

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- limiter.Acquire(context.Background())
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	require.Equal(t, 50, limiter.Admitted())
	require.Len(t, admissions, 50)
	requireWindowBound(t, admissions, limit)
	require.LessOrEqual(t, len(limiter.History()), limit.RequestsPerWindow)
}

func TestRateLimiterHistoryStaysOrdered(t *testing.T) {
	clock := newFakeClock()
	limiter := &RateLimiter{
		Limit: RateLimit{RequestsPerWindow: 4, WindowDuration: time.Second},
		Clock: clock.Now,
		Sleep: clock.Sleep,
	}

	for i := 0; i < 12; i++ {
		require.NoError(t, limiter.Acquire(context.Background()))
		clock.Advance(150 * time.Millisecond)
	}

	history := limiter.History()
	require.NotEmpty(t, history)
	last := history[len(history)-1]
	for i := range history {
		require.True(t, history[i].After(last.Add(-time.Second)))
		if i > 0 {
			require.False(t, history[i].Before(history[i-1]))
		}
	}
}

func TestRateLimiterCancelledWaiterRecordsNothing(t *testing.T) {
	limiter := &RateLimiter{
		Limit: RateLimit{RequestsPerWindow: 1, WindowDuration: time.Hour},
	}
	require.NoError(t, limiter.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := limiter.Acquire(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Len(t, limiter.History(), 1)
	require.Equal(t, 1, limiter.Admitted())
}

func TestRateLimiterZeroCeilingBlocksUntilCancelled(t *testing.T) {
	limiter := &RateLimiter{Limit: RateLimit{RequestsPerWindow: 0, WindowDuration: 10 * time.Millisecond}}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	require.ErrorIs(t, limiter.Acquire(ctx), context.DeadlineExceeded)
	require.Empty(t, limiter.History())
}

func TestRateLimiterSnapshot(t *testing.T) {
	clock := newFakeClock()
	limiter := &RateLimiter{
		Limit: RateLimit{RequestsPerWindow: 1, WindowDuration: time.Minute},
		Clock: clock.Now,
	}

	count, wait := limiter.Snapshot()
	require.Equal(t, 0, count)
	require.Zero(t, wait)

	require.NoError(t, limiter.Acquire(context.Background()))
	clock.Advance(20 * time.Second)

	count, wait = limiter.Snapshot()
	require.Equal(t, 1, count)
	require.Equal(t, 40*time.Second, wait)
}

func TestNilRateLimiterAdmits(t *testing.T) {
	var limiter *RateLimiter
	require.NoError(t, limiter.Acquire(context.Background()))
	require.Nil(t, limiter.History())
}
