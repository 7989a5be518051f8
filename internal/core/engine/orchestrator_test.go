package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLookupPreservesKeyOrder(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	fn := func(ctx context.Context, key string) (string, error) {
		mu.Lock()
		seen = append(seen, key)
		mu.Unlock()
		if key == "b" {
			time.Sleep(5 * time.Millisecond)
		}
		return "value-" + key, nil
	}

	results := Lookup(context.Background(), &Orchestrator{Concurrency: 3}, []string{"a", " b ", " ", "c"}, fn)
	require.Len(t, results, 3)
	require.Equal(t, "a", results[0].Key)
	require.Equal(t, "value-b", results[1].Value)
	require.Equal(t, "value-c", results[2].Value)
	require.ElementsMatch(t, []string{"a", "b", "c"}, seen)
}

func TestLookupRecordsPerKeyErrors(t *testing.T) {
	missing := errors.New("missing")
	fn := func(ctx context.Context, key string) (int, error) {
		if key == "bad" {
			return 0, missing
		}
		return len(key), nil
	}

	results := Lookup(context.Background(), nil, []string{"good", "bad"}, fn)
	require.NoError(t, results[0].Err)
	require.Equal(t, 4, results[0].Value)
	require.ErrorIs(t, results[1].Err, missing)
}

func TestLookupBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	fn := func(ctx context.Context, key string) (struct{}, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return struct{}{}, nil
	}

	keys := []string{"1", "2", "3", "4", "5", "6", "7", "8"}
	Lookup(context.Background(), &Orchestrator{Concurrency: 2}, keys, fn)
	require.LessOrEqual(t, peak.Load(), int32(2))
}

func TestLookupCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	fn := func(ctx context.Context, key string) (string, error) {
		calls.Add(1)
		return key, ctx.Err()
	}

	results := Lookup(ctx, &Orchestrator{Concurrency: 1}, []string{"a", "b", "c"}, fn)
	require.Len(t, results, 3)
	for _, result := range results {
		require.ErrorIs(t, result.Err, context.Canceled)
	}
}

func TestLookupRecoversPanics(t *testing.T) {
	fn := func(ctx context.Context, key string) (string, error) {
		if key == "boom" {
			panic("kaboom")
		}
		return key, nil
	}

	results := Lookup(context.Background(), nil, []string{"ok", "boom"}, fn)
	require.NoError(t, results[0].Err)
	require.ErrorContains(t, results[1].Err, "panicked")
}
