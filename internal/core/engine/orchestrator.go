package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// DefaultConcurrency bounds lookups when Orchestrator.Concurrency is unset.
const DefaultConcurrency = 4

// Orchestrator fans keyed lookups out over a small worker pool. Every lookup
// still passes through the shared RateLimiter, so concurrency only overlaps
// network latency.
type Orchestrator struct {
	Concurrency int
	Clock       func() time.Time
}

// LookupFunc fetches one value by key.
type LookupFunc[T any] func(ctx context.Context, key string) (T, error)

// LookupResult is the outcome of one key. Failures are recorded per key.
type LookupResult[T any] struct {
	Key      string
	Value    T
	Err      error
	Duration time.Duration
}

type lookupJob struct {
	index int
	key   string
}

// Lookup runs fn for every non-blank key and returns results in key order.
// Cancelling ctx stops dispatch; keys never dispatched report ctx.Err().
func Lookup[T any](ctx context.Context, o *Orchestrator, keys []string, fn LookupFunc[T]) []LookupResult[T] {
	if ctx == nil {
		ctx = context.Background()
	}

	trimmed := make([]string, 0, len(keys))
	for _, key := range keys {
		if key = strings.TrimSpace(key); key != "" {
			trimmed = append(trimmed, key)
		}
	}

	results := make([]LookupResult[T], len(trimmed))
	for i, key := range trimmed {
		results[i].Key = key
	}
	if len(trimmed) == 0 {
		return results
	}

	concurrency := o.concurrency()
	if concurrency > len(trimmed) {
		concurrency = len(trimmed)
	}

	jobs := make(chan lookupJob)
	done := make([]bool, len(trimmed))
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for job := range jobs {
			start := o.now()
			value, err := safeLookup(ctx, fn, job.key)
			results[job.index].Value = value
			results[job.index].Err = err
			results[job.index].Duration = o.now().Sub(start)
			done[job.index] = true
		}
	}

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go worker()
	}

sendLoop:
	for i, key := range trimmed {
		select {
		case <-ctx.Done():
			break sendLoop
		case jobs <- lookupJob{index: i, key: key}:
		}
	}
	close(jobs)
	wg.Wait()

	for i := range results {
		if !done[i] {
			results[i].Err = ctx.Err()
		}
	}
	return results
}

// safeLookup reports a panic in fn as that key's error.
func safeLookup[T any](ctx context.Context, fn LookupFunc[T], key string) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lookup %q panicked: %v", key, r)
		}
	}()
	return fn(ctx, key)
}

func (o *Orchestrator) concurrency() int {
	if o == nil || o.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return o.Concurrency
}

func (o *Orchestrator) now() time.Time {
	if o != nil && o.Clock != nil {
		return o.Clock()
	}
	return time.Now().UTC()
}
