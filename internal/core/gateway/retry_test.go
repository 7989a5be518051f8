package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type scriptedExecutor struct {
	errs  []error
	calls int
}

func (s *scriptedExecutor) Execute(ctx context.Context, query string, vars map[string]any) (map[string]any, error) {
	idx := s.calls
	s.calls++
	if idx < len(s.errs) && s.errs[idx] != nil {
		return nil, s.errs[idx]
	}
	return map[string]any{"attempt": s.calls}, nil
}

func TestRetryingRecoversFromTransportFailures(t *testing.T) {
	transport := &Error{Kind: KindTransport, Err: errors.New("reset by peer")}
	next := &scriptedExecutor{errs: []error{transport, transport}}

	var delays []time.Duration
	r := &Retrying{
		Next:        next,
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		Sleep: func(ctx context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		},
	}

	data, err := r.Execute(context.Background(), "{ __typename }", nil)
	require.NoError(t, err)
	require.Equal(t, 3, data["attempt"])
	require.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, delays)
}

func TestRetryingDoesNotRetryUpstreamFailures(t *testing.T) {
	upstream := &Error{Kind: KindUpstream, Err: QueryErrors{{Message: "bad field"}}}
	next := &scriptedExecutor{errs: []error{upstream}}
	r := &Retrying{Next: next, MaxAttempts: 5, Sleep: func(context.Context, time.Duration) error { return nil }}

	_, err := r.Execute(context.Background(), "{ __typename }", nil)
	require.ErrorIs(t, err, ErrUpstream)
	require.Equal(t, 1, next.calls)
}

func TestRetryingGivesUpAfterMaxAttempts(t *testing.T) {
	transport := &Error{Kind: KindTransport, Err: errors.New("timeout")}
	next := &scriptedExecutor{errs: []error{transport, transport, transport}}
	r := &Retrying{
		Next:        next,
		MaxAttempts: 2,
		BaseDelay:   time.Second,
		MaxDelay:    time.Second,
		Sleep:       func(context.Context, time.Duration) error { return nil },
	}

	_, err := r.Execute(context.Background(), "{ __typename }", nil)
	require.ErrorIs(t, err, ErrTransport)
	require.Equal(t, 2, next.calls)
}

func TestRetryingDefaultsToSingleAttempt(t *testing.T) {
	transport := &Error{Kind: KindTransport, Err: errors.New("refused")}
	next := &scriptedExecutor{errs: []error{transport}}
	r := &Retrying{Next: next}

	_, err := r.Execute(context.Background(), "{ __typename }", nil)
	require.Error(t, err)
	require.Equal(t, 1, next.calls)
}

func TestRetryingDelayStaysCappedForLargeAttempts(t *testing.T) {
	capped := &Retrying{BaseDelay: 250 * time.Millisecond, MaxDelay: 5 * time.Second}
	require.Equal(t, 250*time.Millisecond, capped.delay(1))
	require.Equal(t, 2*time.Second, capped.delay(4))
	for _, attempt := range []int{6, 37, 64, 200} {
		require.Equal(t, 5*time.Second, capped.delay(attempt), "attempt %d", attempt)
	}

	uncapped := &Retrying{BaseDelay: time.Hour}
	for _, attempt := range []int{40, 64, 200} {
		require.Positive(t, uncapped.delay(attempt), "attempt %d", attempt)
	}
}
