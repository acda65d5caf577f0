package retrylimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
		Logger:       zerolog.Nop(),
	}
}

type statusErr int

func (s statusErr) Error() string   { return "http error" }
func (s statusErr) StatusCode() int { return int(s) }

func TestWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	var calls int
	err := WithRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, nil, fastConfig())
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	var calls int
	err := WithRetry(context.Background(), func() error {
		calls++
		return errors.New("always down")
	}, nil, fastConfig())
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "max attempts (3) exceeded")
}

func TestWithRetryStopsOnFatalError(t *testing.T) {
	var calls int
	wrapped := errors.New("bad request")
	err := WithRetry(context.Background(), func() error {
		calls++
		return &FatalError{Err: wrapped}
	}, nil, fastConfig())
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, wrapped)
}

func TestWithRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WithRetry(ctx, func() error { return errors.New("never runs") }, nil, fastConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAdaptiveLimiterAdjusts(t *testing.T) {
	lim := NewAdaptiveLimiter(4, 1, 10, 1, 0.5)
	assert.InDelta(t, 4, lim.CurrentLimit(), 1e-9)

	lim.RateLimited()
	assert.InDelta(t, 2, lim.CurrentLimit(), 1e-9)
	lim.RateLimited()
	lim.RateLimited()
	assert.InDelta(t, 1, lim.CurrentLimit(), 1e-9, "never drops below the floor")

	// Success right after an error keeps the rate down.
	lim.Success()
	assert.InDelta(t, 1, lim.CurrentLimit(), 1e-9)
}

func TestRateLimitedSignalsFromStatusCodes(t *testing.T) {
	lim := NewAdaptiveLimiter(4, 1, 10, 1, 0.5)
	cfg := fastConfig()

	_ = WithRetry(context.Background(), func() error {
		return statusErr(429)
	}, lim, cfg)
	assert.Less(t, lim.CurrentLimit(), 4.0)

	lim = NewAdaptiveLimiter(4, 1, 10, 1, 0.5)
	_ = WithRetry(context.Background(), func() error {
		return statusErr(404)
	}, lim, cfg)
	assert.InDelta(t, 4, lim.CurrentLimit(), 1e-9, "client errors do not throttle")
}
