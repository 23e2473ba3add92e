package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"characterai/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
)

var errBoom = errors.New("boom")

func newTestBreaker(now *time.Time) *CircuitBreaker {
	cb := NewCircuitBreaker(Config{
		Name:             "test",
		FailureThreshold: 2,
		SuccessThreshold: 1,
		RetryTimeout:     time.Minute,
	}, logger.Discard())
	cb.now = func() time.Time { return *now }
	return cb
}

func fail(context.Context) error    { return errBoom }
func succeed(context.Context) error { return nil }

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	now := time.Now()
	cb := newTestBreaker(&now)
	ctx := context.Background()

	assert.ErrorIs(t, cb.Execute(ctx, fail), errBoom)
	assert.Equal(t, StateClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(ctx, fail), errBoom)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(ctx, func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
	assert.EqualValues(t, 1, cb.Stats().Rejected)
}

func TestCircuitBreakerRecoversThroughHalfOpen(t *testing.T) {
	now := time.Now()
	cb := newTestBreaker(&now)
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	_ = cb.Execute(ctx, fail)
	assert.Equal(t, StateOpen, cb.State())

	now = now.Add(2 * time.Minute)
	assert.NoError(t, cb.Execute(ctx, succeed))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	cb := newTestBreaker(&now)
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	_ = cb.Execute(ctx, fail)

	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, cb.Execute(ctx, fail), errBoom)
	assert.Equal(t, StateOpen, cb.State())
	assert.EqualValues(t, 2, cb.Stats().OpenCount)
}

func TestCircuitBreakerIgnoresCancellation(t *testing.T) {
	now := time.Now()
	cb := newTestBreaker(&now)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 5; i++ {
		_ = cb.Execute(ctx, func(ctx context.Context) error { return ctx.Err() })
	}
	assert.Equal(t, StateClosed, cb.State())
}
