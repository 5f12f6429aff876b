package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/dayplanbot/internal/resilience"
)

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	t.Parallel()
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:        "test",
		MaxFailures: 2,
		OpenTimeout: time.Hour,
	})
	boom := errors.New("boom")
	calls := 0
	fail := func(context.Context) error {
		calls++
		return boom
	}

	assert.ErrorIs(t, cb.Execute(context.Background(), fail), boom)
	assert.ErrorIs(t, cb.Execute(context.Background(), fail), boom)
	assert.Equal(t, resilience.StateOpen, cb.State())

	err := cb.Execute(context.Background(), fail)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, 2, calls, "open circuit does not call the operation")
}

func TestCircuitBreakerTimeout(t *testing.T) {
	t.Parallel()
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:    "slow",
		Timeout: 10 * time.Millisecond,
	})

	err := cb.Execute(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, resilience.ErrTimeout)
}

func TestRetry(t *testing.T) {
	t.Parallel()

	t.Run("succeeds after failures", func(t *testing.T) {
		t.Parallel()
		attempts := 0
		err := resilience.Retry(context.Background(), "connect", resilience.RetryConfig{
			Attempts: 3,
			Delay:    time.Millisecond,
		}, func(context.Context) error {
			attempts++
			if attempts < 3 {
				return errors.New("not yet")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("returns last error", func(t *testing.T) {
		t.Parallel()
		attempts := 0
		err := resilience.Retry(context.Background(), "connect", resilience.RetryConfig{
			Attempts: 2,
			Delay:    time.Millisecond,
		}, func(context.Context) error {
			attempts++
			return errors.New("down")
		})
		require.EqualError(t, err, "down")
		assert.Equal(t, 2, attempts)
	})

	t.Run("open circuit is not retried", func(t *testing.T) {
		t.Parallel()
		attempts := 0
		err := resilience.Retry(context.Background(), "connect", resilience.RetryConfig{
			Attempts: 5,
			Delay:    time.Millisecond,
		}, func(context.Context) error {
			attempts++
			return resilience.ErrCircuitOpen
		})
		require.ErrorIs(t, err, resilience.ErrCircuitOpen)
		assert.Equal(t, 1, attempts)
	})
}
