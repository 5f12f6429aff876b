// Package resilience wraps outbound calls with circuit breakers and retries the
// initial connection to the chat platform with exponential backoff.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/sony/gobreaker"
)

var (
	// ErrCircuitOpen indicates the circuit breaker is open.
	ErrCircuitOpen = gobreaker.ErrOpenState
	// ErrTimeout indicates an operation timed out.
	ErrTimeout = errors.New("operation timed out")
)

// CircuitState represents the state of a circuit breaker.
type CircuitState int

// Circuit breaker states.
const (
	StateClosed CircuitState = iota
	StateHalfOpen
	StateOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateHalfOpen:
		return "HALF-OPEN"
	case StateOpen:
		return "OPEN"
	default:
		return "UNKNOWN"
	}
}

func mapState(state gobreaker.State) CircuitState {
	switch state {
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	case gobreaker.StateOpen:
		return StateOpen
	default:
		return StateClosed
	}
}

// CircuitBreakerConfig holds configuration for circuit breakers.
type CircuitBreakerConfig struct {
	Name string
	// MaxFailures is the number of consecutive failures that open the circuit.
	MaxFailures uint32
	// Timeout bounds one operation when the caller's context has no deadline.
	Timeout time.Duration
	// OpenTimeout is how long the circuit stays open before probing again.
	OpenTimeout time.Duration
	Logger      *slog.Logger
}

// CircuitBreaker runs operations through a gobreaker circuit breaker.
type CircuitBreaker struct {
	name    string
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker
}

// NewCircuitBreaker creates a circuit breaker, filling unset values with defaults.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = time.Minute
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				"name", name,
				"from", mapState(from),
				"to", mapState(to))
		},
	}

	return &CircuitBreaker{
		name:    cfg.Name,
		timeout: cfg.Timeout,
		cb:      gobreaker.NewCircuitBreaker(settings),
	}
}

// Name returns the breaker's name.
func (cb *CircuitBreaker) Name() string { return cb.name }

// State returns the breaker's current state.
func (cb *CircuitBreaker) State() CircuitState { return mapState(cb.cb.State()) }

// Execute runs operation through the circuit breaker. An open circuit fails
// fast with ErrCircuitOpen.
func (cb *CircuitBreaker) Execute(ctx context.Context, operation func(context.Context) error) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cb.timeout)
		defer cancel()
	}

	_, err := cb.cb.Execute(func() (interface{}, error) {
		if err := operation(ctx); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
			}
			return nil, err
		}
		return nil, nil
	})
	return err
}

// RetryConfig controls Retry.
type RetryConfig struct {
	Attempts uint
	Delay    time.Duration
	MaxDelay time.Duration
	Logger   *slog.Logger
}

// Retry runs operation until it succeeds, the attempts are used up or ctx is
// done, backing off exponentially between attempts. Only the last error is
// returned.
func Retry(ctx context.Context, name string, cfg RetryConfig, operation func(context.Context) error) error {
	if cfg.Attempts == 0 {
		cfg.Attempts = 3
	}
	if cfg.Delay <= 0 {
		cfg.Delay = time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return retry.Do(
		func() error { return operation(ctx) },
		retry.Context(ctx),
		retry.Attempts(cfg.Attempts),
		retry.Delay(cfg.Delay),
		retry.MaxDelay(cfg.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, ErrCircuitOpen) && !errors.Is(err, context.Canceled)
		}),
		retry.OnRetry(func(n uint, err error) {
			log.WarnContext(ctx, "Operation failed, retrying",
				"operation", name,
				"attempt", n+1,
				"max_attempts", cfg.Attempts,
				"error", err)
		}),
	)
}
