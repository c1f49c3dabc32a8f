package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

var (
	// ErrEmbeddingUnavailable is returned when a text cannot be embedded.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrGenerationUnavailable is returned when the completion provider fails.
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// errCallerDone marks failures caused by the caller's own context.
	errCallerDone = errors.New("request context done")
)

// StatusError is returned when a provider answers with a non-200 status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status %d: %s", e.Code, e.Body)
}

// BreakerSettings configures the circuit breaker wrapped around provider calls.
type BreakerSettings struct {
	Interval time.Duration // Window after which closed-state counts reset
	Timeout  time.Duration // Time spent open before probing again
}

func newBreaker(name string, s BreakerSettings) *gobreaker.CircuitBreaker {
	if s.Interval == 0 {
		s.Interval = 30 * time.Second
	}
	if s.Timeout == 0 {
		s.Timeout = 30 * time.Second
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		IsSuccessful: providerHealthy,
	})
}

// providerHealthy reports whether err leaves the provider's health untouched.
// Rejected inputs and abandoned requests say nothing about the provider.
func providerHealthy(err error) bool {
	if err == nil || errors.Is(err, errCallerDone) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code < http.StatusInternalServerError && statusErr.Code != http.StatusTooManyRequests
	}
	return false
}

// execute runs fn through cb. A context that is already done never reaches
// the breaker, and failures after the caller gave up are not counted.
func execute[T any](ctx context.Context, cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	result, err := cb.Execute(func() (interface{}, error) {
		out, err := fn()
		if err != nil && ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", errCallerDone, err)
		}
		return out, err
	})
	if err != nil {
		return zero, err
	}
	return result.(T), nil
}

// newHTTPClient returns a client with a per-request timeout.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
