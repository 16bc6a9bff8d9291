package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/abelbrown/cycleglobe/internal/logging"
	"github.com/abelbrown/cycleglobe/internal/metrics"
)

// ErrSourceOpen is returned without a request while a source's breaker is open.
var ErrSourceOpen = errors.New("source circuit open")

// Breaker defaults: trip after this many consecutive failures, stay open for
// breakerOpenFor, then let one trial request through.
const (
	DefaultBreakerFailures = 5
	DefaultBreakerOpenFor  = 30 * time.Second
)

// EnableBreakers turns on a circuit breaker per source. failures is the run of
// consecutive failures that opens it; openFor is how long it stays open.
// Call before the first Fetch.
func (f *Fetcher) EnableBreakers(failures uint32, openFor time.Duration) *Fetcher {
	if failures == 0 {
		failures = DefaultBreakerFailures
	}
	if openFor <= 0 {
		openFor = DefaultBreakerOpenFor
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.breakerFailures = failures
	f.breakerOpenFor = openFor
	f.breakers = make(map[string]*gobreaker.CircuitBreaker)
	return f
}

// breaker returns the source's breaker, or nil when breakers are off.
func (f *Fetcher) breaker(name string) *gobreaker.CircuitBreaker {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.breakers == nil {
		return nil
	}
	cb, ok := f.breakers[name]
	if !ok {
		threshold := f.breakerFailures
		cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     f.breakerOpenFor,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			// A caller giving up says nothing about the source.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Warn("Source breaker state changed", "source", name, "from", from.String(), "to", to.String())
				metrics.SourceBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			},
		})
		f.breakers[name] = cb
	}
	return cb
}

// BreakerState reports a source's breaker state; "closed" when breakers are off.
func (f *Fetcher) BreakerState(name string) string {
	f.mu.Lock()
	cb := f.breakers[name]
	f.mu.Unlock()
	if cb == nil {
		return gobreaker.StateClosed.String()
	}
	return cb.State().String()
}

// guard runs fn through the source's breaker when one is enabled.
func (f *Fetcher) guard(name string, fn func() error) error {
	cb := f.breaker(name)
	if cb == nil {
		return fn()
	}
	_, err := cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s", ErrSourceOpen, name)
	}
	return err
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
