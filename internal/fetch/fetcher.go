// Package fetch retrieves day/night cycle readings from remote game-state APIs.
//
// Each Source pairs an endpoint with a Parser that understands its JSON shape.
// The Fetcher only talks to one source at a time; choosing between sources and
// falling back is the resolver's job.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/abelbrown/cycleglobe/internal/cycle"
)

// maxBodySize caps how much of a response is read. The official world state
// document is a few hundred KB.
const maxBodySize = 4 << 20

// ErrEmptyBody is returned when a source answers 2xx with nothing in it.
var ErrEmptyBody = errors.New("empty response body")

// StatusError reports a non-success HTTP status.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s", e.Code, e.Status)
}

// Fetcher retrieves cycle readings from sources.
// Safe for concurrent use.
type Fetcher struct {
	client      *http.Client
	minInterval time.Duration

	mu              sync.Mutex
	limiters        map[string]*rate.Limiter // keyed by source name
	breakers        map[string]*gobreaker.CircuitBreaker
	breakerFailures uint32
	breakerOpenFor  time.Duration
}

// NewFetcher creates a Fetcher. timeout bounds each request; minInterval is
// the shortest gap allowed between two requests to the same source (0 disables
// throttling).
func NewFetcher(timeout, minInterval time.Duration) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		minInterval: minInterval,
		limiters:    make(map[string]*rate.Limiter),
	}
}

// limiter returns the per-source limiter, creating it on first use.
func (f *Fetcher) limiter(name string) *rate.Limiter {
	if f.minInterval <= 0 {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.limiters[name]
	if !ok {
		l = rate.NewLimiter(rate.Every(f.minInterval), 1)
		f.limiters[name] = l
	}
	return l
}

// Fetch asks src for the current cycle. The returned state carries src.Name as
// its Source. Any network error, non-2xx status, empty body or parse failure
// is returned as an error; nothing is cached. With breakers enabled, a source
// that keeps failing is skipped with ErrSourceOpen until its breaker half-opens.
func (f *Fetcher) Fetch(ctx context.Context, src Source, now time.Time) (cycle.State, error) {
	if ctx.Err() != nil {
		return cycle.State{}, ctx.Err()
	}
	if src.Parser == nil {
		return cycle.State{}, fmt.Errorf("source %q has no parser", src.Name)
	}

	// Waiting on the limiter is our own pacing, not a source failure, so it
	// stays outside the breaker.
	if l := f.limiter(src.Name); l != nil {
		if err := l.Wait(ctx); err != nil {
			return cycle.State{}, fmt.Errorf("rate limit: %w", err)
		}
	}

	var state cycle.State
	err := f.guard(src.Name, func() error {
		var err error
		state, err = f.fetch(ctx, src, now)
		return err
	})
	if err != nil {
		return cycle.State{}, err
	}
	return state, nil
}

func (f *Fetcher) fetch(ctx context.Context, src Source, now time.Time) (cycle.State, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return cycle.State{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "cycleglobe/0.3 (https://github.com/abelbrown/cycleglobe)")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache, no-store")
	req.Header.Set("Pragma", "no-cache")

	resp, err := f.client.Do(req)
	if err != nil {
		return cycle.State{}, fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return cycle.State{}, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return cycle.State{}, fmt.Errorf("failed to read body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return cycle.State{}, ErrEmptyBody
	}

	state, err := src.Parser(body, now)
	if err != nil {
		return cycle.State{}, fmt.Errorf("failed to parse %s: %w", src.Name, err)
	}
	state.Source = src.Name
	return state, nil
}
