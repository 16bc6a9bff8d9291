// Package coord runs the background cycle poll for headless mode.
package coord

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/abelbrown/cycleglobe/internal/cycle"
	"github.com/abelbrown/cycleglobe/internal/metrics"
	"github.com/abelbrown/cycleglobe/internal/otel"
	"github.com/abelbrown/cycleglobe/internal/resolve"
)

// DefaultInterval is the time between polls.
const DefaultInterval = time.Second

// DefaultPollTimeout bounds one shared resolve when WithPollTimeout is unset.
const DefaultPollTimeout = 30 * time.Second

// resolver interface for dependency injection (testing).
type resolver interface {
	ResolveReport(ctx context.Context) resolve.Report
}

// Coordinator polls the resolver on a fixed interval and keeps the latest
// report. Uses context cancellation as the ONLY stop mechanism.
//
// A tick that lands while a poll is still running is skipped, not queued.
// Poll callers that arrive mid-poll share its result. The shared resolve
// runs on the coordinator's context, so a caller that leaves early cannot
// cut it short for the others.
type Coordinator struct {
	resolver    resolver
	interval    time.Duration
	pollTimeout time.Duration
	clock    clockwork.Clock
	logger   *otel.Logger
	onUpdate func(resolve.Report) // IMMUTABLE: optional, set at construction

	group   singleflight.Group
	running atomic.Bool
	skipped atomic.Uint64

	mu     sync.RWMutex
	base   context.Context // Start's context; Background before Start
	latest resolve.Report
	have   bool

	wg sync.WaitGroup
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock replaces the wall clock (tests use a fake).
func WithClock(c clockwork.Clock) Option {
	return func(co *Coordinator) { co.clock = c }
}

// WithLogger sets the event logger.
func WithLogger(l *otel.Logger) Option {
	return func(co *Coordinator) { co.logger = l }
}

// WithPollTimeout bounds one resolve. Size it to cover every source's
// timeout in turn.
func WithPollTimeout(d time.Duration) Option {
	return func(co *Coordinator) { co.pollTimeout = d }
}

// OnUpdate registers a callback run after every finished poll, from the
// polling goroutine.
func OnUpdate(fn func(resolve.Report)) Option {
	return func(co *Coordinator) { co.onUpdate = fn }
}

// NewCoordinator creates a Coordinator. interval <= 0 means DefaultInterval.
func NewCoordinator(r resolver, interval time.Duration, opts ...Option) *Coordinator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	c := &Coordinator{
		resolver:    r,
		interval:    interval,
		pollTimeout: DefaultPollTimeout,
		clock:       clockwork.NewRealClock(),
		base:        context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.pollTimeout <= 0 {
		c.pollTimeout = DefaultPollTimeout
	}
	if c.logger == nil {
		c.logger = otel.NewNullLogger()
	}
	return c
}

// Start begins background polling. Call with a cancellable context.
// Polls immediately, then every interval.
func (c *Coordinator) Start(ctx context.Context) {
	c.mu.Lock()
	c.base = ctx
	c.mu.Unlock()

	ticker := c.clock.NewTicker(c.interval)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer ticker.Stop()

		c.tick(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				c.tick(ctx)
			}
		}
	}()
}

// Wait blocks until the background goroutines exit.
// Call after canceling the context passed to Start.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// tick starts a poll in the background unless one is already running.
func (c *Coordinator) tick(ctx context.Context) {
	if !c.running.CompareAndSwap(false, true) {
		c.skipped.Add(1)
		metrics.PollsSkippedTotal.Inc()
		c.logger.Emit(otel.Event{
			Level: otel.LevelDebug,
			Kind:  otel.KindPollSkipped,
			Comp:  "coord",
			Msg:   "previous poll still running",
		})
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.running.Store(false)
		c.Poll(ctx)
	}()
}

// Poll resolves now. Concurrent callers share one resolve. A caller whose
// ctx ends first stops waiting and gets the last report (or the local
// calculation before any); the resolve itself carries on for the rest.
func (c *Coordinator) Poll(ctx context.Context) resolve.Report {
	ch := c.group.DoChan("resolve", func() (interface{}, error) {
		base := c.baseContext()
		runCtx, cancel := context.WithTimeout(base, c.pollTimeout)
		defer cancel()

		rep := c.resolver.ResolveReport(runCtx)
		if base.Err() != nil {
			// Shutting down: a cut-short poll is not news.
			return rep, nil
		}

		c.mu.Lock()
		c.latest = rep
		c.have = true
		c.mu.Unlock()

		if c.onUpdate != nil {
			c.onUpdate(rep)
		}
		return rep, nil
	})

	select {
	case res := <-ch:
		return res.Val.(resolve.Report)
	case <-ctx.Done():
		if rep, ok := c.Latest(); ok {
			return rep
		}
		now := c.clock.Now()
		return resolve.Report{State: cycle.Local(now), At: now, FellBack: true}
	}
}

func (c *Coordinator) baseContext() context.Context {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.base
}

// Latest returns the most recent report and whether there has been one.
func (c *Coordinator) Latest() (resolve.Report, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest, c.have
}

// Skipped returns how many ticks were dropped because a poll was running.
func (c *Coordinator) Skipped() uint64 {
	return c.skipped.Load()
}

// Interval returns the poll interval.
func (c *Coordinator) Interval() time.Duration {
	return c.interval
}
