// Package resolve picks the current day/night cycle from an ordered list of
// sources, falling back to the local calculation when every source fails.
package resolve

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/abelbrown/cycleglobe/internal/cycle"
	"github.com/abelbrown/cycleglobe/internal/fetch"
	"github.com/abelbrown/cycleglobe/internal/logging"
	"github.com/abelbrown/cycleglobe/internal/metrics"
	"github.com/abelbrown/cycleglobe/internal/otel"
	"github.com/abelbrown/cycleglobe/internal/store"
)

// pruneEvery is how many polls pass between ledger trims.
const pruneEvery = 100

// fetcher interface for dependency injection (testing).
type fetcher interface {
	Fetch(ctx context.Context, src fetch.Source, now time.Time) (cycle.State, error)
}

// ledger records attempts. *store.Store satisfies it.
type ledger interface {
	RecordAttempt(a store.Attempt) error
	Prune(keep int) (int, error)
}

// Attempt is the outcome of asking one source during a poll.
type Attempt struct {
	Source string
	Err    error
	Dur    time.Duration
}

// Report describes one poll.
type Report struct {
	PollID   string
	State    cycle.State
	At       time.Time
	Attempts []Attempt
	FellBack bool
	Dur      time.Duration
}

// Resolver resolves the cycle. Safe for concurrent use; sources are fixed at
// construction.
type Resolver struct {
	fetcher       fetcher
	sources       []fetch.Source // IMMUTABLE
	sourceTimeout time.Duration  // 0 = only the caller's deadline
	now           func() time.Time
	logger        *otel.Logger
	ledger        ledger // optional
	ledgerRows    int
	polls         atomic.Uint64
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSourceTimeout bounds each source request.
func WithSourceTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.sourceTimeout = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithLogger sets the event logger.
func WithLogger(l *otel.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithLedger records every attempt, trimming the ledger to rows entries.
func WithLedger(l ledger, rows int) Option {
	return func(r *Resolver) {
		r.ledger = l
		r.ledgerRows = rows
	}
}

// New creates a Resolver over sources in priority order.
func New(f fetcher, sources []fetch.Source, opts ...Option) *Resolver {
	sourcesCopy := make([]fetch.Source, len(sources))
	copy(sourcesCopy, sources)

	r := &Resolver{
		fetcher: f,
		sources: sourcesCopy,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = otel.NewNullLogger()
	}
	return r
}

// Sources returns the source names in priority order.
func (r *Resolver) Sources() []string {
	names := make([]string, len(r.sources))
	for i, s := range r.sources {
		names[i] = s.Name
	}
	return names
}

// Resolve returns the current cycle. It never fails.
func (r *Resolver) Resolve(ctx context.Context) cycle.State {
	return r.ResolveReport(ctx).State
}

// ResolveReport tries each source in order and returns the first success, or
// the local calculation once all have failed. No source is retried within a
// poll. A cancelled ctx ends the remote attempts early and falls back.
func (r *Resolver) ResolveReport(ctx context.Context) Report {
	start := r.now()
	rep := Report{PollID: uuid.NewString(), At: start}

	plog := r.logger.Poll(rep.PollID, "resolve")
	plog.Start(len(r.sources))

	for _, src := range r.sources {
		if ctx.Err() != nil {
			break
		}

		state, err := r.try(ctx, src, &rep, plog)
		if err != nil {
			continue
		}
		rep.State = state
		return r.finish(rep, plog)
	}

	rep.State = cycle.Local(r.now())
	rep.FellBack = true
	plog.Fallback(len(rep.Attempts), rep.State.Phase())
	return r.finish(rep, plog)
}

// try asks one source and records the attempt.
func (r *Resolver) try(ctx context.Context, src fetch.Source, rep *Report, plog otel.PollLog) (cycle.State, error) {
	reqCtx := ctx
	if r.sourceTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, r.sourceTimeout)
		defer cancel()
	}

	t0 := r.now()
	state, err := r.fetcher.Fetch(reqCtx, src, t0)
	dur := r.now().Sub(t0)
	if err == nil && state.Expiry.IsZero() {
		err = errors.New("source returned no expiry")
	}

	rep.Attempts = append(rep.Attempts, Attempt{Source: src.Name, Err: err, Dur: dur})

	a := store.Attempt{PollID: rep.PollID, Source: src.Name, OK: err == nil, Dur: dur, At: t0}
	if err != nil {
		a.Err = err.Error()
		plog.SourceFailed(src.Name, err, dur)
		logging.Warn("source failed", "source", src.Name, "error", err)
	} else {
		a.IsDay = state.IsDay
		a.Expiry = state.Expiry
		plog.SourceOK(src.Name, state.Phase(), dur)
	}
	r.record(a)
	metrics.SourceAttemptsTotal.WithLabelValues(src.Name, attemptResult(err)).Inc()

	if err != nil {
		return cycle.State{}, err
	}
	state.Source = src.Name
	return state, nil
}

func attemptResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, fetch.ErrSourceOpen):
		return "open"
	default:
		return "error"
	}
}

func (r *Resolver) record(a store.Attempt) {
	if r.ledger == nil {
		return
	}
	if err := r.ledger.RecordAttempt(a); err != nil {
		r.logger.Error(otel.KindStoreError, "resolve", err)
	}
}

func (r *Resolver) finish(rep Report, plog otel.PollLog) Report {
	rep.Dur = r.now().Sub(rep.At)
	outcome := "source"
	if rep.FellBack {
		outcome = "fallback"
	}
	metrics.PollsTotal.WithLabelValues(outcome).Inc()
	metrics.PollDuration.Observe(rep.Dur.Seconds())
	plog.Complete(rep.State.Source, rep.State.Phase(), rep.Dur)

	if n := r.polls.Add(1); r.ledger != nil && r.ledgerRows > 0 && n%pruneEvery == 0 {
		if _, err := r.ledger.Prune(r.ledgerRows); err != nil {
			r.logger.Error(otel.KindStoreError, "resolve", err)
		}
	}
	return rep
}
