// Package server is the headless mode: a REST and WebSocket view of the
// resolved cycle, kept fresh by a background poll.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/cycleglobe/internal/coord"
	"github.com/abelbrown/cycleglobe/internal/cycle"
	"github.com/abelbrown/cycleglobe/internal/logging"
	"github.com/abelbrown/cycleglobe/internal/otel"
	"github.com/abelbrown/cycleglobe/internal/resolve"
	"github.com/abelbrown/cycleglobe/internal/store"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

// poller is the part of coord.Coordinator the server uses.
type poller interface {
	Poll(ctx context.Context) resolve.Report
	Latest() (resolve.Report, bool)
}

// Options configures a Server.
type Options struct {
	// Sources lists the configured source names in priority order.
	Sources []string
	// SourceStats reads the attempt ledger. Optional.
	SourceStats func() ([]store.SourceStats, error)
	// BreakerState reports a source's circuit state. Optional.
	BreakerState func(source string) string
	// Ping checks the ledger for /readyz. Optional.
	Ping func() error

	MaxClients int
	Clock      clockwork.Clock
	Logger     *otel.Logger
}

// Server serves the cycle over HTTP.
type Server struct {
	engine *gin.Engine
	poller poller
	hub    *Hub
	opts   Options
	clock  clockwork.Clock
	logger *otel.Logger
}

// New builds the gin engine and hub. Wire hub broadcasts with Publish.
func New(p poller, opts Options) *Server {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = otel.NewNullLogger()
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine: engine,
		poller: p,
		hub:    NewHub(opts.Clock, opts.MaxClients, opts.Logger),
		opts:   opts,
		clock:  opts.Clock,
		logger: opts.Logger,
	}
	s.Register(engine)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// CycleMessage is the JSON shape of /api/cycle and each /ws message. It is
// accepted by fetch.ParseCycleStatus, so one instance can feed another.
type CycleMessage struct {
	IsDay       bool      `json:"isDay"`
	Expiry      time.Time `json:"expiry"`
	Source      string    `json:"source"`
	PollID      string    `json:"pollId,omitempty"`
	FellBack    bool      `json:"fellBack"`
	RemainingMs int64     `json:"remainingMs"`
	Countdown   string    `json:"countdown"`
}

// newCycleMessage renders st as seen at now.
func newCycleMessage(st cycle.State, pollID string, fellBack bool, now time.Time) CycleMessage {
	rem := st.Remaining(now)
	return CycleMessage{
		IsDay:       st.IsDay,
		Expiry:      st.Expiry.UTC(),
		Source:      st.Source,
		PollID:      pollID,
		FellBack:    fellBack,
		RemainingMs: rem.Milliseconds(),
		Countdown:   cycle.Countdown(rem),
	}
}

// Publish broadcasts a finished poll to every WebSocket client. Pass it to
// coord.OnUpdate.
func (s *Server) Publish(rep resolve.Report) {
	msg := newCycleMessage(rep.State, rep.PollID, rep.FellBack, s.clock.Now())
	data, err := json.Marshal(msg)
	if err != nil {
		logging.Error("Failed to marshal broadcast message", "error", err)
		return
	}
	s.hub.Broadcast(data)
}

// Run serves on addr and runs the coordinator until ctx is cancelled.
func Run(ctx context.Context, addr string, s *Server, c *coord.Coordinator) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info(otel.KindServeStart, "server", addr)
		logging.Info("Serving", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		c.Start(gctx)
		<-gctx.Done()
		c.Wait()
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.hub.Close("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
