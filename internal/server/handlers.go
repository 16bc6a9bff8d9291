package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abelbrown/cycleglobe/internal/cycle"
	"github.com/abelbrown/cycleglobe/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // read-only public feed
	},
}

// Register mounts every route on r.
func (s *Server) Register(r *gin.Engine) {
	r.GET("/healthz", s.health)
	r.GET("/readyz", s.ready)
	r.GET("/api/cycle", s.cycle)
	r.GET("/api/cycle/local", s.local)
	r.GET("/api/sources", s.sources)
	r.GET("/ws", s.websocket)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) ready(c *gin.Context) {
	if s.opts.Ping != nil {
		if err := s.opts.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "ledger_unreachable"})
			return
		}
	}
	if _, ok := s.poller.Latest(); !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "no_poll_yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// cycle returns the latest polled state, or resolves now when asked for a
// fresh one or when nothing has been polled yet.
func (s *Server) cycle(c *gin.Context) {
	rep, ok := s.poller.Latest()
	if !ok || c.Query("fresh") == "1" {
		rep = s.poller.Poll(c.Request.Context())
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, newCycleMessage(rep.State, rep.PollID, rep.FellBack, s.clock.Now()))
}

func (s *Server) local(c *gin.Context) {
	now := s.clock.Now()
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, newCycleMessage(cycle.Local(now), "", false, now))
}

type sourceView struct {
	Name    string     `json:"name"`
	Rank    int        `json:"rank"`
	OK      int        `json:"ok"`
	Failed  int        `json:"failed"`
	LastErr string     `json:"lastErr,omitempty"`
	LastAt  *time.Time `json:"lastAt,omitempty"`
	Breaker string     `json:"breaker,omitempty"`
}

// sources lists configured sources in priority order with their ledger
// counts. Sources seen in the ledger but no longer configured come last.
func (s *Server) sources(c *gin.Context) {
	byName := make(map[string]sourceView)
	var extra []string
	if s.opts.SourceStats != nil {
		stats, err := s.opts.SourceStats()
		if err != nil {
			logging.Error("Failed to read source stats", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ledger unavailable"})
			return
		}
		for _, st := range stats {
			v := sourceView{Name: st.Source, OK: st.OK, Failed: st.Failed, LastErr: st.LastErr}
			if !st.LastAt.IsZero() {
				at := st.LastAt.UTC()
				v.LastAt = &at
			}
			byName[st.Source] = v
			extra = append(extra, st.Source)
		}
	}

	out := make([]sourceView, 0, len(s.opts.Sources)+len(extra))
	seen := make(map[string]bool)
	for _, name := range s.opts.Sources {
		v := byName[name]
		v.Name = name
		out = append(out, v)
		seen[name] = true
	}
	for _, name := range extra {
		if !seen[name] {
			out = append(out, byName[name])
			seen[name] = true
		}
	}
	for i := range out {
		out[i].Rank = i + 1
		if s.opts.BreakerState != nil {
			out[i].Breaker = s.opts.BreakerState(out[i].Name)
		}
	}

	c.JSON(http.StatusOK, gin.H{"sources": out})
}

func (s *Server) websocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Warn("Failed to upgrade WebSocket", "error", err)
		return
	}

	if err := s.hub.Register(conn); err != nil {
		logging.Warn("Rejecting WebSocket client", "error", err)
		return
	}

	if rep, ok := s.poller.Latest(); ok {
		if data, err := json.Marshal(newCycleMessage(rep.State, rep.PollID, rep.FellBack, s.clock.Now())); err == nil {
			s.hub.SendTo(conn, data)
		}
	}

	// Read pump: blocks until the connection closes.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.hub.Unregister(conn)
}
