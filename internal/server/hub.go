package server

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/abelbrown/cycleglobe/internal/logging"
	"github.com/abelbrown/cycleglobe/internal/metrics"
	"github.com/abelbrown/cycleglobe/internal/otel"
)

// ErrHubFull is returned by Register at the client limit.
var ErrHubFull = errors.New("websocket client limit reached")

// Hub fans cycle updates out to WebSocket clients. Safe for concurrent use.
type Hub struct {
	clock      clockwork.Clock
	maxClients int
	logger     *otel.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]*clientWriter
	closed  bool
}

// NewHub creates a hub holding at most maxClients connections (<= 0: no limit).
func NewHub(clock clockwork.Clock, maxClients int, logger *otel.Logger) *Hub {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = otel.NewNullLogger()
	}
	return &Hub{
		clock:      clock,
		maxClients: maxClients,
		logger:     logger,
		clients:    make(map[*websocket.Conn]*clientWriter),
	}
}

// Register starts a writer for conn. On error conn is closed.
func (h *Hub) Register(conn *websocket.Conn) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || (h.maxClients > 0 && len(h.clients) >= h.maxClients) {
		metrics.WebSocketRejected.Inc()
		conn.Close()
		return ErrHubFull
	}

	cw := newClientWriter(conn, h.clock)
	h.clients[conn] = cw
	metrics.WebSocketClients.Set(float64(len(h.clients)))
	h.logger.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindClientJoin, Comp: "server", Count: len(h.clients), Msg: conn.RemoteAddr().String()})
	return nil
}

// SendTo queues data for one client. Returns false if conn is unknown or
// its buffer is full.
func (h *Hub) SendTo(conn *websocket.Conn, data []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	cw, ok := h.clients[conn]
	return ok && cw.send(data)
}

// Unregister stops conn's writer and forgets it.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(conn)
}

func (h *Hub) removeLocked(conn *websocket.Conn) {
	cw, ok := h.clients[conn]
	if !ok {
		return
	}
	cw.stop()
	delete(h.clients, conn)
	metrics.WebSocketClients.Set(float64(len(h.clients)))
	h.logger.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindClientLeave, Comp: "server", Count: len(h.clients)})
}

// Broadcast queues data for every client. Clients whose buffer is full are
// disconnected rather than allowed to stall the rest.
func (h *Hub) Broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var slow []*websocket.Conn
	for conn, cw := range h.clients {
		if !cw.send(data) {
			slow = append(slow, conn)
		}
	}
	for _, conn := range slow {
		logging.Warn("Disconnecting slow client", "remote", conn.RemoteAddr().String())
		metrics.WebSocketSlowClientsEvicted.Inc()
		h.removeLocked(conn)
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client with a close frame and refuses new ones.
func (h *Hub) Close(reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for conn, cw := range h.clients {
		cw.stopGraceful(reason)
		delete(h.clients, conn)
	}
	metrics.WebSocketClients.Set(0)
}
