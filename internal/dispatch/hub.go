package dispatch

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/models"
	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/repository"
	"github.com/abhishek-jha-24/earnings-copilot-hft/pkg/logger"
)

// HubConfig tunes per-connection queue size and keep-alive timing.
type HubConfig struct {
	StreamBuffer int
	Heartbeat    time.Duration
	PongWait     time.Duration
	WriteWait    time.Duration
}

// Hub owns the live-connection set. Connections register on upgrade and
// deregister on close; a user may hold several connections at once.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]map[*Conn]struct{}

	cfg     HubConfig
	logger  *logger.Logger
	metrics repository.Metrics
}

func NewHub(cfg HubConfig, lgr *logger.Logger, metrics repository.Metrics) *Hub {
	if cfg.StreamBuffer <= 0 {
		cfg.StreamBuffer = 64
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = 25 * time.Second
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = 60 * time.Second
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = 10 * time.Second
	}
	return &Hub{
		conns:   make(map[string]map[*Conn]struct{}),
		cfg:     cfg,
		logger:  lgr,
		metrics: metrics,
	}
}

// Register wraps an upgraded socket into a managed connection and starts
// its pumps.
func (h *Hub) Register(userID string, ws *websocket.Conn) *Conn {
	c := &Conn{
		userID:    userID,
		ws:        ws,
		send:      make(chan models.NotificationEvent, h.cfg.StreamBuffer),
		hub:       h,
		logger:    h.logger,
		metrics:   h.metrics,
		heartbeat: h.cfg.Heartbeat,
		pongWait:  h.cfg.PongWait,
		writeWait: h.cfg.WriteWait,
		done:      make(chan struct{}),
	}

	h.mu.Lock()
	set, ok := h.conns[userID]
	if !ok {
		set = make(map[*Conn]struct{})
		h.conns[userID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()

	go c.writePump()
	go c.readPump()

	h.logger.Info("stream connection opened", logger.String("user_id", userID))
	return c
}

func (h *Hub) unregister(c *Conn) {
	h.mu.Lock()
	set, ok := h.conns[c.userID]
	if ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.conns, c.userID)
		}
	}
	h.mu.Unlock()

	if ok {
		h.logger.Info("stream connection closed", logger.String("user_id", c.userID))
	}
}

// ConnectionsFor snapshots the open connections of a user. May be empty.
func (h *Hub) ConnectionsFor(userID string) []*Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	set := h.conns[userID]
	out := make([]*Conn, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// ConnectionCount returns the number of open connections across all users.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, set := range h.conns {
		n += len(set)
	}
	return n
}

// Shutdown closes every open connection.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	var all []*Conn
	for _, set := range h.conns {
		for c := range set {
			all = append(all, c)
		}
	}
	h.mu.Unlock()

	for _, c := range all {
		c.close()
	}
}
