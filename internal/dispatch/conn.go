package dispatch

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/models"
	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/repository"
	"github.com/abhishek-jha-24/earnings-copilot-hft/pkg/logger"
)

// Conn is one live push connection for a user. It owns a bounded outbound
// queue; the dispatcher enqueues without blocking and the oldest buffered
// event is dropped on overflow.
type Conn struct {
	userID string
	ws     *websocket.Conn
	send   chan models.NotificationEvent

	hub     *Hub
	logger  *logger.Logger
	metrics repository.Metrics

	heartbeat time.Duration
	pongWait  time.Duration
	writeWait time.Duration

	closeOnce sync.Once
	done      chan struct{}
}

// enqueue offers an event to the connection without blocking. On a full
// queue the oldest buffered event is discarded first. Returns false only
// if the event still could not be buffered.
func (c *Conn) enqueue(ev models.NotificationEvent) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- ev:
		return true
	default:
	}

	// Full: drop the oldest, then retry once.
	select {
	case <-c.send:
		c.metrics.RecordDrop("queue_overflow")
	default:
	}
	select {
	case c.send <- ev:
		return true
	default:
		c.metrics.RecordDrop("queue_overflow")
		return false
	}
}

// close tears the connection down exactly once and deregisters it.
func (c *Conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
		c.hub.unregister(c)
	})
}

// writePump drains the outbound queue onto the socket and emits periodic
// heartbeats. Exits on write failure or close.
func (c *Conn) writePump() {
	ticker := time.NewTicker(c.heartbeat)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case ev := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.ws.WriteJSON(ev); err != nil {
				c.logger.Debug("stream write failed",
					logger.String("user_id", c.userID),
					logger.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeWait))
			hb := models.NotificationEvent{
				Kind:      models.EventHeartbeat,
				Payload:   models.HeartbeatPayload{At: time.Now().UTC()},
				CreatedAt: time.Now().UTC(),
			}
			if err := c.ws.WriteJSON(hb); err != nil {
				return
			}
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes control frames to detect dead consumers. A missing
// pong within pongWait closes the connection.
func (c *Conn) readPump() {
	defer c.close()

	c.ws.SetReadLimit(1024)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}
