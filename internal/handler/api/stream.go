package api

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/dispatch"
	xhttp "github.com/abhishek-jha-24/earnings-copilot-hft/pkg/http"
	xlogger "github.com/abhishek-jha-24/earnings-copilot-hft/pkg/logger"
)

// StreamHandler upgrades /api/stream requests to long-lived websocket
// connections registered with the dispatch hub.
type StreamHandler struct {
	logger   *xlogger.Logger
	hub      *dispatch.Hub
	upgrader websocket.Upgrader
}

func NewStreamHandler(lgr *xlogger.Logger, hub *dispatch.Hub) *StreamHandler {
	return &StreamHandler{
		logger: lgr,
		hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Caller auth is enforced upstream of this service.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *StreamHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/stream", h.Stream)
}

func (h *StreamHandler) Stream(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("user_id is required"))
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.logger.Warn("websocket upgrade failed",
			xlogger.String("user_id", userID),
			xlogger.Error(err))
		return nil
	}

	h.hub.Register(userID, ws)
	h.logger.Info("stream connected", xlogger.String("user_id", userID))
	return nil
}
