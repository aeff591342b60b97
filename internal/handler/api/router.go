package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Router composes the API handlers into one route registration for the
// HTTP server.
type Router struct {
	pipeline      *PipelineHandler
	subscriptions *SubscriptionsHandler
	stream        *StreamHandler
}

func NewRouter(pipeline *PipelineHandler, subscriptions *SubscriptionsHandler, stream *StreamHandler) *Router {
	return &Router{pipeline: pipeline, subscriptions: subscriptions, stream: stream}
}

func (r *Router) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	r.pipeline.RegisterRoutes(e)
	r.subscriptions.RegisterRoutes(e)
	r.stream.RegisterRoutes(e)
}
