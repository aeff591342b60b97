package api

import (
	"github.com/labstack/echo/v4"

	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/models"
	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/subscription"
	xhttp "github.com/abhishek-jha-24/earnings-copilot-hft/pkg/http"
	xlogger "github.com/abhishek-jha-24/earnings-copilot-hft/pkg/logger"
	"github.com/abhishek-jha-24/earnings-copilot-hft/pkg/util"
)

// SubscriptionsHandler manages per-user ticker subscriptions.
type SubscriptionsHandler struct {
	logger   *xlogger.Logger
	registry *subscription.Registry
}

func NewSubscriptionsHandler(lgr *xlogger.Logger, registry *subscription.Registry) *SubscriptionsHandler {
	return &SubscriptionsHandler{logger: lgr, registry: registry}
}

func (h *SubscriptionsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/subscriptions", h.Subscribe)
	g.GET("/subscriptions", h.List)
	g.DELETE("/subscriptions", h.Unsubscribe)
}

// Subscribe upserts a (user, ticker) subscription, merging channel sets.
func (h *SubscriptionsHandler) Subscribe(c echo.Context) error {
	req := &models.SubscribeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ticker := util.NormalizeTicker(req.Ticker)
	if !util.ValidTicker(ticker) {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("invalid ticker %q", req.Ticker))
	}
	channels, err := models.NewChannelSet(req.Channels...)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
	}

	sub := h.registry.Subscribe(req.UserID, ticker, channels)
	return xhttp.CreatedResponse(c, sub)
}

func (h *SubscriptionsHandler) List(c echo.Context) error {
	req := &models.SubscriptionListRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	subs := h.registry.List(req.UserID)
	return xhttp.ListResponse(c, subs, int64(len(subs)))
}

// Unsubscribe removes the (user, ticker) row; removing an absent row is a
// no-op, not an error.
func (h *SubscriptionsHandler) Unsubscribe(c echo.Context) error {
	req := &models.UnsubscribeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	h.registry.Unsubscribe(req.UserID, util.NormalizeTicker(req.Ticker))
	return xhttp.NoContentResponse(c)
}
