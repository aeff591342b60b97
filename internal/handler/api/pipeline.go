package api

import (
	"errors"
	"io"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/models"
	domrepo "github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/repository"
	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/usecase"
	xhttp "github.com/abhishek-jha-24/earnings-copilot-hft/pkg/http"
	xlogger "github.com/abhishek-jha-24/earnings-copilot-hft/pkg/logger"
	"github.com/abhishek-jha-24/earnings-copilot-hft/pkg/util"
)

// PipelineHandler exposes document ingestion, signal lookup, and KPI search.
type PipelineHandler struct {
	logger   *xlogger.Logger
	pipeline *usecase.Pipeline
	searcher domrepo.Indexer
}

func NewPipelineHandler(lgr *xlogger.Logger, pipeline *usecase.Pipeline, searcher domrepo.Indexer) *PipelineHandler {
	return &PipelineHandler{logger: lgr, pipeline: pipeline, searcher: searcher}
}

func (h *PipelineHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/docs", h.Ingest)
	g.GET("/signal", h.Signal)
	g.GET("/search", h.Search)
}

// Ingest accepts a document as multipart upload (file part "file") or as a
// JSON body with base64 content, and runs the full pipeline synchronously.
func (h *PipelineHandler) Ingest(c echo.Context) error {
	req := &models.IngestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	content := req.Content
	filename := req.Filename
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError("unreadable file part").WithError(err))
		}
		defer f.Close()
		content, err = io.ReadAll(f)
		if err != nil {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError("unreadable file part").WithError(err))
		}
		filename = fh.Filename
	}
	if len(content) == 0 {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("document content is empty"))
	}

	receipt, err := h.pipeline.Ingest(c.Request().Context(), usecase.IngestInput{
		Ticker:        req.Ticker,
		Period:        req.Period,
		DocType:       models.DocType(req.DocType),
		Filename:      filename,
		Uploader:      c.Request().Header.Get("X-User-ID"),
		Content:       content,
		EffectiveDate: util.ParseTimeDefault(req.EffectiveDate, time.Time{}),
	})
	if err != nil {
		h.logger.Error("ingestion failed",
			xlogger.String("ticker", req.Ticker),
			xlogger.Error(err))
		return pipelineErrorResponse(c, err)
	}

	return xhttp.CreatedResponse(c, models.IngestResponse{
		DocID:   receipt.DocID,
		Status:  receipt.Status,
		Message: receipt.Message,
		Signal:  receipt.Signal,
	})
}

// Signal returns the current signal for (ticker, period), or the latest
// across periods when period is omitted.
func (h *PipelineHandler) Signal(c echo.Context) error {
	req := &models.SignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	sig, err := h.pipeline.GetSignal(c.Request().Context(), req.Ticker, req.Period)
	if err != nil {
		return pipelineErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, sig)
}

func (h *PipelineHandler) Search(c echo.Context) error {
	req := &models.SearchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	hits, err := h.searcher.Search(c.Request().Context(), req.Query, req.Limit)
	if err != nil {
		h.logger.Error("search failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("search backend failure").WithError(err))
	}
	return xhttp.ListResponse(c, hits, int64(len(hits)))
}

func pipelineErrorResponse(c echo.Context, err error) error {
	var exErr *models.ExtractionError
	switch {
	case errors.As(err, &exErr):
		return xhttp.AppErrorResponse(c, xhttp.UnprocessableError(exErr.Error()))
	case errors.Is(err, models.ErrNoValidFields):
		return xhttp.AppErrorResponse(c, xhttp.UnprocessableError(err.Error()))
	case errors.Is(err, models.ErrInvalidInput):
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
	case errors.Is(err, models.ErrSignalNotFound):
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError(err.Error()))
	}
	return xhttp.AppErrorResponse(c, xhttp.InternalError("pipeline failure").WithError(err))
}
