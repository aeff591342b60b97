package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/dispatch"
	domrepo "github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/repository"
	pkgch "github.com/abhishek-jha-24/earnings-copilot-hft/pkg/clickhouse"
	"github.com/abhishek-jha-24/earnings-copilot-hft/pkg/config"
	xhttp "github.com/abhishek-jha-24/earnings-copilot-hft/pkg/http"
	applogger "github.com/abhishek-jha-24/earnings-copilot-hft/pkg/logger"
	"github.com/abhishek-jha-24/earnings-copilot-hft/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	handler    xhttp.Handler
	queue      queue.Runner
	hub        *dispatch.Hub
	sink       domrepo.EventSink
	chClient   *pkgch.Client
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	lgr *applogger.Logger,
	handler xhttp.Handler,
	q queue.Runner,
	hub *dispatch.Hub,
	sink domrepo.EventSink,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:      cfg,
		logger:   lgr,
		handler:  handler,
		queue:    q,
		hub:      hub,
		sink:     sink,
		chClient: chClient,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	if err := a.queue.Start(); err != nil {
		a.logger.Error("delivery queue start error", applogger.Error(err))
		return err
	}
	a.logger.Info("delivery queue started",
		applogger.String("backend", a.cfg.Dispatch.QueueBackend),
		applogger.Int("workers", a.cfg.Dispatch.Workers))

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithRequestMetrics(a.logger, time.Second),
	)
	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services. The HTTP server stops first so
// no new work arrives while the queue drains.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	a.hub.Shutdown()

	if err := a.queue.Stop(ctx); err != nil {
		a.logger.Warn("delivery queue stop error", applogger.Error(err))
	}

	if err := a.sink.Close(); err != nil {
		a.logger.Warn("event sink close error", applogger.Error(err))
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
