package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"HomeCast/internal/service/stream"
	"HomeCast/internal/usecase"
	pkgch "HomeCast/pkg/clickhouse"
	"HomeCast/pkg/config"
	xhttp "HomeCast/pkg/http"
	pkgkafka "HomeCast/pkg/kafka"
	applogger "HomeCast/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg      *config.Config
	logger   *applogger.Logger
	reloader *usecase.Reloader

	httpHandler xhttp.Handler
	httpServer  *xhttp.Server

	consumer *pkgkafka.Consumer
	kh       pkgkafka.MessageHandler
	producer *pkgkafka.Producer
	hub      *stream.Hub
	chClient *pkgch.Client
}

// New creates a new App instance. consumer, kh, producer, hub, and chClient
// may all be nil depending on configuration.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	reloader *usecase.Reloader,
	handler xhttp.Handler,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	producer *pkgkafka.Producer,
	hub *stream.Hub,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:         cfg,
		logger:      logger,
		reloader:    reloader,
		httpHandler: handler,
		consumer:    consumer,
		kh:          kh,
		producer:    producer,
		hub:         hub,
		chClient:    chClient,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initial dataset load. A failure is not fatal: the server comes up and
	// answers 503 on data endpoints until a reload succeeds.
	if err := a.reloader.Reload(ctx); err != nil {
		a.logger.Error("initial data load failed", applogger.Error(err))
	}

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetrics(a.cfg.Metrics.Enabled),
		xhttp.WithLogger(a.logger),
	)

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.logger.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.logger.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if a.hub != nil {
		a.hub.Close()
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.logger.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("kafka producer close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
