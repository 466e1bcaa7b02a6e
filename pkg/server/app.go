package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"SalePulse/internal/usecase"
	pkgch "SalePulse/pkg/clickhouse"
	"SalePulse/pkg/config"
	xhttp "SalePulse/pkg/http"
	pkgkafka "SalePulse/pkg/kafka"
	applogger "SalePulse/pkg/logger"
	"SalePulse/pkg/queue"
)

// App encapsulates the entire application lifecycle: the detection
// loop, the chat command router, the forecast worker queue, the Kafka
// ingest consumer, and the HTTP API.
type App struct {
	cfg         *config.Config
	loop        *usecase.DetectionLoop
	router      *usecase.CommandRouter
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	workQueue   *queue.RedisQueue
	chClient    *pkgch.Client
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	logger      *applogger.Logger
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	loop *usecase.DetectionLoop,
	router *usecase.CommandRouter,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	workQueue *queue.RedisQueue,
	chClient *pkgch.Client,
	logger *applogger.Logger,
) *App {
	return &App{
		cfg:       cfg,
		loop:      loop,
		router:    router,
		consumer:  consumer,
		kh:        kh,
		workQueue: workQueue,
		chClient:  chClient,
		logger:    logger,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.logger
	if l == nil {
		l, _ = applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	}

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Start forecast workers before anything can enqueue work.
	if a.workQueue != nil {
		if err := a.workQueue.Start(); err != nil {
			l.Error("forecast queue start error", applogger.Error(err))
			return err
		}
		a.workQueue.StartRetryProcessor()
		l.Info("forecast queue started")
	}

	// Start the detection loop on the simulated clock.
	if err := a.loop.Start(ctx); err != nil {
		l.Error("detection loop start error", applogger.Error(err))
		return err
	}
	l.Info("detection loop started",
		applogger.String("start_date", a.cfg.Detector.StartDate),
		applogger.Duration("interval", a.cfg.Detector.Interval))

	// Start the chat command router.
	if a.router != nil {
		go func() {
			if err := a.router.Start(ctx); err != nil {
				l.Error("command router error", applogger.Error(err))
			}
		}()
		l.Info("command router started")
	}

	// Start ingest consumer if configured.
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l := a.logger
	if l == nil {
		var err error
		l, err = applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
		if err != nil {
			log.Printf("failed to create logger: %v", err)
			return err
		}
	}
	l.Info("shutting down...")

	// Stop the detection loop first so no new alerts go out mid-stop.
	a.loop.Stop()

	if a.router != nil {
		if err := a.router.Stop(); err != nil {
			l.Warn("command router stop error", applogger.Error(err))
		}
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if a.httpServer != nil {
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			l.Error("http shutdown error", applogger.Error(err))
		}
	}

	// Drain the forecast queue.
	if a.workQueue != nil {
		if err := a.workQueue.Stop(shutdownCtx); err != nil {
			l.Warn("forecast queue stop error", applogger.Error(err))
		}
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
