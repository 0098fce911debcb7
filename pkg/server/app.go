package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"VolPulse/internal/usecase"
	"VolPulse/pkg/config"
	xhttp "VolPulse/pkg/http"
	applogger "VolPulse/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	svc        *usecase.VolatilityService
	handler    xhttp.Handler
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	svc *usecase.VolatilityService,
	handler xhttp.Handler,
) *App {
	return &App{
		cfg:     cfg,
		logger:  logger,
		svc:     svc,
		handler: handler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Restore calibration before serving traffic.
	loadCtx, loadCancel := context.WithTimeout(ctx, 30*time.Second)
	if err := a.svc.LoadHistory(loadCtx); err != nil {
		a.logger.Warn("history restore failed, starting uncalibrated", applogger.Error(err))
	}
	loadCancel()

	serverOpts := []xhttp.ServerOption{
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	}
	if a.cfg.Metrics.Enabled {
		serverOpts = append(serverOpts, xhttp.WithRequestMetrics(a.logger, time.Second))
	}
	a.httpServer = xhttp.NewServer(a.handler, serverOpts...)
	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("server started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("history_backend", a.cfg.History.Backend),
	)

	// Periodic history snapshots so a crash loses at most one interval.
	go a.snapshotLoop(ctx)

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

func (a *App) snapshotLoop(ctx context.Context) {
	interval := a.cfg.History.SnapshotInterval
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			saveCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			if err := a.svc.SaveHistory(saveCtx); err != nil {
				a.logger.Warn("history snapshot failed", applogger.Error(err))
			}
			cancel()
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	// Final snapshot after traffic stops.
	if err := a.svc.SaveHistory(shutdownCtx); err != nil {
		a.logger.Warn("final history snapshot failed", applogger.Error(err))
	}

	if err := a.svc.Close(); err != nil {
		a.logger.Warn("resource close error", applogger.Error(err))
	}

	a.logger.Info("shutdown complete")
	return nil
}
