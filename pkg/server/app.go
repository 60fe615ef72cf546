package server

import (
	"context"
	"errors"

	"StockCast/internal/scheduler"
	"StockCast/pkg/config"
	xhttp "StockCast/pkg/http"
	applogger "StockCast/pkg/logger"
)

// App encapsulates the application lifecycle: the HTTP API and the
// background jobs.
type App struct {
	cfg        *config.Config
	httpServer *xhttp.Server
	jobs       *scheduler.Scheduler
	l          *applogger.Logger
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, httpServer *xhttp.Server, jobs *scheduler.Scheduler, l *applogger.Logger) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{cfg: cfg, httpServer: httpServer, jobs: jobs, l: l}
}

// Run starts the application and blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := a.httpServer.Start(); err != nil {
		return err
	}
	if a.jobs != nil {
		a.jobs.Start()
	}
	a.l.Info("stockcast started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("cache", a.cfg.Cache.Type),
		applogger.String("recorder", a.cfg.Recorder.Type),
		applogger.Bool("kafka", a.cfg.Kafka.Enabled),
	)

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown stops accepting requests first, then waits for running jobs.
func (a *App) shutdown() error {
	var errs []error
	if err := a.httpServer.Stop(context.Background()); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}
	if a.jobs != nil {
		a.jobs.Stop()
	}
	a.l.Info("shutdown complete")
	return errors.Join(errs...)
}
