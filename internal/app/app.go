// Package app assembles the reminder engine from configuration and owns its
// lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/neshyamekala/Medicall/internal"
	"github.com/neshyamekala/Medicall/internal/api"
	"github.com/neshyamekala/Medicall/internal/config"
	"github.com/neshyamekala/Medicall/internal/notify"
	"github.com/neshyamekala/Medicall/internal/scheduler"
	"github.com/neshyamekala/Medicall/internal/service"
	"github.com/neshyamekala/Medicall/internal/storage"
	"github.com/neshyamekala/Medicall/internal/worker"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	cfg       *config.Config
	logger    internal.Logger
	store     storage.Store
	pool      *worker.Pool
	recorder  *service.Recorder
	scheduler *scheduler.Scheduler
	server    *http.Server
}

var _ api.App = (*App)(nil)

func New(ctx context.Context, cfg *config.Config, logger internal.Logger) (*App, error) {
	store, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.DBType, err)
	}

	channel := notify.New(cfg, logger)
	pool := worker.NewPool(cfg.NotifyWorkers, cfg.NotifyQueue, logger)

	dispatcher := service.NewDispatcher(store, channel, pool, logger)
	scanner := service.NewScanner(store, store, dispatcher, cfg.Location(), logger)
	escalator := service.NewEscalator(store, channel, pool, logger)

	sched, err := scheduler.New(cfg.Location(), scanner, escalator, cfg.EscalationInterval, logger)
	if err != nil {
		_ = pool.Stop(ctx)
		_ = store.Close()
		return nil, err
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	a := &App{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		pool:      pool,
		recorder:  service.NewRecorder(store, cfg.CountryCode, logger),
		scheduler: sched,
	}
	a.server = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(a),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

func (a *App) Logger() internal.Logger               { return a.logger }
func (a *App) Patients() storage.PatientRepository   { return a.store }
func (a *App) Medicines() storage.MedicineRepository { return a.store }
func (a *App) Recorder() *service.Recorder           { return a.recorder }
func (a *App) CountryCode() string                   { return a.cfg.CountryCode }

func (a *App) Handler() http.Handler { return a.server.Handler }

// Run starts the scheduler and the HTTP server and blocks until ctx is done
// or the listener fails. It always shuts everything down before returning.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.HTTPAddr)
	if err != nil {
		_ = a.Shutdown(context.Background())
		return fmt.Errorf("listen on %s: %w", a.cfg.HTTPAddr, err)
	}

	a.scheduler.Start()

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Infof("http server listening on %s", ln.Addr())
		serveErr <- a.server.Serve(ln)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown requested")
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Join(runErr, a.Shutdown(shutdownCtx))
}

// Shutdown stops the scheduler first so no new reminders are queued, then
// the HTTP server, then drains the worker pool and closes the store.
func (a *App) Shutdown(ctx context.Context) error {
	a.scheduler.Stop()

	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := a.pool.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("drain notification pool: %w", err))
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}
	return errors.Join(errs...)
}
