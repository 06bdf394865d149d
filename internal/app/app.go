// Package app provides application orchestration and component lifecycle
// management for the Creator Network backend.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/creatornet/creatornet/internal/config"
	"github.com/creatornet/creatornet/internal/database"
	"github.com/creatornet/creatornet/internal/logger"
	"github.com/creatornet/creatornet/internal/onboarding"
	"github.com/creatornet/creatornet/internal/scheduler"
	"github.com/creatornet/creatornet/internal/server"
	"github.com/creatornet/creatornet/internal/session"
	"github.com/creatornet/creatornet/internal/uploads"
)

const (
	maintenanceTimeout = 5 * time.Minute
	shutdownTimeout    = 10 * time.Second
)

// App represents the application and its components.
type App struct {
	cfg       *config.Config
	db        *sqlx.DB
	store     database.Store
	sessions  *session.Manager
	scheduler *scheduler.Scheduler
	fiber     *fiber.App
	logger    *slog.Logger
}

// New creates a new application instance with configured components.
// It initializes logging, loads configuration, creates the data directory,
// opens the database, and wires the session store, scheduler jobs, and
// HTTP server. Returns an error if any component initialization fails.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	log.Info("configuration loaded",
		"log_level", cfg.LogLevel,
		"http_port", cfg.HTTPPort,
		"data_dir", cfg.DataDir)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := database.NewDB(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	store := database.NewStore(db, log)

	saver, err := uploads.NewSaver(cfg.UploadPath(), cfg.MaxUploadBytes)
	if err != nil {
		database.CloseDB(db)
		return nil, fmt.Errorf("failed to initialize upload storage: %w", err)
	}

	sessions := session.NewManager(cfg.SessionTTL, log)
	onb := onboarding.NewService(store, cfg.MaxPhotos, cfg.SignupVerifiedEditable, log)

	sched, err := scheduler.New()
	if err != nil {
		database.CloseDB(db)
		return nil, fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	if err := registerJobs(sched, cfg, store, sessions, log); err != nil {
		database.CloseDB(db)
		return nil, err
	}

	_, fiberApp := server.New(cfg, store, sessions, onb, saver, log)

	return &App{
		cfg:       cfg,
		db:        db,
		store:     store,
		sessions:  sessions,
		scheduler: sched,
		fiber:     fiberApp,
		logger:    log,
	}, nil
}

func registerJobs(sched *scheduler.Scheduler, cfg *config.Config,
	store database.Store, sessions *session.Manager, log *slog.Logger) error {

	err := sched.AddJob("sql_maintenance", cfg.MaintenanceCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), maintenanceTimeout)
		defer cancel()

		start := time.Now()
		if err := store.RunSQLMaintenance(ctx); err != nil {
			log.Error("SQL maintenance task failed", "error", err, "duration", time.Since(start))
			return
		}
		log.Info("SQL maintenance task completed", "duration", time.Since(start))
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sql maintenance: %w", err)
	}

	err = sched.AddJob("session_sweep", cfg.SessionSweepCron, func() {
		if removed := sessions.Sweep(); removed > 0 {
			log.Info("expired sessions swept", "removed", removed)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule session sweep: %w", err)
	}

	return nil
}

// Run starts the HTTP server and blocks until ctx is cancelled or a
// component fails. Shutdown drains in-flight requests, stops the scheduler,
// and closes the database.
func (a *App) Run(ctx context.Context) error {
	defer database.CloseDB(a.db)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		addr := ":" + a.cfg.HTTPPort
		a.logger.Info("Starting HTTP server...", "addr", addr)

		if err := a.fiber.Listen(addr); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}

		if gCtx.Err() == nil {
			return errors.New("http server stopped unexpectedly")
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("Shutdown signal received, stopping components...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := a.fiber.ShutdownWithContext(shutdownCtx); err != nil {
			a.logger.Error("Error shutting down HTTP server", "error", err)
		}
		if err := a.scheduler.Stop(); err != nil {
			a.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("Application stopped due to error", "error", err)
		return err
	}

	a.logger.Info("Shutdown complete.")
	return nil
}
