// Package server wires the media durability engine together: database and
// migrations, blob storage, the reconciliation/backup services, and the
// startup recovery sequence, plus graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/artfolio/mediakeeper/internal/logging"
	"github.com/artfolio/mediakeeper/internal/server/blob"
	"github.com/artfolio/mediakeeper/internal/server/config"
	"github.com/artfolio/mediakeeper/internal/server/repositories/repomanager"
	"github.com/artfolio/mediakeeper/internal/server/services"
	"github.com/artfolio/mediakeeper/internal/server/thumbs"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB

	MediaService *services.MediaService
	Reconciler   *services.Reconciler
	Backup       *services.BackupService
	SyncLog      *services.SyncLogService
	startup      *services.StartupCoordinator
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	// the database container may still be starting
	backoff := retry.WithMaxRetries(5, retry.NewExponential(1*time.Second))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	store, err := blob.NewStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	gen := thumbs.NewBoxGenerator(cfg.ThumbnailMaxSize)

	syncLog := services.NewSyncLogService(db, rm, cfg, logger)
	reconciler := services.NewReconciler(db, rm, store, syncLog, logger)
	backup := services.NewBackupService(db, rm, store, syncLog, cfg, logger)
	mediaService := services.NewMediaService(db, rm, store, gen, backup, cfg, logger)
	startup := services.NewStartupCoordinator(db, rm, reconciler, backup, syncLog, logger)

	return &App{
		config:       cfg,
		logger:       logger,
		db:           db,
		MediaService: mediaService,
		Reconciler:   reconciler,
		Backup:       backup,
		SyncLog:      syncLog,
		startup:      startup,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run executes the startup recovery sequence and then blocks until an OS
// signal or context cancellation.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app", "environment", app.config.Environment)

	app.initSignalHandler(cancelFunc)

	if err := app.startup.Run(ctx); err != nil {
		return fmt.Errorf("startup recovery error: %w", err)
	}

	app.logger.Info(ctx, "startup recovery complete, engine ready")

	<-ctx.Done()

	app.logger.Info(context.Background(), "shutting down")
	return nil
}

func (app *App) Close() error {
	return app.db.Close()
}
