package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/artfolio/mediakeeper/internal/common"
	"github.com/artfolio/mediakeeper/internal/logging"
	"github.com/artfolio/mediakeeper/internal/server/repositories/repomanager"
)

// StartupCoordinator runs the boot-time recovery sequence: repopulate an
// empty catalog from the latest snapshot, reconcile the catalog against the
// blob store, and purge expired audit entries. It runs once per process
// start; there is no background scheduler.
type StartupCoordinator struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	reconciler  *Reconciler
	backup      *BackupService
	syncLog     *SyncLogService
	logger      logging.Logger
}

func NewStartupCoordinator(db *sql.DB, rm repomanager.RepositoryManager, reconciler *Reconciler, backup *BackupService, syncLog *SyncLogService, logger logging.Logger) *StartupCoordinator {
	return &StartupCoordinator{
		db:          db,
		repomanager: rm,
		reconciler:  reconciler,
		backup:      backup,
		syncLog:     syncLog,
		logger:      logger.With("component", "startup"),
	}
}

// Run executes the recovery sequence. Only an unreadable catalog or a failed
// reconciliation pass is fatal; snapshot import and log purge degrade to
// warnings so a cosmetic failure cannot keep the service down.
func (s *StartupCoordinator) Run(ctx context.Context) error {
	count, err := s.repomanager.Media(s.db).Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count catalog: %w", err)
	}

	if count == 0 {
		if err := s.importLatestSnapshot(ctx); err != nil {
			s.logger.Warn(ctx, "snapshot import failed", "error", err.Error())
		}
	} else {
		s.logger.Info(ctx, "catalog is populated, skipping snapshot import", "assets", count)
	}

	report, err := s.reconciler.ReconcileAll(ctx)
	if err != nil {
		return fmt.Errorf("startup reconciliation failed: %w", err)
	}
	s.logger.Info(ctx, "startup reconciliation finished",
		"total", report.Total, "missing", report.Missing,
		"restored", report.Restored, "failed", report.Failed)
	for _, e := range report.Errors {
		s.logger.Warn(ctx, "unresolved asset", "file", e.FileName, "reason", e.Reason)
	}

	purged, err := s.syncLog.PurgeExpired(ctx)
	if err != nil {
		s.logger.Warn(ctx, "sync log purge failed", "error", err.Error())
	} else if purged > 0 {
		s.logger.Info(ctx, "purged expired sync log entries", "count", purged)
	}

	return nil
}

// importLatestSnapshot repopulates an empty catalog from the most recent
// snapshot. Having no snapshot at all is the normal first-boot case.
func (s *StartupCoordinator) importLatestSnapshot(ctx context.Context) error {
	snapshot, err := s.backup.RestoreSnapshot(ctx, "")
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Info(ctx, "no snapshot available, starting with an empty catalog")
			return nil
		}
		return err
	}
	s.logger.Info(ctx, "catalog repopulated from snapshot",
		"snapshot", snapshot.ID, "items", len(snapshot.Items))
	return nil
}
