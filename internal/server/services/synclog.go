// Package services implements the media durability engine: sync logging,
// reconciliation between catalog and filesystem, threshold-driven backup,
// snapshot export/import, and the startup coordinator.
package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/artfolio/mediakeeper/internal/logging"
	sc "github.com/artfolio/mediakeeper/internal/server/config"
	"github.com/artfolio/mediakeeper/internal/server/models"
	"github.com/artfolio/mediakeeper/internal/server/repositories/repomanager"
	"github.com/artfolio/mediakeeper/internal/server/repositories/synclogs"
)

// SyncLogService records and queries the audit trail of backup/restore/sync
// attempts.
type SyncLogService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	logger      logging.Logger
}

func NewSyncLogService(db *sql.DB, rm repomanager.RepositoryManager, config *sc.Config, logger logging.Logger) *SyncLogService {
	return &SyncLogService{
		db:          db,
		repomanager: rm,
		config:      config,
		logger:      logger.With("component", "synclog"),
	}
}

// Record appends one audit entry for the asset. Logging is best-effort: a
// failed insert is reported through the operational logger and otherwise
// swallowed, so it can never mask or abort the primary operation's outcome.
func (s *SyncLogService) Record(ctx context.Context, asset *models.MediaAsset, op models.SyncOperation, status models.SyncStatus, message string, errorDetails string) {
	fileType := asset.FileType
	if fileType == "" {
		fileType = "unknown"
	}

	entry := &models.SyncLogEntry{
		ID:           uuid.New().String(),
		FileName:     asset.FileName,
		FileType:     fileType,
		FileSize:     asset.FileSize,
		Operation:    op,
		Status:       status,
		Message:      message,
		ErrorDetails: errorDetails,
		Environment:  s.config.Environment,
		Timestamp:    time.Now(),
	}

	if err := s.repomanager.SyncLogs(s.db).Create(ctx, entry); err != nil {
		s.logger.Error(ctx, "failed to record sync log entry",
			"file", entry.FileName, "operation", string(op), "error", err.Error())
	}
}

// Query returns audit entries newest first.
func (s *SyncLogService) Query(ctx context.Context, f synclogs.Filter) ([]*models.SyncLogEntry, error) {
	return s.repomanager.SyncLogs(s.db).Select(ctx, f)
}

// PurgeOlderThan removes entries older than the threshold and returns the
// number deleted.
func (s *SyncLogService) PurgeOlderThan(ctx context.Context, threshold time.Time) (int64, error) {
	return s.repomanager.SyncLogs(s.db).DeleteOlderThan(ctx, threshold)
}

// PurgeExpired applies the configured retention window.
func (s *SyncLogService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.PurgeOlderThan(ctx, time.Now().Add(-s.config.SyncLogRetention))
}
