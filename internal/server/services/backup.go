package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/artfolio/mediakeeper/internal/common"
	"github.com/artfolio/mediakeeper/internal/dbx"
	"github.com/artfolio/mediakeeper/internal/logging"
	"github.com/artfolio/mediakeeper/internal/server/blob"
	sc "github.com/artfolio/mediakeeper/internal/server/config"
	"github.com/artfolio/mediakeeper/internal/server/models"
	"github.com/artfolio/mediakeeper/internal/server/repositories/repomanager"
)

// BackupService embeds filesystem copies into the database, sweeps the whole
// catalog on demand or when the upload counter reaches the configured
// threshold, and manages point-in-time snapshots of the catalog descriptors.
type BackupService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       blob.Store
	syncLog     *SyncLogService
	config      *sc.Config
	logger      logging.Logger

	uploads  atomic.Int64
	sweepMu  sync.Mutex
	inFlight atomic.Bool
}

func NewBackupService(db *sql.DB, rm repomanager.RepositoryManager, store blob.Store, syncLog *SyncLogService, config *sc.Config, logger logging.Logger) *BackupService {
	return &BackupService{
		db:          db,
		repomanager: rm,
		store:       store,
		syncLog:     syncLog,
		config:      config,
		logger:      logger.With("component", "backup"),
	}
}

// BackupOne reads the asset's file (and thumbnail, when present) from the
// blob store and embeds the bytes into the catalog row. An unreadable
// thumbnail is not fatal; the main payload is.
func (s *BackupService) BackupOne(ctx context.Context, asset *models.MediaAsset) error {
	data, err := s.store.Read(ctx, asset.FilePath)
	if err != nil {
		s.syncLog.Record(ctx, asset, models.OperationBackup, models.StatusFailed, "failed to read file", err.Error())
		return fmt.Errorf("failed to read %s: %w", asset.FilePath, err)
	}
	if len(data) == 0 {
		err := fmt.Errorf("%w: empty file %s", common.ErrorValidation, asset.FilePath)
		s.syncLog.Record(ctx, asset, models.OperationBackup, models.StatusFailed, "empty file on disk", err.Error())
		return err
	}

	var thumbData []byte
	if asset.ThumbnailPath != "" && s.store.Exists(ctx, asset.ThumbnailPath) {
		thumbData, err = s.store.Read(ctx, asset.ThumbnailPath)
		if err != nil {
			s.logger.Warn(ctx, "failed to read thumbnail, embedding without it",
				"file", asset.FileName, "error", err.Error())
			thumbData = nil
		}
	}

	now := time.Now()
	if err := s.repomanager.Media(s.db).StoreBinary(ctx, asset.ID, data, thumbData, now); err != nil {
		s.syncLog.Record(ctx, asset, models.OperationBackup, models.StatusFailed, "failed to store binary data", err.Error())
		return err
	}

	asset.FileSize = int64(len(data))
	asset.IsStoredInDB = true
	asset.LastSynced = &now
	s.syncLog.Record(ctx, asset, models.OperationBackup, models.StatusSuccess, "file stored in database", "")
	return nil
}

// BackupAll embeds every catalog asset whose file exists on disk. Assets
// without a disk copy are skipped with an audit entry; they are the
// reconciler's problem, not the backup's. Only one sweep runs at a time.
func (s *BackupService) BackupAll(ctx context.Context) (*SyncReport, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, common.ErrorSyncInProgress
	}
	defer s.inFlight.Store(false)

	assets, err := s.repomanager.Media(s.db).SelectAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	report := &SyncReport{Total: len(assets)}

	for _, asset := range assets {
		if !s.store.Exists(ctx, asset.FilePath) {
			s.syncLog.Record(ctx, asset, models.OperationBackup, models.StatusSkipped, "file not found on disk", "")
			report.Skipped++
			continue
		}

		report.Processed++
		if err := s.BackupOne(ctx, asset); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, AssetError{FileName: asset.FileName, Reason: err.Error()})
			s.logger.Error(ctx, "failed to back up asset", "file", asset.FileName, "error", err.Error())
			continue
		}
		report.Success++
	}

	return report, nil
}

// RecordUpload bumps the upload counter and, once it reaches the configured
// threshold, runs a full backup sweep. The counter resets only after a sweep
// that actually ran; a sweep refused because another is in flight leaves the
// counter alone so the next upload retries.
func (s *BackupService) RecordUpload(ctx context.Context) {
	count := s.uploads.Add(1)
	if count < s.config.AutoBackupThreshold {
		return
	}

	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	if s.uploads.Load() < s.config.AutoBackupThreshold {
		// another caller already triggered the sweep
		return
	}

	s.logger.Info(ctx, "upload threshold reached, starting backup sweep", "uploads", count)

	report, err := s.BackupAll(ctx)
	if err != nil {
		s.logger.Error(ctx, "automatic backup sweep failed", "error", err.Error())
		return
	}

	s.uploads.Store(0)
	s.logger.Info(ctx, "automatic backup sweep finished",
		"total", report.Total, "success", report.Success,
		"failed", report.Failed, "skipped", report.Skipped)
}

// CreateSnapshot captures the current catalog descriptors into a new
// snapshot. Rows missing a stored name or path are incomplete and left out.
// Returns common.ErrorNothingToBackup for an empty catalog.
func (s *BackupService) CreateSnapshot(ctx context.Context) (*models.SnapshotBackup, error) {
	assets, err := s.repomanager.Media(s.db).SelectAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	if len(assets) == 0 {
		return nil, common.ErrorNothingToBackup
	}

	snapshot := &models.SnapshotBackup{
		ID:         uuid.New().String(),
		BackupDate: time.Now(),
	}

	for _, asset := range assets {
		if asset.FileName == "" || asset.FilePath == "" {
			s.logger.Warn(ctx, "skipping incomplete catalog row", "id", asset.ID)
			continue
		}
		snapshot.Items = append(snapshot.Items, models.SnapshotItem{
			ID:              uuid.New().String(),
			SnapshotID:      snapshot.ID,
			OriginalMediaID: asset.ID,
			FileName:        asset.FileName,
			OriginalName:    asset.OriginalName,
			FileType:        asset.FileType,
			FileSize:        asset.FileSize,
			FilePath:        asset.FilePath,
			ThumbnailPath:   asset.ThumbnailPath,
			Description:     asset.Description,
		})
	}
	if len(snapshot.Items) == 0 {
		return nil, common.ErrorNothingToBackup
	}
	snapshot.ItemCount = len(snapshot.Items)

	if err := s.repomanager.Snapshots(s.db).Create(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to create snapshot: %w", err)
	}

	s.logger.Info(ctx, "snapshot created", "id", snapshot.ID, "items", snapshot.ItemCount)
	return snapshot, nil
}

// RestoreSnapshot replaces the whole catalog with the descriptors captured
// in the snapshot, atomically. An empty id restores the latest snapshot.
// Restored rows carry no binary payloads and point at files that are expected
// to still exist on disk; the next reconciliation pass reports any that do
// not.
func (s *BackupService) RestoreSnapshot(ctx context.Context, id string) (*models.SnapshotBackup, error) {
	var snapshot *models.SnapshotBackup
	var err error
	if id == "" {
		snapshot, err = s.repomanager.Snapshots(s.db).GetLatest(ctx)
	} else {
		snapshot, err = s.repomanager.Snapshots(s.db).GetByID(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Media(tx)

		deleted, err := repo.DeleteAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to clear catalog: %w", err)
		}
		s.logger.Info(ctx, "cleared catalog for snapshot restore", "deleted", deleted)

		for _, item := range snapshot.Items {
			assetID := item.OriginalMediaID
			if assetID == "" {
				assetID = uuid.New().String()
			}
			asset := &models.MediaAsset{
				ID:            assetID,
				FileName:      item.FileName,
				OriginalName:  item.OriginalName,
				FileType:      item.FileType,
				FileSize:      item.FileSize,
				FilePath:      item.FilePath,
				ThumbnailPath: item.ThumbnailPath,
				Description:   item.Description,
				IsStoredInDB:  false,
				UploadDate:    snapshot.BackupDate,
			}
			if err := repo.Create(ctx, asset); err != nil {
				return fmt.Errorf("failed to restore %s: %w", item.FileName, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "snapshot restored", "id", snapshot.ID, "items", len(snapshot.Items))
	return snapshot, nil
}

// ListSnapshots returns available snapshots newest first, items not loaded.
func (s *BackupService) ListSnapshots(ctx context.Context) ([]*models.SnapshotBackup, error) {
	return s.repomanager.Snapshots(s.db).SelectAll(ctx)
}
