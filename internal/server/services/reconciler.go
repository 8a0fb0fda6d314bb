package services

import (
	"context"
	"database/sql"
	"fmt"
	"path"
	"sync/atomic"
	"time"

	"github.com/artfolio/mediakeeper/internal/common"
	"github.com/artfolio/mediakeeper/internal/logging"
	"github.com/artfolio/mediakeeper/internal/server/blob"
	"github.com/artfolio/mediakeeper/internal/server/models"
	"github.com/artfolio/mediakeeper/internal/server/repositories/repomanager"
)

// AssetError names one asset that could not be repaired and why.
type AssetError struct {
	FileName string
	Reason   string
}

// ReconcileReport aggregates one reconciliation pass. Assets that are
// missing with no embedded backup count under Missing and appear in Errors,
// but do not increment Failed: they are a permanent gap, not a transient
// failure.
type ReconcileReport struct {
	Total    int
	Missing  int
	Restored int
	Failed   int
	Errors   []AssetError
}

// SyncReport aggregates a full backup or restore sweep.
type SyncReport struct {
	Total     int
	Processed int
	Success   int
	Failed    int
	Skipped   int
	Errors    []AssetError
}

// Reconciler detects drift between the media catalog and the blob store and
// repairs it from the embedded binary copies.
type Reconciler struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       blob.Store
	syncLog     *SyncLogService
	logger      logging.Logger

	inFlight atomic.Bool
}

func NewReconciler(db *sql.DB, rm repomanager.RepositoryManager, store blob.Store, syncLog *SyncLogService, logger logging.Logger) *Reconciler {
	return &Reconciler{
		db:          db,
		repomanager: rm,
		store:       store,
		syncLog:     syncLog,
		logger:      logger.With("component", "reconciler"),
	}
}

// ReconcileAll walks the whole catalog, restores every asset whose file (or
// thumbnail) is absent from the blob store and has an embedded copy, and
// reports the aggregate outcome. Repeated calls converge: once files are
// present nothing is written.
//
// Per-asset failures never abort the pass. Only one pass runs at a time;
// concurrent calls fail fast with common.ErrorSyncInProgress since writing
// the same bytes twice is harmless but wastes I/O.
func (r *Reconciler) ReconcileAll(ctx context.Context) (*ReconcileReport, error) {
	if !r.inFlight.CompareAndSwap(false, true) {
		return nil, common.ErrorSyncInProgress
	}
	defer r.inFlight.Store(false)

	assets, err := r.repomanager.Media(r.db).SelectAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	report := &ReconcileReport{Total: len(assets)}

	for _, asset := range assets {
		mainExists := r.store.Exists(ctx, asset.FilePath)
		thumbExists := asset.ThumbnailPath == "" || r.store.Exists(ctx, asset.ThumbnailPath)
		if mainExists && thumbExists {
			continue
		}

		report.Missing++

		if !asset.HasFileData {
			// Permanent gap: nothing to restore from.
			report.Errors = append(report.Errors, AssetError{
				FileName: asset.FileName,
				Reason:   "file missing and no binary data in database",
			})
			r.logger.Warn(ctx, "missing file with no backup", "file", asset.FileName)
			continue
		}

		if err := r.restoreAsset(ctx, asset); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, AssetError{FileName: asset.FileName, Reason: err.Error()})
			r.logger.Error(ctx, "failed to restore asset", "file", asset.FileName, "error", err.Error())
			continue
		}

		report.Restored++
		r.logger.Info(ctx, "restored asset", "file", asset.FileName)
	}

	return report, nil
}

// restoreAsset writes the embedded copies back to the blob store and stamps
// the catalog row. The thumbnail path is re-derived from the main file name,
// matching how thumbnails are laid out at upload time.
func (r *Reconciler) restoreAsset(ctx context.Context, asset *models.MediaAsset) error {
	bin, err := r.repomanager.Media(r.db).GetBinary(ctx, asset.ID)
	if err != nil {
		r.syncLog.Record(ctx, asset, models.OperationRestore, models.StatusFailed, "failed to load binary data", err.Error())
		return err
	}
	if len(bin.FileData) == 0 {
		err := fmt.Errorf("%w: no binary data for %s", common.ErrorDataIntegrity, asset.FileName)
		r.syncLog.Record(ctx, asset, models.OperationRestore, models.StatusFailed, "no binary data in database", err.Error())
		return err
	}

	if err := r.store.Write(ctx, asset.FilePath, bin.FileData); err != nil {
		r.syncLog.Record(ctx, asset, models.OperationRestore, models.StatusFailed, "failed to write file", err.Error())
		return err
	}

	thumbnailPath := asset.ThumbnailPath
	if len(bin.ThumbnailData) > 0 {
		thumbnailPath = "/uploads/thumbnails/thumb-" + path.Base(asset.FilePath)
		if err := r.store.Write(ctx, thumbnailPath, bin.ThumbnailData); err != nil {
			r.syncLog.Record(ctx, asset, models.OperationRestore, models.StatusFailed, "failed to write thumbnail", err.Error())
			return err
		}
	}

	now := time.Now()
	if err := r.repomanager.Media(r.db).MarkSynced(ctx, asset.ID, thumbnailPath, now); err != nil {
		r.syncLog.Record(ctx, asset, models.OperationRestore, models.StatusFailed, "failed to update catalog", err.Error())
		return err
	}

	asset.ThumbnailPath = thumbnailPath
	asset.LastSynced = &now
	r.syncLog.Record(ctx, asset, models.OperationRestore, models.StatusSuccess, "file restored from database", "")
	return nil
}

// RestoreAll force-rewrites every asset that has an embedded copy back to
// the blob store, skipping assets without one. Unlike ReconcileAll it does
// not check for drift first; it is the sweep behind the operator's
// "restore everything" action.
func (r *Reconciler) RestoreAll(ctx context.Context) (*SyncReport, error) {
	if !r.inFlight.CompareAndSwap(false, true) {
		return nil, common.ErrorSyncInProgress
	}
	defer r.inFlight.Store(false)

	assets, err := r.repomanager.Media(r.db).SelectAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	report := &SyncReport{Total: len(assets)}

	for _, asset := range assets {
		if !asset.HasFileData {
			r.syncLog.Record(ctx, asset, models.OperationRestore, models.StatusSkipped, "no binary data in database", "")
			report.Skipped++
			continue
		}

		report.Processed++
		if err := r.restoreAsset(ctx, asset); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, AssetError{FileName: asset.FileName, Reason: err.Error()})
			continue
		}
		report.Success++
	}

	return report, nil
}
