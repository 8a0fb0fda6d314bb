package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/artfolio/mediakeeper/internal/common"
	"github.com/artfolio/mediakeeper/internal/server/models"
)

func newReconcilerFixture(t *testing.T) (*fixture, *Reconciler) {
	t.Helper()
	f := newFixture(t)
	r := NewReconciler(f.db, f.rm, f.store, f.syncLog, newTestLogger())
	return f, r
}

func TestReconcileAll_RestoresMissingFiles(t *testing.T) {
	f, r := newReconcilerFixture(t)
	ctx := context.Background()

	// A: missing from disk, has an embedded copy with a thumbnail
	f.media.assets = append(f.media.assets, &models.MediaAsset{
		ID: "a", FileName: "1-a.jpg", FilePath: "/uploads/1-a.jpg",
		ThumbnailPath: "/uploads/thumbnails/thumb-1-a.jpg",
		FileType:      "image/jpeg", HasFileData: true,
	})
	f.media.binaries["a"] = &models.MediaBinary{
		FileData:      []byte("a-bytes"),
		ThumbnailData: []byte("a-thumb"),
	}

	// B: present on disk, untouched
	f.media.assets = append(f.media.assets, &models.MediaAsset{
		ID: "b", FileName: "2-b.jpg", FilePath: "/uploads/2-b.jpg",
		FileType: "image/jpeg", HasFileData: true,
	})
	f.store.files["/uploads/2-b.jpg"] = []byte("b-bytes")
	f.media.binaries["b"] = &models.MediaBinary{FileData: []byte("b-bytes")}

	// C: missing from disk, never backed up
	f.media.assets = append(f.media.assets, &models.MediaAsset{
		ID: "c", FileName: "3-c.jpg", FilePath: "/uploads/3-c.jpg",
		FileType: "image/jpeg",
	})

	report, err := r.ReconcileAll(ctx)
	if err != nil {
		t.Fatalf("ReconcileAll error: %v", err)
	}

	if report.Total != 3 || report.Missing != 2 || report.Restored != 1 || report.Failed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(report.Errors) != 1 || report.Errors[0].FileName != "3-c.jpg" {
		t.Fatalf("unexpected errors: %+v", report.Errors)
	}

	if string(f.store.files["/uploads/1-a.jpg"]) != "a-bytes" {
		t.Fatalf("file not restored")
	}
	if string(f.store.files["/uploads/thumbnails/thumb-1-a.jpg"]) != "a-thumb" {
		t.Fatalf("thumbnail not restored")
	}
	if f.media.marked["a"] != "/uploads/thumbnails/thumb-1-a.jpg" {
		t.Fatalf("asset not marked synced: %+v", f.media.marked)
	}
	if f.logs.count(models.OperationRestore, models.StatusSuccess) != 1 {
		t.Fatalf("expected one restore/success log entry, got %+v", f.logs.entries)
	}
}

func TestReconcileAll_Idempotent(t *testing.T) {
	f, r := newReconcilerFixture(t)
	ctx := context.Background()

	f.media.assets = append(f.media.assets, &models.MediaAsset{
		ID: "a", FileName: "1-a.jpg", FilePath: "/uploads/1-a.jpg",
		FileType: "image/jpeg", HasFileData: true,
	})
	f.media.binaries["a"] = &models.MediaBinary{FileData: []byte("a-bytes")}

	first, err := r.ReconcileAll(ctx)
	if err != nil {
		t.Fatalf("first pass error: %v", err)
	}
	if first.Restored != 1 {
		t.Fatalf("first pass did not restore: %+v", first)
	}

	second, err := r.ReconcileAll(ctx)
	if err != nil {
		t.Fatalf("second pass error: %v", err)
	}
	if second.Missing != 0 || second.Restored != 0 || second.Failed != 0 {
		t.Fatalf("second pass not a no-op: %+v", second)
	}
	if f.logs.count(models.OperationRestore, models.StatusSuccess) != 1 {
		t.Fatalf("second pass logged extra restores")
	}
}

func TestReconcileAll_MissingThumbnailOnly(t *testing.T) {
	f, r := newReconcilerFixture(t)
	ctx := context.Background()

	f.media.assets = append(f.media.assets, &models.MediaAsset{
		ID: "a", FileName: "1-a.jpg", FilePath: "/uploads/1-a.jpg",
		ThumbnailPath: "/uploads/thumbnails/thumb-1-a.jpg",
		FileType:      "image/jpeg", HasFileData: true,
	})
	f.store.files["/uploads/1-a.jpg"] = []byte("a-bytes")
	f.media.binaries["a"] = &models.MediaBinary{
		FileData:      []byte("a-bytes"),
		ThumbnailData: []byte("a-thumb"),
	}

	report, err := r.ReconcileAll(ctx)
	if err != nil {
		t.Fatalf("ReconcileAll error: %v", err)
	}
	if report.Missing != 1 || report.Restored != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if string(f.store.files["/uploads/thumbnails/thumb-1-a.jpg"]) != "a-thumb" {
		t.Fatalf("thumbnail not restored")
	}
}

func TestReconcileAll_WriteFailureCountsAsFailed(t *testing.T) {
	f, r := newReconcilerFixture(t)
	ctx := context.Background()

	f.media.assets = append(f.media.assets, &models.MediaAsset{
		ID: "a", FileName: "1-a.jpg", FilePath: "/uploads/1-a.jpg",
		FileType: "image/jpeg", HasFileData: true,
	})
	f.media.binaries["a"] = &models.MediaBinary{FileData: []byte("a-bytes")}
	f.store.writeErr["/uploads/1-a.jpg"] = errors.New("disk full")

	report, err := r.ReconcileAll(ctx)
	if err != nil {
		t.Fatalf("ReconcileAll error: %v", err)
	}
	if report.Failed != 1 || report.Restored != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if f.logs.count(models.OperationRestore, models.StatusFailed) != 1 {
		t.Fatalf("expected one restore/failed log entry")
	}
}

func TestReconcileAll_RefusesConcurrentRuns(t *testing.T) {
	_, r := newReconcilerFixture(t)

	r.inFlight.Store(true)
	_, err := r.ReconcileAll(context.Background())
	if !errors.Is(err, common.ErrorSyncInProgress) {
		t.Fatalf("want ErrorSyncInProgress, got %v", err)
	}

	r.inFlight.Store(false)
	if _, err := r.ReconcileAll(context.Background()); err != nil {
		t.Fatalf("expected run after release, got %v", err)
	}
}

func TestRestoreAll_SkipsAssetsWithoutData(t *testing.T) {
	f, r := newReconcilerFixture(t)
	ctx := context.Background()

	f.media.assets = append(f.media.assets,
		&models.MediaAsset{ID: "a", FileName: "1-a.jpg", FilePath: "/uploads/1-a.jpg", HasFileData: true},
		&models.MediaAsset{ID: "b", FileName: "2-b.jpg", FilePath: "/uploads/2-b.jpg"},
	)
	f.media.binaries["a"] = &models.MediaBinary{FileData: []byte("a-bytes")}

	// the file already exists; restore overwrites anyway
	f.store.files["/uploads/1-a.jpg"] = []byte("stale")

	report, err := r.RestoreAll(ctx)
	if err != nil {
		t.Fatalf("RestoreAll error: %v", err)
	}
	if report.Total != 2 || report.Processed != 1 || report.Success != 1 || report.Skipped != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if string(f.store.files["/uploads/1-a.jpg"]) != "a-bytes" {
		t.Fatalf("stale file not overwritten")
	}
	if f.logs.count(models.OperationRestore, models.StatusSkipped) != 1 {
		t.Fatalf("expected one restore/skipped log entry")
	}
}

func TestRestoreAll_StampsLastSynced(t *testing.T) {
	f, r := newReconcilerFixture(t)

	asset := &models.MediaAsset{ID: "a", FileName: "1-a.jpg", FilePath: "/uploads/1-a.jpg", HasFileData: true}
	f.media.assets = append(f.media.assets, asset)
	f.media.binaries["a"] = &models.MediaBinary{FileData: []byte("a-bytes")}

	before := time.Now()
	if _, err := r.RestoreAll(context.Background()); err != nil {
		t.Fatalf("RestoreAll error: %v", err)
	}
	if asset.LastSynced == nil || asset.LastSynced.Before(before) {
		t.Fatalf("LastSynced not stamped: %v", asset.LastSynced)
	}
}
