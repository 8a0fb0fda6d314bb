package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/artfolio/mediakeeper/internal/common"
	"github.com/artfolio/mediakeeper/internal/dbx"
	"github.com/artfolio/mediakeeper/internal/logging"
	sc "github.com/artfolio/mediakeeper/internal/server/config"
	"github.com/artfolio/mediakeeper/internal/server/models"
	"github.com/artfolio/mediakeeper/internal/server/repositories/media"
	"github.com/artfolio/mediakeeper/internal/server/repositories/repomanager"
	"github.com/artfolio/mediakeeper/internal/server/repositories/snapshots"
	"github.com/artfolio/mediakeeper/internal/server/repositories/synclogs"
)

// -------- test fakes --------

type fakeMediaRepo struct {
	media.Repository

	assets   []*models.MediaAsset
	binaries map[string]*models.MediaBinary

	dupExists bool
	selectErr error
	createErr error

	created []*models.MediaAsset
	deleted []string
	cleared int64
	stored  map[string][]byte
	marked  map[string]string
}

func newFakeMediaRepo() *fakeMediaRepo {
	return &fakeMediaRepo{
		binaries: map[string]*models.MediaBinary{},
		stored:   map[string][]byte{},
		marked:   map[string]string{},
	}
}

func (f *fakeMediaRepo) Create(ctx context.Context, m *models.MediaAsset) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, m)
	f.assets = append(f.assets, m)
	return nil
}

func (f *fakeMediaRepo) GetByID(ctx context.Context, id string) (*models.MediaAsset, error) {
	for _, a := range f.assets {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeMediaRepo) ExistsByNameAndSize(ctx context.Context, originalName string, size int64) (bool, error) {
	return f.dupExists, nil
}

func (f *fakeMediaRepo) SelectAll(ctx context.Context) ([]*models.MediaAsset, error) {
	return f.assets, f.selectErr
}

func (f *fakeMediaRepo) SelectPage(ctx context.Context, limit, offset int) ([]*models.MediaAsset, error) {
	return f.assets, nil
}

func (f *fakeMediaRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(f.assets)), nil
}

func (f *fakeMediaRepo) GetBinary(ctx context.Context, id string) (*models.MediaBinary, error) {
	if bin, ok := f.binaries[id]; ok {
		return bin, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeMediaRepo) StoreBinary(ctx context.Context, id string, fileData, thumbnailData []byte, syncedAt time.Time) error {
	f.stored[id] = fileData
	f.binaries[id] = &models.MediaBinary{FileData: fileData, ThumbnailData: thumbnailData}
	for _, a := range f.assets {
		if a.ID == id {
			a.FileSize = int64(len(fileData))
			a.IsStoredInDB = true
			a.HasFileData = true
			a.LastSynced = &syncedAt
		}
	}
	return nil
}

func (f *fakeMediaRepo) MarkSynced(ctx context.Context, id string, thumbnailPath string, syncedAt time.Time) error {
	f.marked[id] = thumbnailPath
	for _, a := range f.assets {
		if a.ID == id {
			a.ThumbnailPath = thumbnailPath
			a.LastSynced = &syncedAt
		}
	}
	return nil
}

func (f *fakeMediaRepo) Delete(ctx context.Context, id string) error {
	for i, a := range f.assets {
		if a.ID == id {
			f.assets = append(f.assets[:i], f.assets[i+1:]...)
			f.deleted = append(f.deleted, id)
			return nil
		}
	}
	return common.ErrorNotFound
}

func (f *fakeMediaRepo) DeleteAll(ctx context.Context) (int64, error) {
	n := int64(len(f.assets))
	f.assets = nil
	f.cleared += n
	return n, nil
}

type fakeSyncLogsRepo struct {
	synclogs.Repository

	entries   []*models.SyncLogEntry
	createErr error

	purgedBefore time.Time
	purged       int64
}

func (f *fakeSyncLogsRepo) Create(ctx context.Context, entry *models.SyncLogEntry) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeSyncLogsRepo) Select(ctx context.Context, filter synclogs.Filter) ([]*models.SyncLogEntry, error) {
	return f.entries, nil
}

func (f *fakeSyncLogsRepo) DeleteOlderThan(ctx context.Context, threshold time.Time) (int64, error) {
	f.purgedBefore = threshold
	return f.purged, nil
}

func (f *fakeSyncLogsRepo) count(op models.SyncOperation, status models.SyncStatus) int {
	n := 0
	for _, e := range f.entries {
		if e.Operation == op && e.Status == status {
			n++
		}
	}
	return n
}

type fakeSnapshotsRepo struct {
	snapshots.Repository

	saved     []*models.SnapshotBackup
	latest    *models.SnapshotBackup
	latestErr error
}

func (f *fakeSnapshotsRepo) Create(ctx context.Context, s *models.SnapshotBackup) error {
	f.saved = append(f.saved, s)
	return nil
}

func (f *fakeSnapshotsRepo) GetByID(ctx context.Context, id string) (*models.SnapshotBackup, error) {
	if f.latest != nil && f.latest.ID == id {
		return f.latest, nil
	}
	for _, s := range f.saved {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeSnapshotsRepo) GetLatest(ctx context.Context) (*models.SnapshotBackup, error) {
	if f.latestErr != nil {
		return nil, f.latestErr
	}
	if f.latest == nil {
		return nil, common.ErrorNotFound
	}
	return f.latest, nil
}

func (f *fakeSnapshotsRepo) SelectAll(ctx context.Context) ([]*models.SnapshotBackup, error) {
	return f.saved, nil
}

type fakeRepoManager struct {
	repomanager.RepositoryManager
	m *fakeMediaRepo
	l *fakeSyncLogsRepo
	s *fakeSnapshotsRepo
}

func (f *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }
func (f *fakeRepoManager) Media(db dbx.DBTX) media.Repository                  { return f.m }
func (f *fakeRepoManager) SyncLogs(db dbx.DBTX) synclogs.Repository            { return f.l }
func (f *fakeRepoManager) Snapshots(db dbx.DBTX) snapshots.Repository          { return f.s }

// fakeStore is an in-memory blob store with per-path fault injection.
type fakeStore struct {
	files    map[string][]byte
	readErr  map[string]error
	writeErr map[string]error
	removed  []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		files:    map[string][]byte{},
		readErr:  map[string]error{},
		writeErr: map[string]error{},
	}
}

func (f *fakeStore) Exists(ctx context.Context, relPath string) bool {
	_, ok := f.files[relPath]
	return ok
}

func (f *fakeStore) Read(ctx context.Context, relPath string) ([]byte, error) {
	if err, ok := f.readErr[relPath]; ok {
		return nil, err
	}
	if data, ok := f.files[relPath]; ok {
		return data, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeStore) Write(ctx context.Context, relPath string, data []byte) error {
	if err, ok := f.writeErr[relPath]; ok {
		return err
	}
	f.files[relPath] = data
	return nil
}

func (f *fakeStore) Remove(ctx context.Context, relPath string) error {
	delete(f.files, relPath)
	f.removed = append(f.removed, relPath)
	return nil
}

type fakeThumbs struct {
	out   []byte
	err   error
	calls int
}

func (f *fakeThumbs) Generate(data []byte) ([]byte, error) {
	f.calls++
	return f.out, f.err
}

// -------- helpers --------

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func newTestLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestConfig() *sc.Config {
	cfg := &sc.Config{}
	cfg.LoadDefaults()
	return cfg
}

type fixture struct {
	db      *sql.DB
	mock    sqlmock.Sqlmock
	media   *fakeMediaRepo
	logs    *fakeSyncLogsRepo
	snaps   *fakeSnapshotsRepo
	rm      *fakeRepoManager
	store   *fakeStore
	cfg     *sc.Config
	syncLog *SyncLogService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock := newSQLMockDB(t)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		db:    db,
		mock:  mock,
		media: newFakeMediaRepo(),
		logs:  &fakeSyncLogsRepo{},
		snaps: &fakeSnapshotsRepo{},
		store: newFakeStore(),
		cfg:   newTestConfig(),
	}
	f.rm = &fakeRepoManager{m: f.media, l: f.logs, s: f.snaps}
	f.syncLog = NewSyncLogService(db, f.rm, f.cfg, newTestLogger())
	return f
}
