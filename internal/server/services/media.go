package services

import (
	"context"
	"database/sql"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/artfolio/mediakeeper/internal/common"
	"github.com/artfolio/mediakeeper/internal/logging"
	"github.com/artfolio/mediakeeper/internal/server/blob"
	sc "github.com/artfolio/mediakeeper/internal/server/config"
	"github.com/artfolio/mediakeeper/internal/server/models"
	"github.com/artfolio/mediakeeper/internal/server/repositories/repomanager"
	"github.com/artfolio/mediakeeper/internal/server/thumbs"
)

// mimeByExt lists the accepted upload extensions. Anything else is rejected
// before touching storage.
var mimeByExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
}

// MediaService is the catalog front door: uploads, lookups, listings and
// deletes. Durability concerns (embedding, reconciliation) live in the
// backup and reconciler services; uploads only feed the backup counter.
type MediaService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       blob.Store
	thumbs      thumbs.Generator
	backup      *BackupService
	config      *sc.Config
	logger      logging.Logger
}

func NewMediaService(db *sql.DB, rm repomanager.RepositoryManager, store blob.Store, gen thumbs.Generator, backup *BackupService, config *sc.Config, logger logging.Logger) *MediaService {
	return &MediaService{
		db:          db,
		repomanager: rm,
		store:       store,
		thumbs:      gen,
		backup:      backup,
		config:      config,
		logger:      logger.With("component", "media"),
	}
}

// sanitizeName keeps letters, digits, dots, dashes and underscores; every
// other byte becomes a dash. Keeps stored names safe as filesystem names and
// URL path segments.
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '-'
		}
	}, name)
}

// Upload validates and stores a new media file: bytes to the blob store, a
// catalog row to the database, and for images a generated thumbnail. The
// stored name gets a millisecond timestamp prefix so repeated uploads of the
// same original name never collide. A failed thumbnail never fails the
// upload.
func (s *MediaService) Upload(ctx context.Context, originalName string, data []byte, description string) (*models.MediaAsset, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", common.ErrorValidation)
	}
	if int64(len(data)) > s.config.MaxUploadSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", common.ErrorFileTooLarge, len(data), s.config.MaxUploadSize)
	}

	ext := strings.ToLower(path.Ext(originalName))
	mimeType, ok := mimeByExt[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrorUnsupportedFileType, ext)
	}
	isVideo := strings.HasPrefix(mimeType, "video/")

	exists, err := s.repomanager.Media(s.db).ExistsByNameAndSize(ctx, originalName, int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicates: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", common.ErrorDuplicateFile, originalName)
	}

	fileName := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), sanitizeName(originalName))
	filePath := "/uploads/" + fileName
	if isVideo {
		filePath = "/uploads/videos/" + fileName
	}

	if err := s.store.Write(ctx, filePath, data); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	thumbnailPath := ""
	if !isVideo {
		thumbData, err := s.thumbs.Generate(data)
		if err != nil {
			s.logger.Warn(ctx, "failed to generate thumbnail", "file", fileName, "error", err.Error())
		} else {
			candidate := "/uploads/thumbnails/thumb-" + fileName
			if err := s.store.Write(ctx, candidate, thumbData); err != nil {
				s.logger.Warn(ctx, "failed to store thumbnail", "file", fileName, "error", err.Error())
			} else {
				thumbnailPath = candidate
			}
		}
	}

	asset := &models.MediaAsset{
		ID:            uuid.New().String(),
		FileName:      fileName,
		OriginalName:  originalName,
		FileType:      mimeType,
		FileSize:      int64(len(data)),
		FilePath:      filePath,
		ThumbnailPath: thumbnailPath,
		Description:   description,
		UploadDate:    time.Now(),
	}

	if err := s.repomanager.Media(s.db).Create(ctx, asset); err != nil {
		// the blob write is orphaned; clean it up best-effort
		_ = s.store.Remove(ctx, filePath)
		if thumbnailPath != "" {
			_ = s.store.Remove(ctx, thumbnailPath)
		}
		return nil, fmt.Errorf("failed to create catalog entry: %w", err)
	}

	s.logger.Info(ctx, "upload stored", "file", fileName, "size", asset.FileSize)
	s.backup.RecordUpload(ctx)

	return asset, nil
}

// Get returns one catalog entry by id, metadata only.
func (s *MediaService) Get(ctx context.Context, id string) (*models.MediaAsset, error) {
	return s.repomanager.Media(s.db).GetByID(ctx, id)
}

// List returns one catalog page newest first plus the total row count.
func (s *MediaService) List(ctx context.Context, limit, offset int) ([]*models.MediaAsset, int64, error) {
	assets, err := s.repomanager.Media(s.db).SelectPage(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repomanager.Media(s.db).Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return assets, total, nil
}

// Delete removes the catalog row and then the blob copies. The row is the
// source of truth so it goes first; leftover files are harmless orphans and
// blob failures only log.
func (s *MediaService) Delete(ctx context.Context, id string) error {
	asset, err := s.repomanager.Media(s.db).GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repomanager.Media(s.db).Delete(ctx, id); err != nil {
		return err
	}

	if err := s.store.Remove(ctx, asset.FilePath); err != nil {
		s.logger.Warn(ctx, "failed to remove file", "file", asset.FileName, "error", err.Error())
	}
	if asset.ThumbnailPath != "" {
		if err := s.store.Remove(ctx, asset.ThumbnailPath); err != nil {
			s.logger.Warn(ctx, "failed to remove thumbnail", "file", asset.FileName, "error", err.Error())
		}
	}

	s.logger.Info(ctx, "asset deleted", "file", asset.FileName)
	return nil
}
