package media

import (
	"context"
	"time"

	"github.com/artfolio/mediakeeper/internal/server/models"
)

// Repository is the media catalog. Metadata scans never load the embedded
// binary columns; payloads move through GetBinary/StoreBinary.
type Repository interface {
	Create(ctx context.Context, m *models.MediaAsset) error
	GetByID(ctx context.Context, id string) (*models.MediaAsset, error)
	ExistsByNameAndSize(ctx context.Context, originalName string, size int64) (bool, error)

	// SelectAll returns every catalog row, metadata only, with
	// HasFileData/HasThumbnailData set from payload presence.
	SelectAll(ctx context.Context) ([]*models.MediaAsset, error)
	SelectPage(ctx context.Context, limit, offset int) ([]*models.MediaAsset, error)
	Count(ctx context.Context) (int64, error)

	GetBinary(ctx context.Context, id string) (*models.MediaBinary, error)

	// StoreBinary embeds the payloads, reconciles file_size with the stored
	// bytes and stamps is_stored_in_db/last_synced.
	StoreBinary(ctx context.Context, id string, fileData, thumbnailData []byte, syncedAt time.Time) error

	// MarkSynced records a successful restore: updates the thumbnail path
	// (restores may re-derive it) and last_synced.
	MarkSynced(ctx context.Context, id string, thumbnailPath string, syncedAt time.Time) error

	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
}
