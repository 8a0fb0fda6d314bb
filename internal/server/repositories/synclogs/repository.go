package synclogs

import (
	"context"
	"time"

	"github.com/artfolio/mediakeeper/internal/server/models"
)

// Filter narrows a sync-log query. Zero values mean "no constraint";
// FileNameSubstring matches case-insensitively anywhere in the file name.
type Filter struct {
	Operation         models.SyncOperation
	Status            models.SyncStatus
	FileNameSubstring string
	Limit             int
	Offset            int
}

// Repository is the append-mostly audit trail. Entries are never updated;
// DeleteOlderThan implements the retention sweep.
type Repository interface {
	Create(ctx context.Context, entry *models.SyncLogEntry) error
	Select(ctx context.Context, f Filter) ([]*models.SyncLogEntry, error)
	DeleteOlderThan(ctx context.Context, threshold time.Time) (int64, error)
}
