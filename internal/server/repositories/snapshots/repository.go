package snapshots

import (
	"context"

	"github.com/artfolio/mediakeeper/internal/server/models"
)

// Repository stores point-in-time snapshot backups. Snapshots are written
// once and read wholesale; the most recent by backup date is the default
// restore target.
type Repository interface {
	Create(ctx context.Context, s *models.SnapshotBackup) error

	// GetByID loads a snapshot including its items.
	GetByID(ctx context.Context, id string) (*models.SnapshotBackup, error)

	// GetLatest loads the most recent snapshot including its items.
	// Returns common.ErrorNotFound when no snapshot exists.
	GetLatest(ctx context.Context) (*models.SnapshotBackup, error)

	// SelectAll lists snapshots newest first with item counts, without items.
	SelectAll(ctx context.Context) ([]*models.SnapshotBackup, error)
}
