package repomanager

import (
	"context"
	"database/sql"

	"github.com/artfolio/mediakeeper/internal/dbx"
	"github.com/artfolio/mediakeeper/internal/server/repositories/media"
	"github.com/artfolio/mediakeeper/internal/server/repositories/snapshots"
	"github.com/artfolio/mediakeeper/internal/server/repositories/synclogs"
)

// RepositoryManager hands out repositories bound to a DBTX, so a service can
// run several repositories against the same transaction.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Media(db dbx.DBTX) media.Repository
	SyncLogs(db dbx.DBTX) synclogs.Repository
	Snapshots(db dbx.DBTX) snapshots.Repository
}
