package snapshots

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/artfolio/mediakeeper/internal/common"
	"github.com/artfolio/mediakeeper/internal/dbx"
	"github.com/artfolio/mediakeeper/internal/server/models"
)

// PostgresRepository implements snapshot storage over a dbx.DBTX. Creating a
// snapshot inserts the header row plus one row per item; callers that need
// the insert to be all-or-nothing pass a transactional DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.SnapshotBackup) error {
	query := `INSERT INTO snapshot_backups (id, backup_date) VALUES ($1, $2);`
	if _, err := r.db.ExecContext(ctx, query, s.ID, s.BackupDate); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	itemQuery := `
		INSERT INTO snapshot_items (id, snapshot_id, original_media_id, file_name,
			original_name, file_type, file_size, file_path, thumbnail_path, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	for i := range s.Items {
		item := &s.Items[i]
		if _, err := r.db.ExecContext(ctx, itemQuery,
			item.ID, s.ID, item.OriginalMediaID, item.FileName, item.OriginalName,
			item.FileType, item.FileSize, item.FilePath, item.ThumbnailPath, item.Description); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.SnapshotBackup, error) {
	query := `SELECT id, backup_date FROM snapshot_backups WHERE id=$1`
	s := &models.SnapshotBackup{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.BackupDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select snapshot: %w", err)
	}
	if err := r.loadItems(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *PostgresRepository) GetLatest(ctx context.Context) (*models.SnapshotBackup, error) {
	query := `SELECT id, backup_date FROM snapshot_backups ORDER BY backup_date DESC LIMIT 1`
	s := &models.SnapshotBackup{}
	err := r.db.QueryRowContext(ctx, query).Scan(&s.ID, &s.BackupDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select snapshot: %w", err)
	}
	if err := r.loadItems(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *PostgresRepository) loadItems(ctx context.Context, s *models.SnapshotBackup) error {
	query := `
		SELECT id, snapshot_id, original_media_id, file_name, original_name,
			file_type, file_size, file_path, thumbnail_path, description
		FROM snapshot_items WHERE snapshot_id=$1
	`
	rows, err := r.db.QueryContext(ctx, query, s.ID)
	if err != nil {
		return fmt.Errorf("failed to select snapshot items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.SnapshotItem
		if err := rows.Scan(&item.ID, &item.SnapshotID, &item.OriginalMediaID,
			&item.FileName, &item.OriginalName, &item.FileType, &item.FileSize,
			&item.FilePath, &item.ThumbnailPath, &item.Description); err != nil {
			return err
		}
		s.Items = append(s.Items, item)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	s.ItemCount = len(s.Items)
	return nil
}

func (r *PostgresRepository) SelectAll(ctx context.Context) ([]*models.SnapshotBackup, error) {
	query := `
		SELECT b.id, b.backup_date, COUNT(i.id)
		FROM snapshot_backups b
		LEFT JOIN snapshot_items i ON i.snapshot_id = b.id
		GROUP BY b.id, b.backup_date
		ORDER BY b.backup_date DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select snapshots: %w", err)
	}
	defer rows.Close()

	var result []*models.SnapshotBackup
	for rows.Next() {
		var s models.SnapshotBackup
		if err := rows.Scan(&s.ID, &s.BackupDate, &s.ItemCount); err != nil {
			return nil, err
		}
		result = append(result, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
