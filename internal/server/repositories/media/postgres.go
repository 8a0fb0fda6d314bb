package media

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/artfolio/mediakeeper/internal/common"
	"github.com/artfolio/mediakeeper/internal/dbx"
	"github.com/artfolio/mediakeeper/internal/server/models"
)

// PostgresRepository implements the media catalog over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const metadataColumns = `id, file_name, original_name, file_type, file_size,
		file_path, thumbnail_path, description, is_stored_in_db, last_synced, upload_date,
		file_data IS NOT NULL AND octet_length(file_data) > 0,
		thumbnail_data IS NOT NULL AND octet_length(thumbnail_data) > 0`

func scanMetadata(row interface{ Scan(...any) error }) (*models.MediaAsset, error) {
	var item models.MediaAsset
	var lastSynced sql.NullTime
	err := row.Scan(&item.ID, &item.FileName, &item.OriginalName, &item.FileType, &item.FileSize,
		&item.FilePath, &item.ThumbnailPath, &item.Description, &item.IsStoredInDB, &lastSynced, &item.UploadDate,
		&item.HasFileData, &item.HasThumbnailData)
	if err != nil {
		return nil, err
	}
	if lastSynced.Valid {
		item.LastSynced = &lastSynced.Time
	}
	return &item, nil
}

func (r *PostgresRepository) Create(ctx context.Context, m *models.MediaAsset) error {
	query := `
		INSERT INTO media_assets (id, file_name, original_name, file_type, file_size,
			file_path, thumbnail_path, description, is_stored_in_db, upload_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	res, err := r.db.ExecContext(ctx, query,
		m.ID, m.FileName, m.OriginalName, m.FileType, m.FileSize,
		m.FilePath, m.ThumbnailPath, m.Description, m.IsStoredInDB, m.UploadDate)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.MediaAsset, error) {
	query := `SELECT ` + metadataColumns + ` FROM media_assets WHERE id=$1`
	item, err := scanMetadata(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select media asset: %w", err)
	}
	return item, nil
}

func (r *PostgresRepository) ExistsByNameAndSize(ctx context.Context, originalName string, size int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM media_assets WHERE original_name=$1 AND file_size=$2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, originalName, size).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check duplicate: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) SelectAll(ctx context.Context) ([]*models.MediaAsset, error) {
	query := `SELECT ` + metadataColumns + ` FROM media_assets`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select media assets: %w", err)
	}
	defer rows.Close()

	var result []*models.MediaAsset
	for rows.Next() {
		item, err := scanMetadata(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) SelectPage(ctx context.Context, limit, offset int) ([]*models.MediaAsset, error) {
	query := `SELECT ` + metadataColumns + ` FROM media_assets
		ORDER BY upload_date DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to select media assets: %w", err)
	}
	defer rows.Close()

	var result []*models.MediaAsset
	for rows.Next() {
		item, err := scanMetadata(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM media_assets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count media assets: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) GetBinary(ctx context.Context, id string) (*models.MediaBinary, error) {
	query := `SELECT file_data, thumbnail_data FROM media_assets WHERE id=$1`
	bin := &models.MediaBinary{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&bin.FileData, &bin.ThumbnailData)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select binary data: %w", err)
	}
	return bin, nil
}

func (r *PostgresRepository) StoreBinary(ctx context.Context, id string, fileData, thumbnailData []byte, syncedAt time.Time) error {
	query := `
		UPDATE media_assets
		SET file_data=$2, thumbnail_data=$3, file_size=octet_length($2),
			is_stored_in_db=TRUE, last_synced=$4
		WHERE id=$1
	`
	res, err := r.db.ExecContext(ctx, query, id, fileData, thumbnailData, syncedAt)
	if err != nil {
		return fmt.Errorf("failed to store binary data: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) MarkSynced(ctx context.Context, id string, thumbnailPath string, syncedAt time.Time) error {
	query := `UPDATE media_assets SET thumbnail_path=$2, last_synced=$3 WHERE id=$1`
	res, err := r.db.ExecContext(ctx, query, id, thumbnailPath, syncedAt)
	if err != nil {
		return fmt.Errorf("failed to mark synced: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM media_assets WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete media asset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM media_assets`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear media assets: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
