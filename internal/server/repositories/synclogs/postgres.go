package synclogs

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/artfolio/mediakeeper/internal/dbx"
	"github.com/artfolio/mediakeeper/internal/server/models"
)

const defaultLimit = 50

// PostgresRepository implements the sync log over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, entry *models.SyncLogEntry) error {
	query := `
		INSERT INTO sync_logs (id, file_name, file_type, file_size, operation, status,
			message, error_details, environment, logged_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	res, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.FileName, entry.FileType, entry.FileSize, string(entry.Operation),
		string(entry.Status), entry.Message, entry.ErrorDetails, entry.Environment, entry.Timestamp)
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

// Select returns entries newest first. The WHERE clause is assembled from the
// non-zero filter fields only.
func (r *PostgresRepository) Select(ctx context.Context, f Filter) ([]*models.SyncLogEntry, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, file_name, file_type, file_size, operation, status,
		message, error_details, environment, logged_at FROM sync_logs`)

	var conds []string
	var args []any
	if f.Operation != "" {
		args = append(args, string(f.Operation))
		conds = append(conds, "operation=$"+strconv.Itoa(len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, "status=$"+strconv.Itoa(len(args)))
	}
	if f.FileNameSubstring != "" {
		args = append(args, "%"+f.FileNameSubstring+"%")
		conds = append(conds, "file_name ILIKE $"+strconv.Itoa(len(args)))
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	args = append(args, limit)
	sb.WriteString(" ORDER BY logged_at DESC LIMIT $" + strconv.Itoa(len(args)))
	args = append(args, f.Offset)
	sb.WriteString(" OFFSET $" + strconv.Itoa(len(args)))

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select sync logs: %w", err)
	}
	defer rows.Close()

	var result []*models.SyncLogEntry
	for rows.Next() {
		var item models.SyncLogEntry
		if err := rows.Scan(&item.ID, &item.FileName, &item.FileType, &item.FileSize,
			&item.Operation, &item.Status, &item.Message, &item.ErrorDetails,
			&item.Environment, &item.Timestamp); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) DeleteOlderThan(ctx context.Context, threshold time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sync_logs WHERE logged_at < $1`, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to purge sync logs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
