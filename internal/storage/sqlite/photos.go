package sqlite

import (
	"context"
	"fmt"

	"github.com/avolkov/orderledger/internal/storage"
)

const upsertPhotoSQL = `
	INSERT INTO photos (id, order_id, file_path)
	VALUES (?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	    order_id = excluded.order_id,
	    file_path = excluded.file_path`

// UpsertPhoto inserts the photo row or replaces an existing one.
func (s *SQLiteStore) UpsertPhoto(ctx context.Context, row storage.PhotoRow) error {
	_, err := s.db.ExecContext(ctx, upsertPhotoSQL, row.ID, row.OrderID, row.FilePath)
	if err != nil {
		return fmt.Errorf("failed to upsert photo: %w", err)
	}

	s.changes.Notify()
	return nil
}

// UpsertPhotos writes all rows in one transaction.
func (s *SQLiteStore) UpsertPhotos(ctx context.Context, rows []storage.PhotoRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, upsertPhotoSQL, row.ID, row.OrderID, row.FilePath); err != nil {
			return fmt.Errorf("failed to upsert photo %s: %w", row.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.changes.Notify()
	return nil
}

// ListPhotosByOrder retrieves all photo rows belonging to an order.
func (s *SQLiteStore) ListPhotosByOrder(ctx context.Context, orderID string) ([]storage.PhotoRow, error) {
	return queryPhotos(ctx, s.db,
		"SELECT id, order_id, file_path FROM photos WHERE order_id = ?", orderID)
}

// DeletePhoto removes a single photo row.
func (s *SQLiteStore) DeletePhoto(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM photos WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}

	s.changes.Notify()
	return nil
}

// DeletePhotoByPath removes the photo rows for an order that reference
// the given file path.
func (s *SQLiteStore) DeletePhotoByPath(ctx context.Context, orderID, filePath string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM photos WHERE order_id = ? AND file_path = ?", orderID, filePath); err != nil {
		return fmt.Errorf("failed to delete photo by path: %w", err)
	}

	s.changes.Notify()
	return nil
}

// DeletePhotosByOrder removes every photo belonging to an order.
func (s *SQLiteStore) DeletePhotosByOrder(ctx context.Context, orderID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM photos WHERE order_id = ?", orderID); err != nil {
		return fmt.Errorf("failed to delete photos for order: %w", err)
	}

	s.changes.Notify()
	return nil
}

func queryPhotos(ctx context.Context, q querier, query string, args ...any) ([]storage.PhotoRow, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query photos: %w", err)
	}
	defer rows.Close()

	var photos []storage.PhotoRow
	for rows.Next() {
		var p storage.PhotoRow
		if err := rows.Scan(&p.ID, &p.OrderID, &p.FilePath); err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate photos: %w", err)
	}
	return photos, nil
}
