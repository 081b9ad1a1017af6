package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/avolkov/orderledger/internal/models"
	"github.com/avolkov/orderledger/internal/storage"
	"github.com/avolkov/orderledger/pkg/retry"
)

// PhotoRepository reads and writes photo references, always scoped to a
// parent order. Callers work with file paths; the record IDs stay an
// implementation detail except for DeleteByID.
type PhotoRepository struct {
	store storage.Store
	retry retry.Policy
}

// NewPhotoRepository creates a PhotoRepository over the given store.
func NewPhotoRepository(store storage.Store, policy retry.Policy) *PhotoRepository {
	return &PhotoRepository{store: store, retry: policy}
}

// WatchByOrder streams the photo records of one order, re-emitting
// after every mutation until ctx is cancelled.
func (r *PhotoRepository) WatchByOrder(ctx context.Context, orderID string) <-chan []models.Photo {
	out := make(chan []models.Photo, 1)
	go watchLoop(ctx, r.store.Changes(), out, func(ctx context.Context) ([]models.Photo, error) {
		rows, err := r.store.ListPhotosByOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
		photos := make([]models.Photo, 0, len(rows))
		for _, row := range rows {
			photos = append(photos, models.Photo{ID: row.ID, OrderID: row.OrderID, FilePath: row.FilePath})
		}
		return photos, nil
	})
	return out
}

// Add attaches a photo file path to an order.
func (r *PhotoRepository) Add(ctx context.Context, filePath, orderID string) error {
	row := storage.PhotoRow{
		ID:       uuid.New().String(),
		OrderID:  orderID,
		FilePath: filePath,
	}
	return r.retry.Do(ctx, func() error {
		return r.store.UpsertPhoto(ctx, row)
	})
}

// AddBatch attaches several photo file paths to an order in one
// transaction-like call.
func (r *PhotoRepository) AddBatch(ctx context.Context, filePaths []string, orderID string) error {
	rows := make([]storage.PhotoRow, 0, len(filePaths))
	for _, path := range filePaths {
		rows = append(rows, storage.PhotoRow{
			ID:       uuid.New().String(),
			OrderID:  orderID,
			FilePath: path,
		})
	}
	return r.retry.Do(ctx, func() error {
		return r.store.UpsertPhotos(ctx, rows)
	})
}

// DeleteByID removes a single photo record.
func (r *PhotoRepository) DeleteByID(ctx context.Context, id string) error {
	return r.retry.Do(ctx, func() error {
		return r.store.DeletePhoto(ctx, id)
	})
}

// DeleteByPath removes the photo records of an order that reference the
// given file path.
func (r *PhotoRepository) DeleteByPath(ctx context.Context, filePath, orderID string) error {
	return r.retry.Do(ctx, func() error {
		return r.store.DeletePhotoByPath(ctx, orderID, filePath)
	})
}

// DeleteByOrder removes every photo belonging to an order.
func (r *PhotoRepository) DeleteByOrder(ctx context.Context, orderID string) error {
	return r.retry.Do(ctx, func() error {
		return r.store.DeletePhotosByOrder(ctx, orderID)
	})
}
