package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/avolkov/orderledger/internal/models"
	"github.com/avolkov/orderledger/internal/storage"
	"github.com/avolkov/orderledger/pkg/retry"
)

// OrderRepository reads and writes orders. Writes go through the
// bounded retry policy before surfacing an error.
type OrderRepository struct {
	store storage.Store
	retry retry.Policy
}

// NewOrderRepository creates an OrderRepository over the given store.
func NewOrderRepository(store storage.Store, policy retry.Policy) *OrderRepository {
	return &OrderRepository{store: store, retry: policy}
}

// WatchAll streams the full order list, newest date first, each order
// carrying its nested expenses and photos. The current list is emitted
// immediately and again after every mutation until ctx is cancelled.
func (r *OrderRepository) WatchAll(ctx context.Context) <-chan []models.Order {
	out := make(chan []models.Order, 1)
	go watchLoop(ctx, r.store.Changes(), out, func(ctx context.Context) ([]models.Order, error) {
		details, err := r.store.ListOrderDetails(ctx)
		if err != nil {
			return nil, err
		}
		orders := make([]models.Order, 0, len(details))
		for _, d := range details {
			order, err := orderFromDetails(d)
			if err != nil {
				return nil, err
			}
			orders = append(orders, order)
		}
		return orders, nil
	})
	return out
}

// WatchSearch streams orders whose title or client contains the query
// as a substring (case-insensitive for ASCII), newest date first.
// Search results carry no nested children; the list screen only shows
// summary fields.
func (r *OrderRepository) WatchSearch(ctx context.Context, query string) <-chan []models.Order {
	out := make(chan []models.Order, 1)
	go watchLoop(ctx, r.store.Changes(), out, func(ctx context.Context) ([]models.Order, error) {
		rows, err := r.store.SearchOrders(ctx, query)
		if err != nil {
			return nil, err
		}
		orders := make([]models.Order, 0, len(rows))
		for _, row := range rows {
			order, err := orderFromRow(row)
			if err != nil {
				return nil, err
			}
			orders = append(orders, order)
		}
		return orders, nil
	})
	return out
}

// GetByID fetches one order with its nested details.
// Returns (nil, nil) when the order does not exist: absence is a normal
// outcome, not an error.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	details, err := r.store.GetOrderDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	if details == nil {
		return nil, nil
	}
	order, err := orderFromDetails(*details)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Add persists a new order. A blank ID is populated with a fresh UUID.
func (r *OrderRepository) Add(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}

	row, err := orderToRow(*order)
	if err != nil {
		return fmt.Errorf("invalid order: %w", err)
	}

	if err := r.retry.Do(ctx, func() error {
		return r.store.UpsertOrder(ctx, row)
	}); err != nil {
		slog.Error("Add order failed", "order_id", order.ID, "error", err)
		return err
	}

	slog.Info("Order added", "order_id", order.ID, "title", order.Title)
	return nil
}

// Update replaces the stored order whole; there is no partial-field
// patch. The order's expenses and photos are untouched.
func (r *OrderRepository) Update(ctx context.Context, order models.Order) error {
	row, err := orderToRow(order)
	if err != nil {
		return fmt.Errorf("invalid order: %w", err)
	}

	if err := r.retry.Do(ctx, func() error {
		return r.store.UpsertOrder(ctx, row)
	}); err != nil {
		slog.Error("Update order failed", "order_id", order.ID, "error", err)
		return err
	}

	return nil
}

// DeleteByID removes the order; its expenses and photos are
// cascade-deleted at the storage layer.
func (r *OrderRepository) DeleteByID(ctx context.Context, id string) error {
	if err := r.retry.Do(ctx, func() error {
		return r.store.DeleteOrder(ctx, id)
	}); err != nil {
		slog.Error("Delete order failed", "order_id", id, "error", err)
		return err
	}

	slog.Info("Order deleted", "order_id", id)
	return nil
}
