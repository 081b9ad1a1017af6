// Package storage provides abstractions for persistent data storage.
//
// Row types mirror the on-disk table layout: enums as name strings,
// dates as ISO-8601 strings, amounts as integer minor units. They are
// consumed only by the storage backends and the repository layer; all
// other code works with domain models.
package storage

import (
	"context"

	"github.com/avolkov/orderledger/internal/watch"
)

// OrderRow is the stored form of an order.
type OrderRow struct {
	ID     string
	Title  string
	Client string
	Status string // canonical OrderStatus name
	Amount int64
	Date   string // ISO-8601 calendar date (YYYY-MM-DD)
	Income *int64
	Notes  *string
}

// ExpenseRow is the stored form of an expense.
type ExpenseRow struct {
	ID       string
	OrderID  string
	Title    string
	Category string // canonical ExpenseCategory name
	Amount   int64
	Date     string // ISO-8601 calendar date (YYYY-MM-DD)
	Notes    *string
}

// PhotoRow is the stored form of a photo reference.
type PhotoRow struct {
	ID       string
	OrderID  string
	FilePath string
}

// OrderDetails is an order row joined with all of its child rows,
// read as a single consistent snapshot.
type OrderDetails struct {
	Order    OrderRow
	Expenses []ExpenseRow
	Photos   []PhotoRow
}

// Store defines the persistence operations the repository layer builds on.
// This abstraction allows swapping storage backends without changing the
// repositories.
//
// Lookups return (nil, nil) when no row matches: absence is a normal
// outcome, not an error. Every mutation notifies the change bus after it
// commits, which drives the live watch streams.
type Store interface {
	// UpsertOrder inserts the order row or replaces an existing row with
	// the same ID. Replacing keeps child rows intact.
	UpsertOrder(ctx context.Context, row OrderRow) error

	// GetOrder retrieves a bare order row by ID.
	GetOrder(ctx context.Context, id string) (*OrderRow, error)

	// GetOrderDetails retrieves an order with its expenses and photos in
	// one consistent snapshot.
	GetOrderDetails(ctx context.Context, id string) (*OrderDetails, error)

	// ListOrderDetails retrieves all orders with their children, newest
	// date first, in one consistent snapshot.
	ListOrderDetails(ctx context.Context) ([]OrderDetails, error)

	// SearchOrders retrieves order rows whose title or client contains
	// the query as a substring, newest date first. Matching is the
	// driver's LIKE collation: case-insensitive for ASCII.
	SearchOrders(ctx context.Context, query string) ([]OrderRow, error)

	// DeleteOrder removes the order row; expenses and photos referencing
	// it are cascade-deleted.
	DeleteOrder(ctx context.Context, id string) error

	UpsertExpense(ctx context.Context, row ExpenseRow) error

	// UpsertExpenses writes a batch of expense rows in one transaction.
	UpsertExpenses(ctx context.Context, rows []ExpenseRow) error

	GetExpense(ctx context.Context, id string) (*ExpenseRow, error)
	ListExpensesByOrder(ctx context.Context, orderID string) ([]ExpenseRow, error)
	DeleteExpense(ctx context.Context, id string) error
	DeleteExpensesByOrder(ctx context.Context, orderID string) error

	UpsertPhoto(ctx context.Context, row PhotoRow) error

	// UpsertPhotos writes a batch of photo rows in one transaction.
	UpsertPhotos(ctx context.Context, rows []PhotoRow) error

	ListPhotosByOrder(ctx context.Context, orderID string) ([]PhotoRow, error)
	DeletePhoto(ctx context.Context, id string) error

	// DeletePhotoByPath removes the photo rows for the given order that
	// reference the given file path.
	DeletePhotoByPath(ctx context.Context, orderID, filePath string) error

	DeletePhotosByOrder(ctx context.Context, orderID string) error

	// Changes exposes the bus that signals after every committed mutation.
	Changes() *watch.Bus

	// Close releases any resources held by the store.
	Close() error
}
