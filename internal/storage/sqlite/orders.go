package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/avolkov/orderledger/internal/storage"
)

// UpsertOrder inserts the order row or replaces an existing one in place.
// NOTE: this must be ON CONFLICT DO UPDATE, not INSERT OR REPLACE:
// REPLACE deletes the old row first, which would cascade-delete the
// order's expenses and photos.
func (s *SQLiteStore) UpsertOrder(ctx context.Context, row storage.OrderRow) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO orders (id, title, client, status, amount, date, income, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     title = excluded.title,
		     client = excluded.client,
		     status = excluded.status,
		     amount = excluded.amount,
		     date = excluded.date,
		     income = excluded.income,
		     notes = excluded.notes`,
		row.ID, row.Title, row.Client, row.Status, row.Amount, row.Date, row.Income, row.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert order: %w", err)
	}

	s.changes.Notify()
	return nil
}

// GetOrder retrieves a bare order row by ID.
// Returns (nil, nil) when no order has the given ID.
func (s *SQLiteStore) GetOrder(ctx context.Context, id string) (*storage.OrderRow, error) {
	row := &storage.OrderRow{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, title, client, status, amount, date, income, notes FROM orders WHERE id = ?",
		id,
	).Scan(&row.ID, &row.Title, &row.Client, &row.Status, &row.Amount, &row.Date, &row.Income, &row.Notes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return row, nil
}

// GetOrderDetails retrieves an order joined with its expenses and photos.
// All three reads happen inside one transaction, so the result is a
// consistent snapshot. Returns (nil, nil) when the order does not exist.
func (s *SQLiteStore) GetOrderDetails(ctx context.Context, id string) (*storage.OrderDetails, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	details := &storage.OrderDetails{}
	err = tx.QueryRowContext(ctx,
		"SELECT id, title, client, status, amount, date, income, notes FROM orders WHERE id = ?",
		id,
	).Scan(&details.Order.ID, &details.Order.Title, &details.Order.Client, &details.Order.Status,
		&details.Order.Amount, &details.Order.Date, &details.Order.Income, &details.Order.Notes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	details.Expenses, err = queryExpenses(ctx, tx,
		"SELECT id, order_id, title, category, amount, date, notes FROM expenses WHERE order_id = ?", id)
	if err != nil {
		return nil, err
	}

	details.Photos, err = queryPhotos(ctx, tx,
		"SELECT id, order_id, file_path FROM photos WHERE order_id = ?", id)
	if err != nil {
		return nil, err
	}

	return details, nil
}

// ListOrderDetails retrieves all orders with their children, newest date
// first, as one consistent snapshot.
func (s *SQLiteStore) ListOrderDetails(ctx context.Context) ([]storage.OrderDetails, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	orders, err := queryOrders(ctx, tx,
		"SELECT id, title, client, status, amount, date, income, notes FROM orders ORDER BY date DESC, id")
	if err != nil {
		return nil, err
	}

	expenses, err := queryExpenses(ctx, tx,
		"SELECT id, order_id, title, category, amount, date, notes FROM expenses")
	if err != nil {
		return nil, err
	}

	photos, err := queryPhotos(ctx, tx,
		"SELECT id, order_id, file_path FROM photos")
	if err != nil {
		return nil, err
	}

	expensesByOrder := make(map[string][]storage.ExpenseRow)
	for _, e := range expenses {
		expensesByOrder[e.OrderID] = append(expensesByOrder[e.OrderID], e)
	}
	photosByOrder := make(map[string][]storage.PhotoRow)
	for _, p := range photos {
		photosByOrder[p.OrderID] = append(photosByOrder[p.OrderID], p)
	}

	details := make([]storage.OrderDetails, 0, len(orders))
	for _, o := range orders {
		details = append(details, storage.OrderDetails{
			Order:    o,
			Expenses: expensesByOrder[o.ID],
			Photos:   photosByOrder[o.ID],
		})
	}
	return details, nil
}

// SearchOrders retrieves order rows whose title or client contains the
// query as a substring, newest date first. SQLite's LIKE is
// case-insensitive for ASCII, so "acme" matches "Acme".
func (s *SQLiteStore) SearchOrders(ctx context.Context, query string) ([]storage.OrderRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, client, status, amount, date, income, notes FROM orders
		 WHERE title LIKE '%' || ? || '%' OR client LIKE '%' || ? || '%'
		 ORDER BY date DESC, id`,
		query, query,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search orders: %w", err)
	}
	defer rows.Close()
	return scanOrders(rows)
}

// DeleteOrder removes the order; the foreign keys cascade the delete to
// the order's expenses and photos.
func (s *SQLiteStore) DeleteOrder(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM orders WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	s.changes.Notify()
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryOrders(ctx context.Context, q querier, query string, args ...any) ([]storage.OrderRow, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()
	return scanOrders(rows)
}

func scanOrders(rows *sql.Rows) ([]storage.OrderRow, error) {
	var orders []storage.OrderRow
	for rows.Next() {
		var o storage.OrderRow
		if err := rows.Scan(&o.ID, &o.Title, &o.Client, &o.Status, &o.Amount, &o.Date, &o.Income, &o.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}
	return orders, nil
}
