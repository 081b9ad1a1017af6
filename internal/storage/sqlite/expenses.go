package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/avolkov/orderledger/internal/storage"
)

const upsertExpenseSQL = `
	INSERT INTO expenses (id, order_id, title, category, amount, date, notes)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	    order_id = excluded.order_id,
	    title = excluded.title,
	    category = excluded.category,
	    amount = excluded.amount,
	    date = excluded.date,
	    notes = excluded.notes`

// UpsertExpense inserts the expense row or replaces an existing one.
func (s *SQLiteStore) UpsertExpense(ctx context.Context, row storage.ExpenseRow) error {
	_, err := s.db.ExecContext(ctx, upsertExpenseSQL,
		row.ID, row.OrderID, row.Title, row.Category, row.Amount, row.Date, row.Notes)
	if err != nil {
		return fmt.Errorf("failed to upsert expense: %w", err)
	}

	s.changes.Notify()
	return nil
}

// UpsertExpenses writes all rows in one transaction: either every
// expense lands or none do.
func (s *SQLiteStore) UpsertExpenses(ctx context.Context, rows []storage.ExpenseRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, upsertExpenseSQL,
			row.ID, row.OrderID, row.Title, row.Category, row.Amount, row.Date, row.Notes); err != nil {
			return fmt.Errorf("failed to upsert expense %s: %w", row.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.changes.Notify()
	return nil
}

// GetExpense retrieves an expense row by ID.
// Returns (nil, nil) when no expense has the given ID.
func (s *SQLiteStore) GetExpense(ctx context.Context, id string) (*storage.ExpenseRow, error) {
	row := &storage.ExpenseRow{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, order_id, title, category, amount, date, notes FROM expenses WHERE id = ?",
		id,
	).Scan(&row.ID, &row.OrderID, &row.Title, &row.Category, &row.Amount, &row.Date, &row.Notes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return row, nil
}

// ListExpensesByOrder retrieves all expenses belonging to an order.
func (s *SQLiteStore) ListExpensesByOrder(ctx context.Context, orderID string) ([]storage.ExpenseRow, error) {
	return queryExpenses(ctx, s.db,
		"SELECT id, order_id, title, category, amount, date, notes FROM expenses WHERE order_id = ?", orderID)
}

// DeleteExpense removes a single expense row.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	s.changes.Notify()
	return nil
}

// DeleteExpensesByOrder removes every expense belonging to an order.
func (s *SQLiteStore) DeleteExpensesByOrder(ctx context.Context, orderID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE order_id = ?", orderID); err != nil {
		return fmt.Errorf("failed to delete expenses for order: %w", err)
	}

	s.changes.Notify()
	return nil
}

func queryExpenses(ctx context.Context, q querier, query string, args ...any) ([]storage.ExpenseRow, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []storage.ExpenseRow
	for rows.Next() {
		var e storage.ExpenseRow
		if err := rows.Scan(&e.ID, &e.OrderID, &e.Title, &e.Category, &e.Amount, &e.Date, &e.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}
