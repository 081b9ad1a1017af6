package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/avolkov/orderledger/internal/models"
	"github.com/avolkov/orderledger/internal/storage"
	"github.com/avolkov/orderledger/pkg/retry"
)

// ExpenseRepository reads and writes expenses, always scoped to a
// parent order.
type ExpenseRepository struct {
	store storage.Store
	retry retry.Policy
}

// NewExpenseRepository creates an ExpenseRepository over the given store.
func NewExpenseRepository(store storage.Store, policy retry.Policy) *ExpenseRepository {
	return &ExpenseRepository{store: store, retry: policy}
}

// WatchByOrder streams the expenses of one order, re-emitting after
// every mutation until ctx is cancelled.
func (r *ExpenseRepository) WatchByOrder(ctx context.Context, orderID string) <-chan []models.Expense {
	out := make(chan []models.Expense, 1)
	go watchLoop(ctx, r.store.Changes(), out, func(ctx context.Context) ([]models.Expense, error) {
		rows, err := r.store.ListExpensesByOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
		expenses := make([]models.Expense, 0, len(rows))
		for _, row := range rows {
			expense, err := expenseFromRow(row)
			if err != nil {
				return nil, err
			}
			expenses = append(expenses, expense)
		}
		return expenses, nil
	})
	return out
}

// GetByID fetches one expense. Returns (nil, nil) when absent.
func (r *ExpenseRepository) GetByID(ctx context.Context, id string) (*models.Expense, error) {
	row, err := r.store.GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	expense, err := expenseFromRow(*row)
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

// Add persists a new expense against the given order. A blank ID is
// populated with a fresh UUID.
func (r *ExpenseRepository) Add(ctx context.Context, expense *models.Expense, orderID string) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	expense.OrderID = orderID

	row, err := expenseToRow(*expense)
	if err != nil {
		return fmt.Errorf("invalid expense: %w", err)
	}

	return r.retry.Do(ctx, func() error {
		return r.store.UpsertExpense(ctx, row)
	})
}

// AddBatch persists several expenses against the given order in one
// transaction-like call: either all land or none do.
func (r *ExpenseRepository) AddBatch(ctx context.Context, expenses []models.Expense, orderID string) error {
	rows := make([]storage.ExpenseRow, 0, len(expenses))
	for i := range expenses {
		if expenses[i].ID == "" {
			expenses[i].ID = uuid.New().String()
		}
		expenses[i].OrderID = orderID

		row, err := expenseToRow(expenses[i])
		if err != nil {
			return fmt.Errorf("invalid expense: %w", err)
		}
		rows = append(rows, row)
	}

	return r.retry.Do(ctx, func() error {
		return r.store.UpsertExpenses(ctx, rows)
	})
}

// Update replaces the stored expense whole.
func (r *ExpenseRepository) Update(ctx context.Context, expense models.Expense, orderID string) error {
	expense.OrderID = orderID

	row, err := expenseToRow(expense)
	if err != nil {
		return fmt.Errorf("invalid expense: %w", err)
	}

	return r.retry.Do(ctx, func() error {
		return r.store.UpsertExpense(ctx, row)
	})
}

// DeleteByID removes a single expense.
func (r *ExpenseRepository) DeleteByID(ctx context.Context, id string) error {
	return r.retry.Do(ctx, func() error {
		return r.store.DeleteExpense(ctx, id)
	})
}

// DeleteByOrder removes every expense belonging to an order.
func (r *ExpenseRepository) DeleteByOrder(ctx context.Context, orderID string) error {
	return r.retry.Do(ctx, func() error {
		return r.store.DeleteExpensesByOrder(ctx, orderID)
	})
}
