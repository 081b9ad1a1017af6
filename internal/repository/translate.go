// Package repository mediates between storage rows and domain models.
// It is the only interface UI-facing code uses to read or write domain
// objects; storage row types never leak past it.
//
// Reads come in two shapes: one-shot lookups that return nil when the
// record is absent, and live watch streams that replay the current
// result on subscribe and re-emit after every relevant mutation until
// the context is cancelled.
package repository

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avolkov/orderledger/internal/models"
	"github.com/avolkov/orderledger/internal/storage"
)

// ErrDataIntegrity marks stored data that cannot be mapped back to the
// domain, such as an enum name no code version ever wrote. It signals a
// migration or programmer bug and must not be silently defaulted.
var ErrDataIntegrity = errors.New("data integrity error")

// formatDate renders a calendar date for storage. A zero date falls
// back to today instead of failing the whole write.
func formatDate(date time.Time) string {
	if date.IsZero() {
		slog.Warn("Zero date on write, falling back to current date")
		date = time.Now()
	}
	return date.Format(time.DateOnly)
}

func parseDate(s string) (time.Time, error) {
	date, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad stored date %q: %v", ErrDataIntegrity, s, err)
	}
	return date, nil
}

// optional maps "" to a stored NULL.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func fromOptional(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// orderToRow validates the order and translates it to its stored form.
func orderToRow(order models.Order) (storage.OrderRow, error) {
	if order.ID == "" {
		return storage.OrderRow{}, errors.New("order id cannot be blank")
	}
	if order.Title == "" {
		return storage.OrderRow{}, errors.New("order title cannot be blank")
	}
	if order.Client == "" {
		return storage.OrderRow{}, errors.New("order client cannot be blank")
	}

	return storage.OrderRow{
		ID:     order.ID,
		Title:  order.Title,
		Client: order.Client,
		Status: string(order.Status),
		Amount: order.Amount,
		Date:   formatDate(order.Date),
		Income: order.Income,
		Notes:  optional(order.Notes),
	}, nil
}

func orderFromRow(row storage.OrderRow) (models.Order, error) {
	status, err := models.ParseOrderStatus(row.Status)
	if err != nil {
		return models.Order{}, fmt.Errorf("%w: order %s: %v", ErrDataIntegrity, row.ID, err)
	}
	date, err := parseDate(row.Date)
	if err != nil {
		return models.Order{}, fmt.Errorf("order %s: %w", row.ID, err)
	}

	return models.Order{
		ID:     row.ID,
		Title:  row.Title,
		Client: row.Client,
		Status: status,
		Amount: row.Amount,
		Date:   date,
		Income: row.Income,
		Notes:  fromOptional(row.Notes),
	}, nil
}

// orderFromDetails translates an order snapshot with its children.
func orderFromDetails(details storage.OrderDetails) (models.Order, error) {
	order, err := orderFromRow(details.Order)
	if err != nil {
		return models.Order{}, err
	}

	for _, row := range details.Expenses {
		expense, err := expenseFromRow(row)
		if err != nil {
			return models.Order{}, err
		}
		order.Expenses = append(order.Expenses, expense)
	}
	for _, row := range details.Photos {
		order.Photos = append(order.Photos, row.FilePath)
	}
	return order, nil
}

// expenseToRow validates the expense and translates it to its stored
// form. A negative amount is coerced to its absolute value with a
// warning rather than rejected.
func expenseToRow(expense models.Expense) (storage.ExpenseRow, error) {
	if expense.ID == "" {
		return storage.ExpenseRow{}, errors.New("expense id cannot be blank")
	}
	if expense.OrderID == "" {
		return storage.ExpenseRow{}, errors.New("expense order id cannot be blank")
	}
	if expense.Title == "" {
		return storage.ExpenseRow{}, errors.New("expense title cannot be blank")
	}

	amount := expense.Amount
	if amount < 0 {
		slog.Warn("Negative expense amount, storing absolute value",
			"expense_id", expense.ID, "amount", amount)
		amount = -amount
	}

	return storage.ExpenseRow{
		ID:       expense.ID,
		OrderID:  expense.OrderID,
		Title:    expense.Title,
		Category: string(expense.Category),
		Amount:   amount,
		Date:     formatDate(expense.Date),
		Notes:    optional(expense.Notes),
	}, nil
}

func expenseFromRow(row storage.ExpenseRow) (models.Expense, error) {
	category, err := models.ParseExpenseCategory(row.Category)
	if err != nil {
		return models.Expense{}, fmt.Errorf("%w: expense %s: %v", ErrDataIntegrity, row.ID, err)
	}
	date, err := parseDate(row.Date)
	if err != nil {
		return models.Expense{}, fmt.Errorf("expense %s: %w", row.ID, err)
	}

	return models.Expense{
		ID:       row.ID,
		OrderID:  row.OrderID,
		Title:    row.Title,
		Category: category,
		Amount:   row.Amount,
		Date:     date,
		Notes:    fromOptional(row.Notes),
	}, nil
}
