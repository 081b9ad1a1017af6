package models

import (
	"fmt"
	"time"
)

// ExpenseCategory classifies what an expense was spent on.
// Stored by its canonical name, so the constant values must never change.
type ExpenseCategory string

const (
	CategoryMaterials ExpenseCategory = "MATERIALS"
	CategoryTools     ExpenseCategory = "TOOLS"
	CategoryTransport ExpenseCategory = "TRANSPORT"
	CategoryFood      ExpenseCategory = "FOOD"
	CategoryOther     ExpenseCategory = "OTHER"
)

// ExpenseCategories lists all known categories in display order.
var ExpenseCategories = []ExpenseCategory{
	CategoryMaterials, CategoryTools, CategoryTransport, CategoryFood, CategoryOther,
}

// ParseExpenseCategory converts a stored category name back to an
// ExpenseCategory. An unknown name is a data-corruption signal and must
// not be silently defaulted.
func ParseExpenseCategory(s string) (ExpenseCategory, error) {
	switch ExpenseCategory(s) {
	case CategoryMaterials, CategoryTools, CategoryTransport, CategoryFood, CategoryOther:
		return ExpenseCategory(s), nil
	}
	return "", fmt.Errorf("unknown expense category %q", s)
}

// Expense is one cost item recorded against an order.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// OrderID links the expense to its parent order.
	OrderID string

	Title    string
	Category ExpenseCategory

	// Amount is the cost in minor currency units. Always non-negative;
	// negative submissions are coerced to their absolute value.
	Amount int64

	// Date is when the expense occurred. Only the calendar date is significant.
	Date time.Time

	Notes string
}
