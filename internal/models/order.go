package models

import (
	"fmt"
	"time"
)

// OrderStatus is the lifecycle state of an order.
// Stored by its canonical name, so the constant values must never change.
type OrderStatus string

const (
	StatusPlanned   OrderStatus = "PLANNED"
	StatusActive    OrderStatus = "ACTIVE"
	StatusCompleted OrderStatus = "COMPLETED"
)

// OrderStatuses lists all known statuses in display order.
var OrderStatuses = []OrderStatus{StatusPlanned, StatusActive, StatusCompleted}

// ParseOrderStatus converts a stored status name back to an OrderStatus.
// An unknown name means the stored data is corrupt, so the caller must
// treat the error as unrecoverable rather than defaulting.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case StatusPlanned, StatusActive, StatusCompleted:
		return OrderStatus(s), nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// Order represents a single client job. It is the aggregate root for its
// expenses and photos: deleting an order removes both.
type Order struct {
	// ID is the unique identifier for the order (UUID format).
	ID string

	// Title is the human-readable name of the job.
	Title string

	// Client is the name of the client who placed the order.
	Client string

	Status OrderStatus

	// Amount is the agreed order amount in minor currency units (cents).
	Amount int64

	// Date is the order date. Only the calendar date is significant.
	Date time.Time

	// Income is the realized income in minor units, nil until known.
	Income *int64

	Notes string

	// Expenses are the cost items recorded against this order.
	Expenses []Expense

	// Photos are file paths of photos attached to this order.
	Photos []string
}

// TotalExpenses is the sum of all expense amounts, in minor units.
func (o Order) TotalExpenses() int64 {
	var total int64
	for _, e := range o.Expenses {
		total += e.Amount
	}
	return total
}

// Profit is income minus total expenses, or zero while income is unknown.
func (o Order) Profit() int64 {
	if o.Income == nil {
		return 0
	}
	return *o.Income - o.TotalExpenses()
}

// ProfitPercent is profit as a percentage of income.
// Zero when income is unknown or not positive.
func (o Order) ProfitPercent() float64 {
	if o.Income == nil || *o.Income <= 0 {
		return 0
	}
	return float64(o.Profit()) / float64(*o.Income) * 100
}

// HasCompleteData reports whether profitability can be computed,
// i.e. income has been recorded and is positive.
func (o Order) HasCompleteData() bool {
	return o.Income != nil && *o.Income > 0
}
