package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/avolkov/orderledger/internal/models"
	"github.com/avolkov/orderledger/internal/storage"
)

func TestOrderRowRoundTrip(t *testing.T) {
	income := int64(70000)
	order := models.Order{
		ID:     "o1",
		Title:  "Kitchen remodel",
		Client: "Ivanov",
		Status: models.StatusActive,
		Amount: 50000,
		Date:   time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		Income: &income,
		Notes:  "side entrance",
	}

	row, err := orderToRow(order)
	if err != nil {
		t.Fatalf("orderToRow failed: %v", err)
	}
	if row.Date != "2024-01-10" {
		t.Errorf("Date = %q, want 2024-01-10", row.Date)
	}
	if row.Status != "ACTIVE" {
		t.Errorf("Status = %q, want ACTIVE", row.Status)
	}

	back, err := orderFromRow(row)
	if err != nil {
		t.Fatalf("orderFromRow failed: %v", err)
	}
	if back.ID != order.ID || back.Title != order.Title || back.Client != order.Client ||
		back.Status != order.Status || back.Amount != order.Amount || back.Notes != order.Notes {
		t.Errorf("Round-trip mismatch: got %+v, want %+v", back, order)
	}
	if !back.Date.Equal(order.Date) {
		t.Errorf("Date mismatch: got %v, want %v", back.Date, order.Date)
	}
	if back.Income == nil || *back.Income != income {
		t.Errorf("Income mismatch: got %v", back.Income)
	}
}

func TestOrderToRowValidation(t *testing.T) {
	tests := []struct {
		name    string
		order   models.Order
		wantErr string
	}{
		{
			name:    "blank id",
			order:   models.Order{Title: "T", Client: "C"},
			wantErr: "id",
		},
		{
			name:    "blank title",
			order:   models.Order{ID: "x", Client: "C"},
			wantErr: "title",
		},
		{
			name:    "blank client",
			order:   models.Order{ID: "x", Title: "T"},
			wantErr: "client",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := orderToRow(tt.order)
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestZeroDateFallsBackToToday(t *testing.T) {
	order := models.Order{ID: "x", Title: "T", Client: "C", Status: models.StatusPlanned}

	row, err := orderToRow(order)
	if err != nil {
		t.Fatalf("orderToRow failed: %v", err)
	}

	today := time.Now().Format(time.DateOnly)
	if row.Date != today {
		t.Errorf("Date = %q, want today %q", row.Date, today)
	}
}

func TestExpenseToRowCoercesNegativeAmount(t *testing.T) {
	expense := models.Expense{
		ID:       "e1",
		OrderID:  "o1",
		Title:    "Fuel",
		Category: models.CategoryTransport,
		Amount:   -500,
		Date:     time.Now(),
	}

	row, err := expenseToRow(expense)
	if err != nil {
		t.Fatalf("expenseToRow failed: %v", err)
	}
	if row.Amount != 500 {
		t.Errorf("Amount = %d, want 500", row.Amount)
	}
}

func TestFromRowRejectsCorruptEnums(t *testing.T) {
	_, err := orderFromRow(storage.OrderRow{
		ID: "o1", Title: "T", Client: "C", Status: "SHIPPED", Amount: 1, Date: "2024-01-01",
	})
	if err == nil {
		t.Error("Expected error for unknown status, got nil")
	}

	_, err = expenseFromRow(storage.ExpenseRow{
		ID: "e1", OrderID: "o1", Title: "T", Category: "RENT", Amount: 1, Date: "2024-01-01",
	})
	if err == nil {
		t.Error("Expected error for unknown category, got nil")
	}
}

func TestEmptyNotesStoredAsNull(t *testing.T) {
	order := models.Order{ID: "x", Title: "T", Client: "C", Status: models.StatusPlanned, Date: time.Now()}

	row, err := orderToRow(order)
	if err != nil {
		t.Fatalf("orderToRow failed: %v", err)
	}
	if row.Notes != nil {
		t.Errorf("Expected nil notes, got %q", *row.Notes)
	}
}
