package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/avolkov/orderledger/internal/models"
	"github.com/avolkov/orderledger/internal/storage"
	"github.com/avolkov/orderledger/internal/storage/sqlite"
	"github.com/avolkov/orderledger/pkg/retry"
)

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testPolicy() retry.Policy {
	return retry.Policy{Attempts: 3, Backoff: time.Millisecond}
}

func int64Ptr(v int64) *int64 { return &v }

func testOrder(title, client string, date time.Time) models.Order {
	return models.Order{
		Title:  title,
		Client: client,
		Status: models.StatusPlanned,
		Amount: 50000,
		Date:   date,
	}
}

func TestOrderRepository(t *testing.T) {
	store := newTestStore(t)
	orders := NewOrderRepository(store, testPolicy())
	expenses := NewExpenseRepository(store, testPolicy())
	photos := NewPhotoRepository(store, testPolicy())
	ctx := context.Background()

	t.Run("Add generates ID and round-trips all fields", func(t *testing.T) {
		order := testOrder("Kitchen remodel", "Ivanov", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
		order.Income = int64Ptr(70000)
		order.Notes = "keys under the mat"

		if err := orders.Add(ctx, &order); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if order.ID == "" {
			t.Fatal("Expected order ID to be generated")
		}

		got, err := orders.GetByID(ctx, order.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if got == nil {
			t.Fatal("Expected order, got nil")
		}
		if got.Title != order.Title || got.Client != order.Client || got.Status != order.Status ||
			got.Amount != order.Amount || got.Notes != order.Notes {
			t.Errorf("Round-trip mismatch: got %+v, want %+v", got, order)
		}
		if !got.Date.Equal(order.Date) {
			t.Errorf("Date mismatch: got %v, want %v", got.Date, order.Date)
		}
		if got.Income == nil || *got.Income != 70000 {
			t.Errorf("Income mismatch: got %v", got.Income)
		}
	})

	t.Run("GetByID returns nil for missing order", func(t *testing.T) {
		got, err := orders.GetByID(ctx, "no-such-order")
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if got != nil {
			t.Errorf("Expected nil, got %+v", got)
		}
	})

	t.Run("Add rejects blank required fields", func(t *testing.T) {
		cases := []models.Order{
			{Client: "Client", Status: models.StatusPlanned},                   // blank title
			{Title: "Title", Status: models.StatusPlanned},                     // blank client
			{ID: "x", Title: "", Client: "", Status: models.StatusPlanned},     // both blank
		}
		for _, order := range cases {
			order.Date = time.Now()
			if err := orders.Add(ctx, &order); err == nil {
				t.Errorf("Expected validation error for %+v, got nil", order)
			}
		}
	})

	t.Run("Update replaces whole record and is idempotent", func(t *testing.T) {
		order := testOrder("Fence", "Petrov", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
		if err := orders.Add(ctx, &order); err != nil {
			t.Fatalf("Add failed: %v", err)
		}

		order.Status = models.StatusCompleted
		order.Income = int64Ptr(55000)
		if err := orders.Update(ctx, order); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		// Replacing with identical values changes nothing observable.
		if err := orders.Update(ctx, order); err != nil {
			t.Fatalf("Second identical update failed: %v", err)
		}

		got, err := orders.GetByID(ctx, order.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if got.Status != models.StatusCompleted {
			t.Errorf("Status = %q, want %q", got.Status, models.StatusCompleted)
		}
		if got.Income == nil || *got.Income != 55000 {
			t.Errorf("Income = %v, want 55000", got.Income)
		}
	})

	t.Run("GetByID aggregates expenses and photos", func(t *testing.T) {
		order := testOrder("Deck", "Koval", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
		order.Income = int64Ptr(70000)
		if err := orders.Add(ctx, &order); err != nil {
			t.Fatalf("Add failed: %v", err)
		}

		batch := []models.Expense{
			{Title: "Paint", Category: models.CategoryMaterials, Amount: 8000, Date: order.Date},
			{Title: "Fuel", Category: models.CategoryTransport, Amount: 2000, Date: order.Date},
		}
		if err := expenses.AddBatch(ctx, batch, order.ID); err != nil {
			t.Fatalf("AddBatch failed: %v", err)
		}
		if err := photos.Add(ctx, "/photos/deck.jpg", order.ID); err != nil {
			t.Fatalf("Add photo failed: %v", err)
		}

		got, err := orders.GetByID(ctx, order.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if len(got.Expenses) != 2 {
			t.Fatalf("Expected 2 expenses, got %d", len(got.Expenses))
		}
		if len(got.Photos) != 1 || got.Photos[0] != "/photos/deck.jpg" {
			t.Errorf("Photos = %v, want [/photos/deck.jpg]", got.Photos)
		}
		if got.TotalExpenses() != 10000 {
			t.Errorf("TotalExpenses() = %d, want 10000", got.TotalExpenses())
		}
		if got.Profit() != 60000 {
			t.Errorf("Profit() = %d, want 60000", got.Profit())
		}
	})

	t.Run("DeleteByID cascades to children", func(t *testing.T) {
		order := testOrder("Doomed", "Client", time.Now())
		if err := orders.Add(ctx, &order); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		expense := models.Expense{Title: "Nails", Category: models.CategoryMaterials, Amount: 300, Date: time.Now()}
		if err := expenses.Add(ctx, &expense, order.ID); err != nil {
			t.Fatalf("Add expense failed: %v", err)
		}
		if err := photos.Add(ctx, "/photos/doomed.jpg", order.ID); err != nil {
			t.Fatalf("Add photo failed: %v", err)
		}

		if err := orders.DeleteByID(ctx, order.ID); err != nil {
			t.Fatalf("DeleteByID failed: %v", err)
		}

		if got, err := expenses.GetByID(ctx, expense.ID); err != nil || got != nil {
			t.Errorf("Expected expense cascade-deleted, got %+v, err %v", got, err)
		}
		rows, err := store.ListPhotosByOrder(ctx, order.ID)
		if err != nil {
			t.Fatalf("ListPhotosByOrder failed: %v", err)
		}
		if len(rows) != 0 {
			t.Errorf("Expected photos cascade-deleted, got %d", len(rows))
		}
	})

	t.Run("unknown stored status fails loudly", func(t *testing.T) {
		// Write a corrupt row directly, below the translation layer.
		if err := store.UpsertOrder(ctx, storage.OrderRow{
			ID: "corrupt-1", Title: "Bad", Client: "Row", Status: "CANCELLED",
			Amount: 100, Date: "2024-01-01",
		}); err != nil {
			t.Fatalf("UpsertOrder failed: %v", err)
		}

		_, err := orders.GetByID(ctx, "corrupt-1")
		if !errors.Is(err, ErrDataIntegrity) {
			t.Errorf("Expected ErrDataIntegrity, got %v", err)
		}

		if err := store.DeleteOrder(ctx, "corrupt-1"); err != nil {
			t.Fatalf("Cleanup failed: %v", err)
		}
	})
}

func TestExpenseRepositoryCoercesNegativeAmount(t *testing.T) {
	store := newTestStore(t)
	orders := NewOrderRepository(store, testPolicy())
	expenses := NewExpenseRepository(store, testPolicy())
	ctx := context.Background()

	order := testOrder("Shed", "Client", time.Now())
	if err := orders.Add(ctx, &order); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	expense := models.Expense{
		Title:    "Refund entered backwards",
		Category: models.CategoryOther,
		Amount:   -500,
		Date:     time.Now(),
	}
	if err := expenses.Add(ctx, &expense, order.ID); err != nil {
		t.Fatalf("Add expense failed: %v", err)
	}

	got, err := expenses.GetByID(ctx, expense.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Amount != 500 {
		t.Errorf("Amount = %d, want 500 (absolute value)", got.Amount)
	}
}

func TestOrderRepositoryWatchAll(t *testing.T) {
	store := newTestStore(t)
	orders := NewOrderRepository(store, testPolicy())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := orders.WatchAll(ctx)

	// Replay on subscribe: the empty list arrives without any mutation.
	select {
	case got := <-stream:
		if len(got) != 0 {
			t.Fatalf("Expected empty initial list, got %d orders", len(got))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Expected initial emission")
	}

	order := testOrder("Watched", "Client", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	if err := orders.Add(ctx, &order); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	// The stream re-emits after the write.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case got := <-stream:
			if len(got) == 1 && got[0].ID == order.ID {
				return
			}
		case <-deadline:
			t.Fatal("Expected re-emission containing the new order")
		}
	}
}

func TestOrderRepositoryWatchClosesOnCancel(t *testing.T) {
	store := newTestStore(t)
	orders := NewOrderRepository(store, testPolicy())
	ctx, cancel := context.WithCancel(context.Background())

	stream := orders.WatchAll(ctx)
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-stream:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("Expected stream to close after context cancellation")
		}
	}
}

func TestExpenseRepositoryWatchByOrder(t *testing.T) {
	store := newTestStore(t)
	orders := NewOrderRepository(store, testPolicy())
	expenses := NewExpenseRepository(store, testPolicy())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	order := testOrder("Scoped", "Client", time.Now())
	if err := orders.Add(ctx, &order); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	other := testOrder("Other", "Client", time.Now())
	if err := orders.Add(ctx, &other); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	otherExpense := models.Expense{Title: "Elsewhere", Category: models.CategoryOther, Amount: 100, Date: time.Now()}
	if err := expenses.Add(ctx, &otherExpense, other.ID); err != nil {
		t.Fatalf("Add expense failed: %v", err)
	}

	stream := expenses.WatchByOrder(ctx, order.ID)
	select {
	case got := <-stream:
		if len(got) != 0 {
			t.Fatalf("Expected no expenses for %s, got %d", order.ID, len(got))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Expected initial emission")
	}

	mine := models.Expense{Title: "Mine", Category: models.CategoryTools, Amount: 900, Date: time.Now()}
	if err := expenses.Add(ctx, &mine, order.ID); err != nil {
		t.Fatalf("Add expense failed: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case got := <-stream:
			if len(got) == 1 && got[0].ID == mine.ID {
				return
			}
		case <-deadline:
			t.Fatal("Expected re-emission scoped to the order")
		}
	}
}
