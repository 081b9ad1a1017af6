// Command orderledger opens the local order store and tails the
// filtered order list: the same live pipeline the list screen
// subscribes to, printed to stdout. Useful for inspecting a device
// database and for exercising the data layer end to end.
//
//	orderledger -db data/orders.db
//	orderledger -search acme -status ACTIVE
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/avolkov/orderledger/internal/config"
	"github.com/avolkov/orderledger/internal/crashlog"
	"github.com/avolkov/orderledger/internal/models"
	"github.com/avolkov/orderledger/internal/prefs"
	"github.com/avolkov/orderledger/internal/query"
	"github.com/avolkov/orderledger/internal/repository"
	"github.com/avolkov/orderledger/internal/storage/sqlite"
	"github.com/avolkov/orderledger/pkg/logging"
	"github.com/avolkov/orderledger/pkg/retry"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (optional)")
	dbPath := flag.String("db", "", "override database path")
	search := flag.String("search", "", "initial search text")
	status := flag.String("status", "", "status filter: PLANNED, ACTIVE or COMPLETED")
	flag.Parse()

	// .env values fill in unset environment variables, never override them.
	if envMap, err := godotenv.Read(); err == nil {
		for k, v := range envMap {
			if os.Getenv(k) == "" {
				os.Setenv(k, v)
			}
		}
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level)

	recorder := crashlog.New(cfg.CrashLog.Dir, cfg.CrashLog.Keep)
	defer recorder.Capture()

	if err := run(cfg, recorder, *dbPath, *search, *status); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("orderledger failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, recorder *crashlog.Recorder, dbPath, search, statusName string) error {
	var statusFilter *models.OrderStatus
	if statusName != "" {
		status, err := models.ParseOrderStatus(statusName)
		if err != nil {
			return err
		}
		statusFilter = &status
	}

	if dbPath == "" {
		dbPath = cfg.Database.Path
	}
	store, err := sqlite.New(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", dbPath)

	policy := retry.Policy{Attempts: cfg.Retry.Attempts, Backoff: cfg.RetryBackoff()}
	orders := repository.NewOrderRepository(store, policy)

	theme := prefs.NewThemeStore(cfg.Prefs.Path)
	slog.Debug("Theme preference", "dark", theme.IsDark())

	pipeline := query.New(orders, cfg.Debounce())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer recorder.Capture()
		return pipeline.Run(ctx)
	})

	g.Go(func() error {
		defer recorder.Capture()
		stream := pipeline.Subscribe(ctx)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case snapshot, ok := <-stream:
				if !ok {
					return nil
				}
				printOrders(snapshot)
			}
		}
	})

	pipeline.SetSearchText(search)
	pipeline.SetStatus(statusFilter)
	slog.Info("Watching order list", "search", search, "status", statusName)

	return g.Wait()
}

func printOrders(orders []models.Order) {
	fmt.Printf("--- %d orders ---\n", len(orders))
	for _, o := range orders {
		line := fmt.Sprintf("%s  %-10s %-24s %-16s %8.2f", o.Date.Format("2006-01-02"),
			o.Status, o.Title, o.Client, float64(o.Amount)/100)
		if o.HasCompleteData() {
			line += fmt.Sprintf("  profit %.2f (%.1f%%)", float64(o.Profit())/100, o.ProfitPercent())
		}
		fmt.Println(line)
	}
}
