package repository

import (
	"context"
	"log/slog"

	"github.com/avolkov/orderledger/internal/watch"
)

// watchLoop drives a live read stream: it emits the current query
// result immediately, then re-queries and re-emits after every change
// notification until ctx is done. The out channel is closed on exit.
//
// A query that fails is logged and skipped; the stream stays alive and
// emits again on the next change.
func watchLoop[T any](ctx context.Context, bus *watch.Bus, out chan<- T, query func(context.Context) (T, error)) {
	defer close(out)

	ticks := bus.Subscribe(ctx)

	emit := func() {
		result, err := query(ctx)
		if err != nil {
			if ctx.Err() == nil {
				slog.Error("Watch query failed", "error", err)
			}
			return
		}
		select {
		case out <- result:
		case <-ctx.Done():
		}
	}

	emit() // replay on subscribe

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ticks:
			if !ok {
				return
			}
			emit()
		}
	}
}
