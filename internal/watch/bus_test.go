package watch

import (
	"context"
	"testing"
	"time"
)

func TestBusNotifyReachesSubscriber(t *testing.T) {
	bus := NewBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := bus.Subscribe(ctx)
	bus.Notify()

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("Expected a tick after Notify")
	}
}

func TestBusCoalescesRapidNotifications(t *testing.T) {
	bus := NewBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := bus.Subscribe(ctx)
	for i := 0; i < 10; i++ {
		bus.Notify()
	}

	// First tick must be pending.
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("Expected a pending tick")
	}

	// The remaining nine were coalesced into at most one more.
	ticks := 0
	for {
		select {
		case <-ch:
			ticks++
		case <-time.After(50 * time.Millisecond):
			if ticks > 1 {
				t.Errorf("Expected at most 1 coalesced tick, got %d", ticks)
			}
			return
		}
	}
}

func TestBusUnsubscribeOnCancel(t *testing.T) {
	bus := NewBus()
	ctx, cancel := context.WithCancel(context.Background())

	ch := bus.Subscribe(ctx)
	cancel()

	// Channel closes once the subscription is removed.
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("Expected channel to close after context cancellation")
		}
	}
}
