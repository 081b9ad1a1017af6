// Package watch provides a small change-notification bus used to drive
// live query streams. Writers call Notify after a successful mutation;
// subscribers receive coalesced ticks and re-run their query.
package watch

import (
	"context"
	"sync"
)

// Bus fans a change signal out to subscribers. Signals carry no payload
// and are coalesced: a subscriber that has not yet consumed a pending
// tick will see rapid consecutive notifications as one.
type Bus struct {
	mu   sync.Mutex
	next int
	subs map[int]chan struct{}
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan struct{})}
}

// Notify signals all current subscribers that something changed.
// It never blocks.
func (b *Bus) Notify() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- struct{}{}:
		default: // a tick is already pending, coalesce
		}
	}
}

// Subscribe registers a new subscriber. The returned channel receives a
// tick after every Notify (coalesced) until ctx is done, at which point
// the subscription is removed and the channel closed.
func (b *Bus) Subscribe(ctx context.Context) <-chan struct{} {
	ch := make(chan struct{}, 1)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
		close(ch)
	}()

	return ch
}
