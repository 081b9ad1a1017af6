// Package query combines the order list's two user inputs, free-text
// search and an optional status filter, into one live result stream.
package query

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/avolkov/orderledger/internal/models"
)

// DefaultDebounce is how long the search text must be quiet before it
// takes effect, so typing does not issue a query per keystroke.
const DefaultDebounce = 300 * time.Millisecond

// OrderSource is the slice of the order repository the pipeline reads.
type OrderSource interface {
	WatchAll(ctx context.Context) <-chan []models.Order
	WatchSearch(ctx context.Context, query string) <-chan []models.Order
}

// snapshot tags a result list with the generation of the source
// subscription that produced it, so emissions from a superseded
// subscription can be dropped.
type snapshot struct {
	gen    int
	orders []models.Order
}

// Pipeline turns (searchText, selectedStatus) into a live, ordered
// order list. Depending on the two inputs it watches either the full
// list or a search, filtering by status in memory, and switches the
// underlying subscription whenever an effective input changes. The
// superseded subscription is cancelled before the new one is
// established; the last-requested source always wins.
type Pipeline struct {
	source   OrderSource
	debounce time.Duration

	searchCh chan string
	statusCh chan *models.OrderStatus

	mu      sync.Mutex
	last    []models.Order
	hasLast bool
	nextSub int
	subs    map[int]chan []models.Order
}

// New creates a Pipeline over the given source. A non-positive debounce
// falls back to DefaultDebounce.
func New(source OrderSource, debounce time.Duration) *Pipeline {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Pipeline{
		source:   source,
		debounce: debounce,
		searchCh: make(chan string, 1),
		statusCh: make(chan *models.OrderStatus, 1),
		subs:     make(map[int]chan []models.Order),
	}
}

// SetSearchText updates the search input. The value takes effect after
// the debounce window and only if it differs from the one in effect.
func (p *Pipeline) SetSearchText(text string) {
	sendLatest(p.searchCh, text)
}

// SetStatus updates the status filter. nil means no filter. Takes
// effect immediately.
func (p *Pipeline) SetStatus(status *models.OrderStatus) {
	sendLatest(p.statusCh, status)
}

// sendLatest delivers value to a capacity-1 channel, replacing any
// value still pending. Only the newest input matters.
func sendLatest[T any](ch chan T, value T) {
	for {
		select {
		case ch <- value:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

// Subscribe registers a new consumer of the filtered list. The current
// result, if any, is replayed immediately; the channel closes when ctx
// is done. Slow consumers see coalesced snapshots, never stale ones
// queued behind fresh ones.
func (p *Pipeline) Subscribe(ctx context.Context) <-chan []models.Order {
	ch := make(chan []models.Order, 1)

	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = ch
	if p.hasLast {
		ch <- p.last
	}
	p.mu.Unlock()

	go func() {
		<-ctx.Done()
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
		close(ch)
	}()

	return ch
}

func (p *Pipeline) publish(orders []models.Order) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = orders
	p.hasLast = true
	for _, ch := range p.subs {
		select {
		case ch <- orders:
		default:
			// Drop the stale pending snapshot, then queue the fresh one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- orders:
			default:
			}
		}
	}
}

// Run drives the pipeline until ctx is done. It must be called exactly
// once; SetSearchText and SetStatus may be called before and during.
func (p *Pipeline) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.loop(ctx)
	})
	return g.Wait()
}

func (p *Pipeline) loop(ctx context.Context) error {
	var (
		applied string               // debounced search text in effect
		pending string               // latest raw search text
		status  *models.OrderStatus

		timer  *time.Timer
		timerC <-chan time.Time

		gen       int
		cancelSub context.CancelFunc
	)

	results := make(chan snapshot, 1)

	resubscribe := func() {
		// Cancel the superseded subscription before the new one starts:
		// no two source streams may race to update the visible list.
		if cancelSub != nil {
			cancelSub()
		}
		gen++
		subCtx, cancel := context.WithCancel(ctx)
		cancelSub = cancel
		go p.runSource(subCtx, gen, applied, status, results)
	}
	defer func() {
		if cancelSub != nil {
			cancelSub()
		}
	}()

	resubscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case text := <-p.searchCh:
			pending = text
			if timer == nil {
				timer = time.NewTimer(p.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(p.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			if pending != applied { // deduplicated against the value in effect
				applied = pending
				resubscribe()
			}

		case st := <-p.statusCh:
			if !statusEqual(st, status) {
				status = st
				resubscribe()
			}

		case snap := <-results:
			if snap.gen != gen {
				continue // stale emission from a superseded subscription
			}
			p.publish(snap.orders)
		}
	}
}

// runSource forwards one underlying subscription into the results
// channel, applying the in-memory status filter, until its ctx is
// cancelled by the next resubscribe.
func (p *Pipeline) runSource(ctx context.Context, gen int, search string, status *models.OrderStatus, results chan<- snapshot) {
	var src <-chan []models.Order
	if search == "" {
		src = p.source.WatchAll(ctx)
	} else {
		src = p.source.WatchSearch(ctx, search)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case orders, ok := <-src:
			if !ok {
				return
			}
			if status != nil {
				orders = filterByStatus(orders, *status)
			}
			select {
			case results <- snapshot{gen: gen, orders: orders}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func filterByStatus(orders []models.Order, status models.OrderStatus) []models.Order {
	filtered := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if o.Status == status {
			filtered = append(filtered, o)
		}
	}
	return filtered
}

func statusEqual(a, b *models.OrderStatus) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
