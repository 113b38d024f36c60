package attendance

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// Recounter runs full region counter recounts on a background worker.
// Requests are at-least-once: a recount is cheap and idempotent, so a
// duplicate schedule just recomputes the same numbers.
type Recounter struct {
	store database.RegionStore
	now   func() time.Time

	requests chan int64
	wg       sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

// NewRecounter creates a recounter with a bounded request queue.
func NewRecounter(store database.RegionStore, queueSize int) *Recounter {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Recounter{
		store:    store,
		now:      time.Now,
		requests: make(chan int64, queueSize),
	}
}

// Start launches the worker goroutine. The worker drains the queue and
// exits after Stop is called.
func (r *Recounter) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for regionID := range r.requests {
			r.recount(ctx, regionID)
		}
	}()
}

// Schedule enqueues a region recount. When the queue is full the request
// runs synchronously instead of blocking the caller's request path.
func (r *Recounter) Schedule(regionID int64) {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	select {
	case r.requests <- regionID:
		r.mu.Unlock()
	default:
		r.mu.Unlock()
		r.recount(context.Background(), regionID)
	}
}

// Stop closes the queue and waits for the worker to drain it.
func (r *Recounter) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	close(r.requests)
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Recounter) recount(ctx context.Context, regionID int64) {
	if err := r.store.RecountRegion(ctx, regionID, Day(r.now())); err != nil {
		log.Printf("failed to recount region %d: %v", regionID, err)
	}
}
