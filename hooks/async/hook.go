// Package asynchook moves l2cache hook calls off the caller's goroutine.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    SelfHealEvery:   10, // sample logs: ~every 10th self-heal
//	    PutSkippedEvery: 100,
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	f, _ := l2cache.NewRegionFactory(l2cache.Options{
//	    Store:  st,
//	    Config: l2cache.DefaultConfig(),
//	    Hooks:  hooks, // or `raw` if you don’t want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/l2cache"
	"github.com/unkn0wn-root/l2cache/store"
)

// Hooks forwards events to inner from a fixed worker pool. Events that
// don't fit the queue are dropped and counted.
type Hooks struct {
	inner   l2cache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

var _ l2cache.Hooks = (*Hooks)(nil)

func New(inner l2cache.Hooks, workers, qlen int) *Hooks {
	if inner == nil {
		inner = l2cache.NopHooks{}
	}
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains the queue and stops the workers. Events after Close are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped reports how many events were discarded.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default: // drop
		h.dropped.Add(1)
	}
}

func (h *Hooks) StoreFailure(region string, op store.Op, key string, err error) {
	h.try(func() { h.inner.StoreFailure(region, op, key, err) })
}
func (h *Hooks) SelfHeal(region, key, reason string) {
	h.try(func() { h.inner.SelfHeal(region, key, reason) })
}
func (h *Hooks) PutSkipped(region, key, reason string) {
	h.try(func() { h.inner.PutSkipped(region, key, reason) })
}
func (h *Hooks) LockExpired(region, key string) { h.try(func() { h.inner.LockExpired(region, key) }) }
