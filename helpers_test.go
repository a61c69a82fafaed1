package l2cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/unkn0wn-root/l2cache/codec"
	"github.com/unkn0wn-root/l2cache/store"
)

var ctxBG = context.Background()

type user struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type logEntry struct {
	level string
	msg   string
	f     Fields
}

type recLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recLogger) add(level, msg string, f Fields) {
	l.mu.Lock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, f: f})
	l.mu.Unlock()
}

func (l *recLogger) Debug(msg string, f Fields) { l.add("debug", msg, f) }
func (l *recLogger) Info(msg string, f Fields)  { l.add("info", msg, f) }
func (l *recLogger) Warn(msg string, f Fields)  { l.add("warn", msg, f) }
func (l *recLogger) Error(msg string, f Fields) { l.add("error", msg, f) }

func (l *recLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.level == level {
			n++
		}
	}
	return n
}

type storeFailure struct {
	region string
	op     store.Op
	key    string
	err    error
}

type recHooks struct {
	mu          sync.Mutex
	failures    []storeFailure
	heals       []string
	skipped     []string
	lockExpired []string
}

func (h *recHooks) StoreFailure(region string, op store.Op, key string, err error) {
	h.mu.Lock()
	h.failures = append(h.failures, storeFailure{region, op, key, err})
	h.mu.Unlock()
}

func (h *recHooks) SelfHeal(_, key, reason string) {
	h.mu.Lock()
	h.heals = append(h.heals, key+":"+reason)
	h.mu.Unlock()
}

func (h *recHooks) PutSkipped(_, key, reason string) {
	h.mu.Lock()
	h.skipped = append(h.skipped, key+":"+reason)
	h.mu.Unlock()
}

func (h *recHooks) LockExpired(_, key string) {
	h.mu.Lock()
	h.lockExpired = append(h.lockExpired, key)
	h.mu.Unlock()
}

func newTestRegion(t *testing.T, st store.Store, mut func(*RegionOptions[user])) *Region[user] {
	t.Helper()
	opts := RegionOptions[user]{
		Name:       "app.User",
		Store:      st,
		Codec:      codec.JSON[user]{},
		Expiration: 120 * time.Second,
	}
	if mut != nil {
		mut(&opts)
	}
	r, err := NewRegion(opts)
	if err != nil {
		t.Fatalf("NewRegion: %v", err)
	}
	return r
}

func newTestStrategy(t *testing.T, st store.Store, at AccessType) EntityAccessStrategy[user] {
	t.Helper()
	s, err := NewAccessStrategy(newTestRegion(t, st, nil), at)
	if err != nil {
		t.Fatalf("NewAccessStrategy(%s): %v", at, err)
	}
	return s
}

func mustGet(t *testing.T, s RegionAccessStrategy[user], key string) user {
	t.Helper()
	v, ok := s.Get(ctxBG, key, NextTimestamp())
	if !ok {
		t.Fatalf("Get(%q): miss", key)
	}
	return v
}

func mustMiss(t *testing.T, s RegionAccessStrategy[user], key string) {
	t.Helper()
	if v, ok := s.Get(ctxBG, key, NextTimestamp()); ok {
		t.Fatalf("Get(%q): unexpected hit %+v", key, v)
	}
}
