// Package storetest provides Store fakes and a conformance suite shared by the
// store implementations and the l2cache tests.
package storetest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/unkn0wn-root/l2cache/store"
)

// ErrInjected is the default error returned by failure injection.
var ErrInjected = errors.New("storetest: injected failure")

type memEntry struct {
	v   []byte
	exp time.Time // zero => no TTL
}

// Memory is an in-memory store.Store with TTL, call counting and failure
// injection. The zero value is not usable; use NewMemory.
type Memory struct {
	mu    sync.Mutex
	m     map[string]map[string]memEntry
	now   func() time.Time
	calls map[store.Op]int
	fail  map[store.Op]error
}

var _ store.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		m:     make(map[string]map[string]memEntry),
		now:   time.Now,
		calls: make(map[store.Op]int),
		fail:  make(map[store.Op]error),
	}
}

// SetClock replaces the time source used for TTL bookkeeping.
func (s *Memory) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// FailOn makes every subsequent call of op return err. A nil err clears it.
func (s *Memory) FailOn(op store.Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, op)
		return
	}
	s.fail[op] = err
}

// FailAll makes every operation fail with ErrInjected.
func (s *Memory) FailAll() {
	for _, op := range []store.Op{store.OpGet, store.OpSet, store.OpDel, store.OpDeleteRegion, store.OpContains} {
		s.FailOn(op, ErrInjected)
	}
}

// Calls reports how many times op was invoked (failed calls included).
func (s *Memory) Calls(op store.Op) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// Raw returns the stored bytes without touching TTLs or counters.
func (s *Memory) Raw(region, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(region, key)
	return e.v, ok
}

// Expiry returns the absolute expiry of (region, key); zero means no TTL.
func (s *Memory) Expiry(region, key string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(region, key)
	return e.exp, ok
}

// Inject writes raw bytes, bypassing counters and failure injection.
func (s *Memory) Inject(region, key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bucket(region)[key] = memEntry{v: value}
}

// Len returns the number of live keys in region.
func (s *Memory) Len(region string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.m[region] {
		if _, ok := s.live(region, k); ok {
			n++
		}
	}
	return n
}

func (s *Memory) Get(_ context.Context, region, key string, ttl time.Duration) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(store.OpGet); err != nil {
		return nil, false, err
	}
	e, ok := s.live(region, key)
	if !ok {
		return nil, false, nil
	}
	if ttl > 0 {
		e.exp = s.now().Add(ttl)
		s.m[region][key] = e
	}
	return e.v, true, nil
}

func (s *Memory) Set(_ context.Context, region, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(store.OpSet); err != nil {
		return err
	}
	var exp time.Time
	if ttl > 0 {
		exp = s.now().Add(ttl)
	}
	cp := append([]byte(nil), value...)
	s.bucket(region)[key] = memEntry{v: cp, exp: exp}
	return nil
}

func (s *Memory) Del(_ context.Context, region, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(store.OpDel); err != nil {
		return err
	}
	delete(s.m[region], key)
	return nil
}

func (s *Memory) DeleteRegion(_ context.Context, region string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(store.OpDeleteRegion); err != nil {
		return err
	}
	delete(s.m, region)
	return nil
}

func (s *Memory) Contains(_ context.Context, region, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(store.OpContains); err != nil {
		return false, err
	}
	_, ok := s.live(region, key)
	return ok, nil
}

func (s *Memory) Close(context.Context) error { return nil }

// enter counts the call and returns the injected failure, if any. Caller holds mu.
func (s *Memory) enter(op store.Op) error {
	s.calls[op]++
	return s.fail[op]
}

// live returns the entry if present and unexpired, dropping expired ones. Caller holds mu.
func (s *Memory) live(region, key string) (memEntry, bool) {
	b, ok := s.m[region]
	if !ok {
		return memEntry{}, false
	}
	e, ok := b[key]
	if !ok {
		return memEntry{}, false
	}
	if !e.exp.IsZero() && !s.now().Before(e.exp) {
		delete(b, key)
		return memEntry{}, false
	}
	return e, true
}

func (s *Memory) bucket(region string) map[string]memEntry {
	b, ok := s.m[region]
	if !ok {
		b = make(map[string]memEntry)
		s.m[region] = b
	}
	return b
}
