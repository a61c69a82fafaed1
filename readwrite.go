package l2cache

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/unkn0wn-root/l2cache/internal/wire"
)

const rwStripes = 64

// readWrite keeps soft locks in the store while writes are in flight.
//
// A cached Item is readable by transactions that started after it was
// cached. A Lock is never readable and blocks load-triggered puts until the
// writer unlocks or the lock times out. Read-modify-write steps on one key
// are serialized within the process; across processes the stored timestamps
// decide.
type readWrite[V any] struct {
	base[V]

	source  uuid.UUID
	nextID  atomic.Uint64
	stripes [rwStripes]sync.Mutex
}

var _ EntityAccessStrategy[struct{}] = (*readWrite[struct{}])(nil)

func newReadWrite[V any](r *Region[V]) *readWrite[V] {
	return &readWrite[V]{base: newBase(r), source: uuid.New()}
}

// rwLock identifies one Lock entry.
type rwLock struct {
	source uuid.UUID
	id     uint64
}

func (rwLock) softLock() {}

func (s *readWrite[V]) AccessType() AccessType { return ReadWrite }

func (s *readWrite[V]) stripe(key string) *sync.Mutex {
	return &s.stripes[xxhash.Sum64String(key)%rwStripes]
}

func (s *readWrite[V]) Get(ctx context.Context, key string, txTimestamp int64) (V, bool) {
	var zero V
	s.log.Debug("get", Fields{"region": s.region.name, "key": key, "tx_ts": txTimestamp})
	e, ok := s.region.getEntry(ctx, key)
	if !ok {
		return zero, false
	}
	if !readable(e, txTimestamp) {
		s.log.Debug("cache item not readable", Fields{"region": s.region.name, "key": key, "kind": e.kind})
		return zero, false
	}
	return s.region.decode(ctx, key, e.payload)
}

// PutFromLoad always behaves as a minimal put: only an absent or writeable
// entry is replaced.
func (s *readWrite[V]) PutFromLoad(ctx context.Context, key string, value V, txTimestamp int64, version uint64, _ bool) bool {
	mu := s.stripe(key)
	mu.Lock()
	defer mu.Unlock()

	e, ok := s.region.getEntry(ctx, key)
	if ok && !writeable(e, txTimestamp, version) {
		s.log.Debug("cache item not writeable", Fields{"region": s.region.name, "key": key, "tx_ts": txTimestamp})
		s.region.hooks.PutSkipped(s.region.name, key, "not_writeable")
		return false
	}
	return s.region.putItem(ctx, key, value, version, s.region.NextTimestamp())
}

func (s *readWrite[V]) LockItem(ctx context.Context, key string, version uint64) SoftLock {
	mu := s.stripe(key)
	mu.Lock()
	defer mu.Unlock()

	timeout := s.region.NextTimestamp() + s.region.Timeout()
	e, ok := s.region.getEntry(ctx, key)

	var l wire.Lock
	switch {
	case ok && e.kind == wire.KindLock:
		l = e.lock
		l.Concurrent = true
		l.Count++
		l.Timeout = timeout
	case ok && e.kind == wire.KindItem:
		l = s.newLock(timeout, e.item.Version)
	default:
		l = s.newLock(timeout, version)
	}
	s.log.Debug("lock item", Fields{"region": s.region.name, "key": key, "lock_id": l.ID, "count": l.Count})
	s.region.putLock(ctx, key, l)
	return rwLock{source: uuid.UUID(l.Source), id: l.ID}
}

func (s *readWrite[V]) UnlockItem(ctx context.Context, key string, lock SoftLock) {
	mu := s.stripe(key)
	mu.Lock()
	defer mu.Unlock()

	e, ok := s.region.getEntry(ctx, key)
	if ok && e.kind == wire.KindLock && matches(e.lock, lock) {
		s.decrementLock(ctx, key, e.lock)
		return
	}
	s.handleLockExpiry(ctx, key)
}

// Remove evicts; a later load repopulates the key.
func (s *readWrite[V]) Remove(ctx context.Context, key string) {
	s.log.Debug("remove", Fields{"region": s.region.name, "key": key})
	s.region.Remove(ctx, key)
}

func (s *readWrite[V]) Insert(context.Context, string, V, uint64) bool { return false }

// AfterInsert caches value unless something is already there.
func (s *readWrite[V]) AfterInsert(ctx context.Context, key string, value V, version uint64) bool {
	mu := s.stripe(key)
	mu.Lock()
	defer mu.Unlock()

	if _, ok := s.region.getEntry(ctx, key); ok {
		return false
	}
	return s.region.putItem(ctx, key, value, version, s.region.NextTimestamp())
}

func (s *readWrite[V]) Update(context.Context, string, V, uint64, uint64) (bool, error) {
	return false, nil
}

// AfterUpdate swaps the writer's lock for the new value unless another
// writer locked the key meanwhile.
func (s *readWrite[V]) AfterUpdate(ctx context.Context, key string, value V, currentVersion, _ uint64, lock SoftLock) (bool, error) {
	mu := s.stripe(key)
	mu.Lock()
	defer mu.Unlock()

	e, ok := s.region.getEntry(ctx, key)
	if !ok || e.kind != wire.KindLock || !matches(e.lock, lock) {
		s.handleLockExpiry(ctx, key)
		return false, nil
	}
	if e.lock.Concurrent {
		s.decrementLock(ctx, key, e.lock)
		return false, nil
	}
	return s.region.putItem(ctx, key, value, currentVersion, s.region.NextTimestamp()), nil
}

func (s *readWrite[V]) newLock(timeout int64, version uint64) wire.Lock {
	return wire.Lock{
		Timeout: timeout,
		Version: version,
		ID:      s.nextID.Add(1),
		Count:   1,
		Source:  s.source,
	}
}

// decrementLock releases one holder. The last release stamps the unlock time;
// loads from transactions that started before it are still refused.
func (s *readWrite[V]) decrementLock(ctx context.Context, key string, l wire.Lock) {
	if l.Count > 0 {
		l.Count--
	}
	if l.Count == 0 {
		l.UnlockTimestamp = s.region.NextTimestamp()
	}
	s.region.putLock(ctx, key, l)
}

// handleLockExpiry runs when the lock a writer holds is gone. The key is
// fenced with an unlocked Lock that refuses puts until the lock timeout
// passes.
func (s *readWrite[V]) handleLockExpiry(ctx context.Context, key string) {
	s.log.Info("cache lock expired", Fields{"region": s.region.name, "key": key})
	s.region.hooks.LockExpired(s.region.name, key)

	ts := s.region.NextTimestamp() + s.region.Timeout()
	l := s.newLock(ts, 0)
	l.Count = 0
	l.UnlockTimestamp = ts
	s.region.putLock(ctx, key, l)
}

func matches(l wire.Lock, lock SoftLock) bool {
	tok, ok := lock.(rwLock)
	return ok && tok.id == l.ID && tok.source == uuid.UUID(l.Source)
}

func readable(e entry, txTimestamp int64) bool {
	return e.kind != wire.KindLock && (e.kind == wire.KindValue || txTimestamp > e.item.Timestamp)
}

func writeable(e entry, txTimestamp int64, newVersion uint64) bool {
	switch e.kind {
	case wire.KindItem:
		return e.item.Version != 0 && e.item.Version < newVersion
	case wire.KindLock:
		l := e.lock
		if txTimestamp > l.Timeout {
			return true
		}
		if l.Count > 0 {
			return false
		}
		if l.Version == 0 {
			return txTimestamp > l.UnlockTimestamp
		}
		return l.Version < newVersion
	default:
		// plain values come from other access types sharing the region name
		return true
	}
}
