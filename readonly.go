package l2cache

import (
	"context"
	"fmt"
)

// readOnly caches immutable data. Updates are a caller error.
type readOnly[V any] struct {
	base[V]
}

var _ EntityAccessStrategy[struct{}] = (*readOnly[struct{}])(nil)

func (s *readOnly[V]) AccessType() AccessType { return ReadOnly }

func (s *readOnly[V]) Get(ctx context.Context, key string, txTimestamp int64) (V, bool) {
	return s.get(ctx, key, txTimestamp)
}

func (s *readOnly[V]) PutFromLoad(ctx context.Context, key string, value V, txTimestamp int64, version uint64, minimalPutOverride bool) bool {
	return s.putFromLoad(ctx, key, value, txTimestamp, version, minimalPutOverride)
}

func (s *readOnly[V]) LockItem(context.Context, string, uint64) SoftLock { return NoLock{} }

func (s *readOnly[V]) UnlockItem(ctx context.Context, key string, _ SoftLock) {
	s.region.Remove(ctx, key)
}

func (s *readOnly[V]) Remove(ctx context.Context, key string) {
	s.log.Debug("remove", Fields{"region": s.region.name, "key": key})
	s.region.Remove(ctx, key)
}

func (s *readOnly[V]) Insert(context.Context, string, V, uint64) bool { return false }

func (s *readOnly[V]) AfterInsert(ctx context.Context, key string, value V, version uint64) bool {
	s.log.Debug("after insert", Fields{"region": s.region.name, "key": key, "version": version})
	s.region.Put(ctx, key, value)
	return true
}

func (s *readOnly[V]) Update(_ context.Context, key string, _ V, _, _ uint64) (bool, error) {
	return false, s.updateErr(key)
}

func (s *readOnly[V]) AfterUpdate(_ context.Context, key string, _ V, _, _ uint64, _ SoftLock) (bool, error) {
	return false, s.updateErr(key)
}

func (s *readOnly[V]) updateErr(key string) error {
	s.log.Error("update of read-only cache item", Fields{"region": s.region.name, "key": key})
	return fmt.Errorf("region %q key %q: %w", s.region.name, key, ErrReadOnlyUpdate)
}
