package l2cache

import "context"

// nonStrictReadWrite caches without locking. Every write invalidates the key
// and new values only enter the cache through a later load.
type nonStrictReadWrite[V any] struct {
	base[V]
}

var _ EntityAccessStrategy[struct{}] = (*nonStrictReadWrite[struct{}])(nil)

func (s *nonStrictReadWrite[V]) AccessType() AccessType { return NonStrictReadWrite }

func (s *nonStrictReadWrite[V]) Get(ctx context.Context, key string, txTimestamp int64) (V, bool) {
	return s.get(ctx, key, txTimestamp)
}

func (s *nonStrictReadWrite[V]) PutFromLoad(ctx context.Context, key string, value V, txTimestamp int64, version uint64, minimalPutOverride bool) bool {
	return s.putFromLoad(ctx, key, value, txTimestamp, version, minimalPutOverride)
}

func (s *nonStrictReadWrite[V]) LockItem(context.Context, string, uint64) SoftLock { return NoLock{} }

// UnlockItem evicts: the write it guarded may have changed the row.
func (s *nonStrictReadWrite[V]) UnlockItem(ctx context.Context, key string, _ SoftLock) {
	s.log.Debug("unlock item", Fields{"region": s.region.name, "key": key})
	s.region.Remove(ctx, key)
}

func (s *nonStrictReadWrite[V]) Remove(ctx context.Context, key string) {
	s.log.Debug("remove", Fields{"region": s.region.name, "key": key})
	s.region.Remove(ctx, key)
}

func (s *nonStrictReadWrite[V]) Insert(context.Context, string, V, uint64) bool { return false }

func (s *nonStrictReadWrite[V]) AfterInsert(context.Context, string, V, uint64) bool { return false }

// Update evicts and never caches the new value.
func (s *nonStrictReadWrite[V]) Update(ctx context.Context, key string, _ V, currentVersion, previousVersion uint64) (bool, error) {
	s.log.Debug("update", Fields{
		"region":           s.region.name,
		"key":              key,
		"version":          currentVersion,
		"previous_version": previousVersion,
	})
	s.region.Remove(ctx, key)
	return false, nil
}

func (s *nonStrictReadWrite[V]) AfterUpdate(ctx context.Context, key string, _ V, _, _ uint64, lock SoftLock) (bool, error) {
	s.UnlockItem(ctx, key, lock)
	return false, nil
}
