package l2cache

import "context"

// transactional writes new values through inside the writing transaction and
// relies on the engine's transaction to keep readers consistent.
type transactional[V any] struct {
	base[V]
}

var _ EntityAccessStrategy[struct{}] = (*transactional[struct{}])(nil)

func (s *transactional[V]) AccessType() AccessType { return Transactional }

func (s *transactional[V]) Get(ctx context.Context, key string, txTimestamp int64) (V, bool) {
	return s.get(ctx, key, txTimestamp)
}

func (s *transactional[V]) PutFromLoad(ctx context.Context, key string, value V, txTimestamp int64, version uint64, minimalPutOverride bool) bool {
	return s.putFromLoad(ctx, key, value, txTimestamp, version, minimalPutOverride)
}

// LockItem evicts so readers reload instead of seeing the value being written.
func (s *transactional[V]) LockItem(ctx context.Context, key string, version uint64) SoftLock {
	s.log.Debug("lock item", Fields{"region": s.region.name, "key": key, "version": version})
	s.region.Remove(ctx, key)
	return NoLock{}
}

// UnlockItem evicts; the committed value is loaded again on the next read.
func (s *transactional[V]) UnlockItem(ctx context.Context, key string, _ SoftLock) {
	s.log.Debug("unlock item", Fields{"region": s.region.name, "key": key})
	s.region.Remove(ctx, key)
}

func (s *transactional[V]) Remove(ctx context.Context, key string) {
	s.log.Debug("remove", Fields{"region": s.region.name, "key": key})
	s.region.Remove(ctx, key)
}

func (s *transactional[V]) Insert(ctx context.Context, key string, value V, version uint64) bool {
	s.log.Debug("insert", Fields{"region": s.region.name, "key": key, "version": version})
	s.region.Put(ctx, key, value)
	return true
}

func (s *transactional[V]) AfterInsert(context.Context, string, V, uint64) bool { return false }

func (s *transactional[V]) Update(ctx context.Context, key string, value V, currentVersion, previousVersion uint64) (bool, error) {
	s.log.Debug("update", Fields{
		"region":           s.region.name,
		"key":              key,
		"version":          currentVersion,
		"previous_version": previousVersion,
	})
	s.region.Put(ctx, key, value)
	return true, nil
}

// AfterUpdate evicts what Update wrote.
func (s *transactional[V]) AfterUpdate(ctx context.Context, key string, _ V, _, _ uint64, lock SoftLock) (bool, error) {
	s.UnlockItem(ctx, key, lock)
	return false, nil
}
