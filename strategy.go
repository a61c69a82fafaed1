package l2cache

import "context"

// base holds the behavior every access type shares.
type base[V any] struct {
	region *Region[V]
	log    Logger
}

func newBase[V any](r *Region[V]) base[V] {
	return base[V]{region: r, log: r.log}
}

func (b base[V]) Region() *Region[V] { return b.region }

// Evict drops key without any lock bookkeeping.
func (b base[V]) Evict(ctx context.Context, key string) {
	b.log.Debug("evict", Fields{"region": b.region.name, "key": key})
	b.region.Remove(ctx, key)
}

func (b base[V]) EvictAll(ctx context.Context) {
	b.log.Debug("evict all", Fields{"region": b.region.name})
	b.region.Clear(ctx)
}

func (b base[V]) RemoveAll(ctx context.Context) { b.EvictAll(ctx) }

func (b base[V]) LockRegion(context.Context) SoftLock { return NoLock{} }

func (b base[V]) UnlockRegion(ctx context.Context, _ SoftLock) { b.EvictAll(ctx) }

// get is a plain read-through.
func (b base[V]) get(ctx context.Context, key string, txTimestamp int64) (V, bool) {
	b.log.Debug("get", Fields{"region": b.region.name, "key": key, "tx_ts": txTimestamp})
	return b.region.Get(ctx, key)
}

// putFromLoad skips the write when minimal puts are on and key is already
// cached; otherwise it writes through.
func (b base[V]) putFromLoad(ctx context.Context, key string, value V, txTimestamp int64, version uint64, minimalPutOverride bool) bool {
	b.log.Debug("put from load", Fields{
		"region":  b.region.name,
		"key":     key,
		"tx_ts":   txTimestamp,
		"version": version,
		"minimal": minimalPutOverride,
	})
	if minimalPutOverride && b.region.Contains(ctx, key) {
		b.log.Debug("item already cached", Fields{"region": b.region.name, "key": key})
		b.region.hooks.PutSkipped(b.region.name, key, "minimal_put")
		return false
	}
	b.region.Put(ctx, key, value)
	return true
}
