// Package l2cache is a second-level object cache for persistence engines.
//
// It sits between an engine's session/transaction layer and a key-value store
// and turns entity, collection and natural-id lifecycle events (load, insert,
// update, remove, lock/unlock) into region-scoped store operations.
//
// Components:
//   - store.Store: region-scoped byte store with TTL (Redis, Valkey, or a flat
//     in-process provider via store/flat).
//   - Region[V]: a named, TTL-scoped partition of the store. Every store failure
//     is swallowed here: a read becomes a miss, a write becomes a no-op.
//   - Access strategies: read-only, nonstrict-read-write, read-write and
//     transactional. Each decides when caching is safe for one region.
//   - RegionFactory: builds regions and binds one strategy to each.
//
// The cache is advisory. The engine's database stays the source of truth, and
// a store outage only turns the cache off:
//
//	f, _ := l2cache.NewRegionFactory(l2cache.Options{Store: st, Config: l2cache.DefaultConfig()})
//	users, _ := l2cache.BuildEntityAccess(f, "app.User", codec.JSON[User]{})
//
//	tx := f.NextTimestamp()
//	if u, ok := users.Get(ctx, "42", tx); ok {
//		return u
//	}
//	u := loadFromDB("42")
//	users.PutFromLoad(ctx, "42", u, tx, u.Version, true)
package l2cache
