package l2cache

import (
	"context"
	"errors"
	"time"

	"github.com/unkn0wn-root/l2cache/codec"
	"github.com/unkn0wn-root/l2cache/internal/wire"
	"github.com/unkn0wn-root/l2cache/store"
)

// RegionOptions configures a single region.
type RegionOptions[V any] struct {
	Name  string
	Kind  RegionKind     // default: EntityRegion
	Store store.Store    // required
	Codec codec.Codec[V] // required

	// Entry TTL. Reads slide it forward. 0 => entries never expire.
	Expiration time.Duration

	// How long a read-write soft lock keeps a key uncacheable when the
	// locking transaction never unlocks. Default: 60s.
	LockTimeout time.Duration

	// StoreName is the namespace the region occupies in the store.
	// Default: Name.
	StoreName string

	// Disabled regions never touch the store: every read misses and every
	// write is dropped.
	Disabled bool

	Logger Logger
	Hooks  Hooks
}

// Region is a named, TTL-scoped partition of a store.Store.
//
// Every store failure is swallowed here. Reads degrade to misses and writes
// to no-ops; the failure is logged at Warn and reported to Hooks.StoreFailure.
type Region[V any] struct {
	name      string
	storeName string
	kind      RegionKind
	ttl       time.Duration
	timeout   time.Duration
	enabled   bool

	store store.Store
	codec codec.Codec[V]
	log   Logger
	hooks Hooks
}

func NewRegion[V any](opts RegionOptions[V]) (*Region[V], error) {
	if opts.Name == "" {
		return nil, &ConfigError{Field: "region", Err: ErrEmptyRegionName}
	}
	if opts.Store == nil {
		return nil, &ConfigError{Field: "store", Value: opts.Name, Err: ErrNilStore}
	}
	if opts.Codec == nil {
		return nil, &ConfigError{Field: "codec", Value: opts.Name, Err: ErrNilCodec}
	}
	if opts.Expiration < 0 {
		return nil, &ConfigError{Field: "expiration", Value: opts.Name, Err: ErrNegativeExpiration}
	}
	if opts.LockTimeout < 0 {
		return nil, &ConfigError{Field: "lock_timeout", Value: opts.Name, Err: ErrNegativeExpiration}
	}

	log := loggerOrNop(opts.Logger)
	hooks := hooksOrNop(opts.Hooks)

	return &Region[V]{
		name:      opts.Name,
		storeName: coalesce(opts.StoreName, opts.Name),
		kind:      coalesce(opts.Kind, EntityRegion),
		ttl:       opts.Expiration,
		timeout:   coalesce(opts.LockTimeout, defaultLockTimeout),
		enabled:   !opts.Disabled,
		store:     opts.Store,
		codec:     opts.Codec,
		log:       log,
		hooks:     hooks,
	}, nil
}

func (r *Region[V]) Name() string              { return r.name }
func (r *Region[V]) Kind() RegionKind          { return r.kind }
func (r *Region[V]) Expiration() time.Duration { return r.ttl }
func (r *Region[V]) Enabled() bool             { return r.enabled }

// NextTimestamp returns a fresh transaction timestamp.
func (r *Region[V]) NextTimestamp() int64 { return NextTimestamp() }

// Timeout is the soft lock timeout in timestamp units.
func (r *Region[V]) Timeout() int64 { return toTimestampUnits(r.timeout) }

// Get returns the value cached under key. Soft locks read as a miss.
func (r *Region[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V
	e, ok := r.getEntry(ctx, key)
	if !ok || e.kind == wire.KindLock {
		return zero, false
	}
	return r.decode(ctx, key, e.payload)
}

// Put caches value under key with the region expiration.
func (r *Region[V]) Put(ctx context.Context, key string, value V) {
	if !r.enabled {
		return
	}
	payload, err := r.codec.Encode(value)
	if err != nil {
		r.log.Warn("fail to encode cache item", Fields{"region": r.name, "key": key, "err": err})
		return
	}
	r.set(ctx, key, wire.EncodeValue(payload))
}

// Remove drops key. Absent keys are fine.
func (r *Region[V]) Remove(ctx context.Context, key string) {
	if !r.enabled {
		return
	}
	r.log.Debug("remove cache item", Fields{"region": r.name, "key": key})
	if err := r.store.Del(ctx, r.storeName, key); err != nil {
		r.fail(store.OpDel, key, err, "fail to remove cache item")
	}
}

// Clear drops every key of the region.
func (r *Region[V]) Clear(ctx context.Context) {
	if !r.enabled {
		return
	}
	r.log.Debug("clear region", Fields{"region": r.name})
	if err := r.store.DeleteRegion(ctx, r.storeName); err != nil {
		r.fail(store.OpDeleteRegion, "", err, "fail to clear region")
	}
}

// Contains reports whether the store holds an entry for key. A soft lock
// counts as present.
func (r *Region[V]) Contains(ctx context.Context, key string) bool {
	if !r.enabled {
		return false
	}
	ok, err := r.store.Contains(ctx, r.storeName, key)
	if err != nil {
		r.fail(store.OpContains, key, err, "fail to check cache item")
		return false
	}
	return ok
}

// entry is a decoded frame; payload is set for values and items.
type entry struct {
	kind    wire.Kind
	item    wire.Item
	lock    wire.Lock
	payload []byte
}

// getEntry loads and unframes key. Frames that don't parse are deleted and
// read as a miss.
func (r *Region[V]) getEntry(ctx context.Context, key string) (entry, bool) {
	if !r.enabled {
		return entry{}, false
	}
	r.log.Debug("get cache item", Fields{"region": r.name, "key": key, "ttl": r.ttl})
	raw, ok, err := r.store.Get(ctx, r.storeName, key, r.ttl)
	if err != nil {
		r.fail(store.OpGet, key, err, "fail to get cache item")
		return entry{}, false
	}
	if !ok {
		return entry{}, false
	}

	e, err := unframe(raw)
	if err != nil {
		r.heal(ctx, key, "corrupt")
		return entry{}, false
	}
	return e, true
}

func unframe(raw []byte) (entry, error) {
	k, err := wire.Peek(raw)
	if err != nil {
		return entry{}, err
	}
	e := entry{kind: k}
	switch k {
	case wire.KindValue:
		e.payload, err = wire.DecodeValue(raw)
	case wire.KindItem:
		e.item, err = wire.DecodeItem(raw)
		e.payload = e.item.Payload
	case wire.KindLock:
		e.lock, err = wire.DecodeLock(raw)
	}
	return e, err
}

func (r *Region[V]) decode(ctx context.Context, key string, payload []byte) (V, bool) {
	v, err := r.codec.Decode(payload)
	if err != nil {
		var zero V
		r.heal(ctx, key, "value_decode")
		return zero, false
	}
	return v, true
}

// putItem caches value as a read-write item.
func (r *Region[V]) putItem(ctx context.Context, key string, value V, version uint64, ts int64) bool {
	if !r.enabled {
		return false
	}
	payload, err := r.codec.Encode(value)
	if err != nil {
		r.log.Warn("fail to encode cache item", Fields{"region": r.name, "key": key, "err": err})
		return false
	}
	return r.set(ctx, key, wire.EncodeItem(wire.Item{Timestamp: ts, Version: version, Payload: payload}))
}

// putLock replaces whatever key holds with a read-write soft lock.
func (r *Region[V]) putLock(ctx context.Context, key string, l wire.Lock) {
	if !r.enabled {
		return
	}
	r.set(ctx, key, wire.EncodeLock(l))
}

func (r *Region[V]) set(ctx context.Context, key string, b []byte) bool {
	r.log.Debug("put cache item", Fields{"region": r.name, "key": key, "ttl": r.ttl})
	err := r.store.Set(ctx, r.storeName, key, b, r.ttl)
	switch {
	case err == nil:
		return true
	case errors.Is(err, store.ErrRejected):
		r.log.Debug("cache item rejected by store", Fields{"region": r.name, "key": key})
		r.hooks.PutSkipped(r.name, key, "rejected")
	default:
		r.fail(store.OpSet, key, err, "fail to put cache item")
	}
	return false
}

// heal drops an entry that can't be read back.
func (r *Region[V]) heal(ctx context.Context, key, reason string) {
	r.log.Warn("drop undecodable cache item", Fields{"region": r.name, "key": key, "reason": reason})
	r.hooks.SelfHeal(r.name, key, reason)
	if err := r.store.Del(ctx, r.storeName, key); err != nil {
		r.fail(store.OpDel, key, err, "fail to remove cache item")
	}
}

func (r *Region[V]) fail(op store.Op, key string, err error, msg string) {
	se := &StoreError{Region: r.name, Op: op, Key: key, Err: err}
	f := Fields{"region": r.name, "op": string(op), "err": err}
	if key != "" {
		f["key"] = key
	}
	r.log.Warn(msg, f)
	r.hooks.StoreFailure(r.name, op, key, se)
}
