package l2cache

import (
	"context"
	"strings"
)

// AccessType selects the consistency strategy of a region.
type AccessType string

const (
	ReadOnly           AccessType = "read-only"
	NonStrictReadWrite AccessType = "nonstrict-read-write"
	ReadWrite          AccessType = "read-write"
	Transactional      AccessType = "transactional"
)

func (a AccessType) String() string { return string(a) }

// ParseAccessType resolves an external access type name.
// Matching ignores case and treats '_' as '-'.
func ParseAccessType(s string) (AccessType, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	switch at := AccessType(norm); at {
	case ReadOnly, NonStrictReadWrite, ReadWrite, Transactional:
		return at, nil
	}
	return "", &ConfigError{Field: "access_type", Value: s, Err: ErrUnknownAccessType}
}

// RegionKind is the kind of data a region caches.
type RegionKind uint8

const (
	EntityRegion RegionKind = iota + 1
	CollectionRegion
	NaturalIDRegion
)

func (k RegionKind) String() string {
	switch k {
	case EntityRegion:
		return "entity"
	case CollectionRegion:
		return "collection"
	case NaturalIDRegion:
		return "natural-id"
	default:
		return "unknown"
	}
}

// SoftLock is the token returned by LockItem and LockRegion and presented
// back on unlock. It never excludes anyone; it only tracks invalidation.
type SoftLock interface {
	softLock()
}

// NoLock is the token of strategies that don't track locks.
type NoLock struct{}

func (NoLock) softLock() {}

// RegionAccessStrategy mediates between the engine and one region.
// Collection regions get this contract.
//
// Cache operations never return store errors: a failed read is a miss and a
// failed write is dropped.
type RegionAccessStrategy[V any] interface {
	Region() *Region[V]
	AccessType() AccessType

	// Get returns the cached value for key as seen by a transaction that
	// started at txTimestamp.
	Get(ctx context.Context, key string, txTimestamp int64) (V, bool)

	// PutFromLoad offers a value just loaded from the database. It reports
	// whether the value was handed to the cache.
	PutFromLoad(ctx context.Context, key string, value V, txTimestamp int64, version uint64, minimalPutOverride bool) bool

	LockItem(ctx context.Context, key string, version uint64) SoftLock
	UnlockItem(ctx context.Context, key string, lock SoftLock)
	Remove(ctx context.Context, key string)
	RemoveAll(ctx context.Context)
	Evict(ctx context.Context, key string)
	EvictAll(ctx context.Context)
	LockRegion(ctx context.Context) SoftLock
	UnlockRegion(ctx context.Context, lock SoftLock)
}

// EntityAccessStrategy adds the insert and update lifecycle used by entity and
// natural-id regions.
type EntityAccessStrategy[V any] interface {
	RegionAccessStrategy[V]

	// Insert is called within the inserting transaction.
	Insert(ctx context.Context, key string, value V, version uint64) bool
	// AfterInsert is called after the inserting transaction committed.
	AfterInsert(ctx context.Context, key string, value V, version uint64) bool
	// Update is called within the updating transaction, between LockItem and
	// AfterUpdate.
	Update(ctx context.Context, key string, value V, currentVersion, previousVersion uint64) (bool, error)
	// AfterUpdate is called after the updating transaction committed.
	AfterUpdate(ctx context.Context, key string, value V, currentVersion, previousVersion uint64, lock SoftLock) (bool, error)
}
