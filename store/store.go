// Package store defines the region-scoped key-value capability l2cache regions
// delegate to.
//
// A Store is shared by every region of a RegionFactory. Regions provide
// namespace isolation only: a Store must keep (region, key) pairs apart even
// when the plain key strings collide, and DeleteRegion must remove every key of
// one region without touching any other region.
//
// Values are opaque byte slices. Implementations MUST be byte-for-byte
// transparent: Get returns exactly the bytes previously passed to Set.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrRejected is returned by Set when the backing store refused the write
// (admission policy, memory pressure). Regions treat it as a dropped write.
var ErrRejected = errors.New("store: write rejected")

// Op names a Store operation in diagnostics.
type Op string

const (
	OpGet          Op = "get"
	OpSet          Op = "set"
	OpDel          Op = "del"
	OpDeleteRegion Op = "delete_region"
	OpContains     Op = "contains"
)

// Store is the remote (or in-process) key-value capability consumed by regions.
// Must be safe for concurrent use.
type Store interface {
	// Get returns (value, true, nil) on hit and (nil, false, nil) on miss.
	// A hit refreshes the entry TTL to ttl when ttl > 0 (sliding expiration).
	Get(ctx context.Context, region, key string, ttl time.Duration) ([]byte, bool, error)

	// Set stores value under (region, key). ttl <= 0 means no expiry.
	Set(ctx context.Context, region, key string, value []byte, ttl time.Duration) error

	// Del removes (region, key). Deleting an absent key is not an error.
	Del(ctx context.Context, region, key string) error

	// DeleteRegion logically removes every key of region.
	DeleteRegion(ctx context.Context, region string) error

	// Contains reports whether (region, key) currently holds a value.
	Contains(ctx context.Context, region, key string) (bool, error)

	// Close releases resources.
	Close(ctx context.Context) error
}
