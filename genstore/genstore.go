// Package genstore keeps one generation counter per cache region.
//
// Stores without a native "delete everything under a prefix" operation flush a
// region by bumping its generation: keys are written under the current
// generation, so entries of older generations become unreachable and age out
// through their TTL.
package genstore

import "context"

// GenStore abstracts where region generations live.
// Use LocalGenStore for a single process, RedisGenStore to share flushes
// across processes.
type GenStore interface {
	// Current returns the region's generation; an unknown region is at 0.
	Current(ctx context.Context, region string) (uint64, error)
	// Bump atomically increments and returns the region's new generation.
	Bump(ctx context.Context, region string) (uint64, error)
	// Close releases resources (no-op ok).
	Close(context.Context) error
}
