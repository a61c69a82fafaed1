// Package flat turns a flat provider.Provider into a region-scoped store.Store.
//
// Keys are written under the region's current generation:
//
//	<len(region)>:<region>@<gen>:<key>
//
// DeleteRegion bumps the generation instead of enumerating keys, so a flush is
// O(1); entries of older generations are unreachable and age out (TTL or
// provider eviction).
package flat

import (
	"context"
	"errors"
	"time"

	"github.com/unkn0wn-root/l2cache/genstore"
	"github.com/unkn0wn-root/l2cache/internal/keys"
	pr "github.com/unkn0wn-root/l2cache/provider"
	"github.com/unkn0wn-root/l2cache/store"
)

var ErrNilProvider = errors.New("flat store: nil provider")

// CostFunc computes the admission cost of a value for cost-aware providers.
type CostFunc func(key string, value []byte) int64

type Options struct {
	Provider pr.Provider
	GenStore genstore.GenStore // nil => LocalGenStore
	Cost     CostFunc          // nil => 1 per entry
	// RefreshOnRead re-writes an entry after a hit so its TTL slides.
	// Providers without per-entry TTL (bigcache) gain nothing from it.
	RefreshOnRead bool
}

type Store struct {
	p       pr.Provider
	gens    genstore.GenStore
	cost    CostFunc
	refresh bool
}

var _ store.Store = (*Store)(nil)

func New(opts Options) (*Store, error) {
	if opts.Provider == nil {
		return nil, ErrNilProvider
	}
	s := &Store{p: opts.Provider, gens: opts.GenStore, cost: opts.Cost, refresh: opts.RefreshOnRead}
	if s.gens == nil {
		s.gens = genstore.NewLocalGenStore()
	}
	if s.cost == nil {
		s.cost = func(string, []byte) int64 { return 1 }
	}
	return s, nil
}

func (s *Store) key(ctx context.Context, region, key string) (string, error) {
	gen, err := s.gens.Current(ctx, region)
	if err != nil {
		return "", err
	}
	return keys.Generational(region, gen, key), nil
}

func (s *Store) Get(ctx context.Context, region, key string, ttl time.Duration) ([]byte, bool, error) {
	k, err := s.key(ctx, region, key)
	if err != nil {
		return nil, false, err
	}
	b, ok, err := s.p.Get(ctx, k)
	if err != nil || !ok {
		return nil, false, err
	}
	if s.refresh && ttl > 0 {
		// best effort: a failed refresh only shortens the entry's life
		_, _ = s.p.Set(ctx, k, b, s.cost(k, b), ttl)
	}
	return b, true, nil
}

func (s *Store) Set(ctx context.Context, region, key string, value []byte, ttl time.Duration) error {
	k, err := s.key(ctx, region, key)
	if err != nil {
		return err
	}
	ok, err := s.p.Set(ctx, k, value, s.cost(k, value), ttl)
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrRejected
	}
	return nil
}

func (s *Store) Del(ctx context.Context, region, key string) error {
	k, err := s.key(ctx, region, key)
	if err != nil {
		return err
	}
	return s.p.Del(ctx, k)
}

func (s *Store) DeleteRegion(ctx context.Context, region string) error {
	_, err := s.gens.Bump(ctx, region)
	return err
}

func (s *Store) Contains(ctx context.Context, region, key string) (bool, error) {
	k, err := s.key(ctx, region, key)
	if err != nil {
		return false, err
	}
	_, ok, err := s.p.Get(ctx, k)
	return ok, err
}

// Close closes the generation store first (best effort), then the provider.
func (s *Store) Close(ctx context.Context) error {
	_ = s.gens.Close(ctx)
	return s.p.Close(ctx)
}
