package l2cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/unkn0wn-root/l2cache/codec"
	"github.com/unkn0wn-root/l2cache/store"
)

// NewAccessStrategy binds at to r.
// Collection regions use the same strategies through RegionAccessStrategy.
func NewAccessStrategy[V any](r *Region[V], at AccessType) (EntityAccessStrategy[V], error) {
	if r == nil {
		return nil, &ConfigError{Field: "region", Err: ErrNilRegion}
	}
	switch at {
	case ReadOnly:
		return &readOnly[V]{base: newBase(r)}, nil
	case NonStrictReadWrite:
		return &nonStrictReadWrite[V]{base: newBase(r)}, nil
	case ReadWrite:
		return newReadWrite(r), nil
	case Transactional:
		return &transactional[V]{base: newBase(r)}, nil
	default:
		return nil, &ConfigError{Field: "access_type", Value: string(at), Err: ErrUnknownAccessType}
	}
}

// Options configures a RegionFactory.
type Options struct {
	Store  store.Store // required
	Config Config      // zero value => no expiry, nonstrict-read-write, 60s lock timeout
	Logger Logger      // optional
	Hooks  Hooks       // optional
}

// RegionFactory builds the regions of one cache and binds a strategy to each.
// A region name can be built once.
type RegionFactory struct {
	store store.Store
	cfg   Config
	log   Logger
	hooks Hooks

	mu      sync.Mutex
	regions map[string]RegionKind
	closed  bool
}

func NewRegionFactory(opts Options) (*RegionFactory, error) {
	if opts.Store == nil {
		return nil, &ConfigError{Field: "store", Err: ErrNilStore}
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}

	cfg := opts.Config
	cfg.DefaultAccessType = coalesce(cfg.DefaultAccessType, defaultAccessType)
	cfg.LockTimeout = coalesce(cfg.LockTimeout, defaultLockTimeout)

	log := loggerOrNop(opts.Logger)
	hooks := hooksOrNop(opts.Hooks)

	log.Info("region factory started", Fields{
		"disabled":       cfg.Disabled,
		"expiration":     cfg.DefaultExpiration,
		"access_type":    cfg.DefaultAccessType,
		"lock_timeout":   cfg.LockTimeout,
		"key_prefix":     cfg.KeyPrefix,
		"region_configs": len(cfg.RegionExpiration) + len(cfg.RegionAccessType),
	})

	return &RegionFactory{
		store:   opts.Store,
		cfg:     cfg,
		log:     log,
		hooks:   hooks,
		regions: make(map[string]RegionKind),
	}, nil
}

func (f *RegionFactory) Config() Config { return f.cfg }

// NextTimestamp returns a fresh transaction timestamp.
func (f *RegionFactory) NextTimestamp() int64 { return NextTimestamp() }

// Regions returns the names of the regions built so far, sorted.
func (f *RegionFactory) Regions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.regions))
	for n := range f.regions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Close closes the store. Strategies built by f must not be used afterwards.
func (f *RegionFactory) Close(ctx context.Context) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	n := len(f.regions)
	f.mu.Unlock()
	f.log.Info("region factory closed", Fields{"regions": n})
	return f.store.Close(ctx)
}

// BuildOption overrides the configured settings of one region.
type BuildOption func(*buildOptions)

type buildOptions struct {
	accessType AccessType
	expiration *time.Duration
}

// WithAccessType pins the access type instead of resolving it from Config.
func WithAccessType(at AccessType) BuildOption {
	return func(o *buildOptions) { o.accessType = at }
}

// WithExpiration pins the entry TTL instead of resolving it from Config.
func WithExpiration(d time.Duration) BuildOption {
	return func(o *buildOptions) { o.expiration = &d }
}

// BuildEntityAccess builds an entity region and its strategy.
func BuildEntityAccess[V any](f *RegionFactory, name string, c codec.Codec[V], opts ...BuildOption) (EntityAccessStrategy[V], error) {
	return build(f, name, EntityRegion, c, opts)
}

// BuildNaturalIDAccess builds a natural-id region and its strategy.
func BuildNaturalIDAccess[V any](f *RegionFactory, name string, c codec.Codec[V], opts ...BuildOption) (EntityAccessStrategy[V], error) {
	return build(f, name, NaturalIDRegion, c, opts)
}

// BuildCollectionAccess builds a collection region and its strategy.
func BuildCollectionAccess[V any](f *RegionFactory, name string, c codec.Codec[V], opts ...BuildOption) (RegionAccessStrategy[V], error) {
	return build(f, name, CollectionRegion, c, opts)
}

func build[V any](f *RegionFactory, name string, kind RegionKind, c codec.Codec[V], opts []BuildOption) (EntityAccessStrategy[V], error) {
	if f == nil {
		return nil, &ConfigError{Field: "factory", Value: name, Err: ErrNilFactory}
	}
	var bo buildOptions
	for _, o := range opts {
		o(&bo)
	}

	at := f.cfg.AccessTypeFor(name)
	if bo.accessType != "" {
		var err error
		if at, err = ParseAccessType(string(bo.accessType)); err != nil {
			return nil, err
		}
	}
	ttl := f.cfg.ExpirationFor(name)
	if bo.expiration != nil {
		ttl = *bo.expiration
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, &ConfigError{Field: "region", Value: name, Err: ErrFactoryClosed}
	}
	if _, dup := f.regions[name]; dup {
		return nil, &ConfigError{Field: "region", Value: name, Err: ErrDuplicateRegion}
	}

	r, err := NewRegion(RegionOptions[V]{
		Name:        name,
		Kind:        kind,
		Store:       f.store,
		Codec:       c,
		Expiration:  ttl,
		LockTimeout: f.cfg.LockTimeout,
		StoreName:   f.cfg.KeyPrefix + name,
		Disabled:    f.cfg.Disabled,
		Logger:      f.log,
		Hooks:       f.hooks,
	})
	if err != nil {
		return nil, err
	}
	s, err := NewAccessStrategy(r, at)
	if err != nil {
		return nil, err
	}
	f.regions[name] = kind

	f.log.Debug("region built", Fields{"region": name, "kind": kind.String(), "access_type": at, "expiration": ttl})
	return s, nil
}
