package l2cache

import (
	"errors"
	"fmt"

	"github.com/unkn0wn-root/l2cache/store"
)

// Setup errors. They surface from NewRegionFactory, NewRegion, the Build*
// constructors and config parsing, never from cache operations.
var (
	ErrUnknownAccessType  = errors.New("unknown access type")
	ErrNilStore           = errors.New("store is required")
	ErrNilCodec           = errors.New("codec is required")
	ErrEmptyRegionName    = errors.New("region name is required")
	ErrDuplicateRegion    = errors.New("region already built")
	ErrNegativeExpiration = errors.New("expiration must be >= 0")
	ErrFactoryClosed      = errors.New("region factory is closed")
	ErrNilFactory         = errors.New("region factory is required")
	ErrNilRegion          = errors.New("region is required")
)

// ErrReadOnlyUpdate is returned when an engine tries to update an entry of a
// read-only region.
var ErrReadOnlyUpdate = errors.New("l2cache: can't write to a read-only region")

// ConfigError reports an invalid setting.
type ConfigError struct {
	Field string
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("l2cache: invalid %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("l2cache: invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// StoreError describes a swallowed store failure. Regions hand it to Logger
// and Hooks; it is never returned to the engine.
type StoreError struct {
	Region string
	Op     store.Op
	Key    string
	Err    error
}

func (e *StoreError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("region %q: %s failed: %v", e.Region, e.Op, e.Err)
	}
	return fmt.Sprintf("region %q: %s %q failed: %v", e.Region, e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
