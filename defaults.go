package l2cache

import "time"

const (
	defaultExpiration  = 120 * time.Second
	defaultLockTimeout = 60 * time.Second
	defaultAccessType  = NonStrictReadWrite
)

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
