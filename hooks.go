package l2cache

import "github.com/unkn0wn-root/l2cache/store"

// Hooks are lightweight callbacks for high-signal cache events.
// Implementations MUST be cheap and non-blocking: regions call them inline on
// the caller's goroutine.
type Hooks interface {
	// A store call failed and was degraded to a miss or a no-op.
	StoreFailure(region string, op store.Op, key string, err error)

	// An entry was deleted on read because it could not be decoded.
	// reason ∈ {"corrupt", "value_decode"}
	SelfHeal(region, key, reason string)

	// A load-triggered put was not cached.
	// reason ∈ {"minimal_put", "not_writeable", "rejected"}
	PutSkipped(region, key, reason string)

	// A read-write unlock found no matching soft lock (expired or replaced);
	// the key stays uncacheable until the lock timeout passes.
	LockExpired(region, key string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) StoreFailure(string, store.Op, string, error) {}
func (NopHooks) SelfHeal(string, string, string)              {}
func (NopHooks) PutSkipped(string, string, string)            {}
func (NopHooks) LockExpired(string, string)                   {}

func hooksOrNop(h Hooks) Hooks {
	if h == nil {
		return NopHooks{}
	}
	return h
}
