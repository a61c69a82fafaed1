package storetest

import (
	"context"
	"time"

	"github.com/unkn0wn-root/l2cache/store"
)

// Failing is a store.Store whose every operation fails with Err
// (ErrInjected when Err is nil). It models a store outage.
type Failing struct {
	Err error
}

var _ store.Store = Failing{}

func (f Failing) err() error {
	if f.Err != nil {
		return f.Err
	}
	return ErrInjected
}

func (f Failing) Get(context.Context, string, string, time.Duration) ([]byte, bool, error) {
	return nil, false, f.err()
}
func (f Failing) Set(context.Context, string, string, []byte, time.Duration) error { return f.err() }
func (f Failing) Del(context.Context, string, string) error                        { return f.err() }
func (f Failing) DeleteRegion(context.Context, string) error                       { return f.err() }
func (f Failing) Contains(context.Context, string, string) (bool, error)          { return false, f.err() }
func (f Failing) Close(context.Context) error                                      { return nil }
