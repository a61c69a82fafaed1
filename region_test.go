package l2cache

import (
	"errors"
	"testing"
	"time"

	"github.com/unkn0wn-root/l2cache/codec"
	"github.com/unkn0wn-root/l2cache/internal/storetest"
	"github.com/unkn0wn-root/l2cache/internal/wire"
	"github.com/unkn0wn-root/l2cache/store"
)

func TestNewRegionValidation(t *testing.T) {
	mem := storetest.NewMemory()
	cases := []struct {
		name string
		opts RegionOptions[user]
		want error
	}{
		{"empty name", RegionOptions[user]{Store: mem, Codec: codec.JSON[user]{}}, ErrEmptyRegionName},
		{"nil store", RegionOptions[user]{Name: "r", Codec: codec.JSON[user]{}}, ErrNilStore},
		{"nil codec", RegionOptions[user]{Name: "r", Store: mem}, ErrNilCodec},
		{"negative ttl", RegionOptions[user]{Name: "r", Store: mem, Codec: codec.JSON[user]{}, Expiration: -time.Second}, ErrNegativeExpiration},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRegion(tc.opts)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err=%v want %v", err, tc.want)
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *ConfigError, got %T", err)
			}
		})
	}
}

func TestRegionDefaults(t *testing.T) {
	r := newTestRegion(t, storetest.NewMemory(), nil)
	if r.Kind() != EntityRegion {
		t.Fatalf("kind=%v", r.Kind())
	}
	if r.Timeout() != 60_000*OneMillisecond {
		t.Fatalf("timeout=%d", r.Timeout())
	}
	if r.Expiration() != 120*time.Second || r.Name() != "app.User" || !r.Enabled() {
		t.Fatalf("unexpected region: %+v", r)
	}
}

func TestRegionPutGetRemove(t *testing.T) {
	mem := storetest.NewMemory()
	r := newTestRegion(t, mem, nil)

	if _, ok := r.Get(ctxBG, "1"); ok {
		t.Fatalf("expected miss on empty region")
	}
	r.Put(ctxBG, "1", user{ID: "1", Name: "a"})
	got, ok := r.Get(ctxBG, "1")
	if !ok || got.Name != "a" {
		t.Fatalf("get: ok=%v got=%+v", ok, got)
	}
	if !r.Contains(ctxBG, "1") {
		t.Fatalf("contains=false after put")
	}

	r.Remove(ctxBG, "1")
	if _, ok := r.Get(ctxBG, "1"); ok {
		t.Fatalf("expected miss after remove")
	}
	r.Remove(ctxBG, "never-there")
}

func TestRegionPassesExpirationToStore(t *testing.T) {
	mem := storetest.NewMemory()
	now := time.Unix(1_700_000_000, 0)
	mem.SetClock(func() time.Time { return now })
	r := newTestRegion(t, mem, nil)

	r.Put(ctxBG, "1", user{ID: "1"})
	exp, ok := mem.Expiry("app.User", "1")
	if !ok || !exp.Equal(now.Add(120*time.Second)) {
		t.Fatalf("expiry=%v ok=%v", exp, ok)
	}

	// a hit slides the TTL
	now = now.Add(100 * time.Second)
	if _, ok := r.Get(ctxBG, "1"); !ok {
		t.Fatalf("expected hit")
	}
	exp, _ = mem.Expiry("app.User", "1")
	if !exp.Equal(now.Add(120 * time.Second)) {
		t.Fatalf("ttl did not slide: %v", exp)
	}

	now = now.Add(121 * time.Second)
	if _, ok := r.Get(ctxBG, "1"); ok {
		t.Fatalf("expected miss after expiry")
	}
}

func TestRegionZeroExpirationNeverExpires(t *testing.T) {
	mem := storetest.NewMemory()
	r := newTestRegion(t, mem, func(o *RegionOptions[user]) { o.Expiration = 0 })
	r.Put(ctxBG, "1", user{ID: "1"})
	if exp, ok := mem.Expiry("app.User", "1"); !ok || !exp.IsZero() {
		t.Fatalf("expiry=%v ok=%v, want no TTL", exp, ok)
	}
}

func TestRegionIsolationAndClear(t *testing.T) {
	mem := storetest.NewMemory()
	users := newTestRegion(t, mem, nil)
	orders := newTestRegion(t, mem, func(o *RegionOptions[user]) { o.Name = "app.Order" })

	users.Put(ctxBG, "1", user{Name: "u"})
	orders.Put(ctxBG, "1", user{Name: "o"})

	if u, _ := users.Get(ctxBG, "1"); u.Name != "u" {
		t.Fatalf("users region leaked: %+v", u)
	}
	users.Clear(ctxBG)
	if _, ok := users.Get(ctxBG, "1"); ok {
		t.Fatalf("users not cleared")
	}
	if o, ok := orders.Get(ctxBG, "1"); !ok || o.Name != "o" {
		t.Fatalf("clear touched another region: ok=%v o=%+v", ok, o)
	}
	users.Clear(ctxBG)
}

func TestRegionStoreName(t *testing.T) {
	mem := storetest.NewMemory()
	r := newTestRegion(t, mem, func(o *RegionOptions[user]) { o.StoreName = "tenant1:app.User" })
	r.Put(ctxBG, "1", user{ID: "1"})
	if _, ok := mem.Raw("tenant1:app.User", "1"); !ok {
		t.Fatalf("entry not written under store name")
	}
	if _, ok := mem.Raw("app.User", "1"); ok {
		t.Fatalf("entry written under logical name")
	}
}

func TestRegionSwallowsStoreFailures(t *testing.T) {
	log := &recLogger{}
	hooks := &recHooks{}
	r := newTestRegion(t, storetest.Failing{}, func(o *RegionOptions[user]) {
		o.Logger = log
		o.Hooks = hooks
	})

	if _, ok := r.Get(ctxBG, "1"); ok {
		t.Fatalf("expected miss on failing store")
	}
	r.Put(ctxBG, "1", user{ID: "1"})
	r.Remove(ctxBG, "1")
	r.Clear(ctxBG)
	if r.Contains(ctxBG, "1") {
		t.Fatalf("contains=true on failing store")
	}

	wantOps := []store.Op{store.OpGet, store.OpSet, store.OpDel, store.OpDeleteRegion, store.OpContains}
	if len(hooks.failures) != len(wantOps) {
		t.Fatalf("failures=%d want %d", len(hooks.failures), len(wantOps))
	}
	for i, op := range wantOps {
		f := hooks.failures[i]
		if f.op != op || f.region != "app.User" {
			t.Fatalf("failure %d: %+v want op %s", i, f, op)
		}
		var se *StoreError
		if !errors.As(f.err, &se) || !errors.Is(f.err, storetest.ErrInjected) {
			t.Fatalf("failure %d: err=%v", i, f.err)
		}
	}
	if log.count("warn") != len(wantOps) {
		t.Fatalf("warn logs=%d want %d", log.count("warn"), len(wantOps))
	}
}

func TestRegionRejectedWriteIsDropped(t *testing.T) {
	mem := storetest.NewMemory()
	mem.FailOn(store.OpSet, store.ErrRejected)
	hooks := &recHooks{}
	r := newTestRegion(t, mem, func(o *RegionOptions[user]) { o.Hooks = hooks })

	r.Put(ctxBG, "1", user{ID: "1"})
	if len(hooks.failures) != 0 {
		t.Fatalf("rejection reported as failure: %+v", hooks.failures)
	}
	if len(hooks.skipped) != 1 || hooks.skipped[0] != "1:rejected" {
		t.Fatalf("skipped=%v", hooks.skipped)
	}
}

func TestRegionSelfHealsCorruptEntry(t *testing.T) {
	mem := storetest.NewMemory()
	hooks := &recHooks{}
	r := newTestRegion(t, mem, func(o *RegionOptions[user]) { o.Hooks = hooks })

	mem.Inject("app.User", "1", []byte("garbage"))
	if _, ok := r.Get(ctxBG, "1"); ok {
		t.Fatalf("expected miss on corrupt entry")
	}
	if _, ok := mem.Raw("app.User", "1"); ok {
		t.Fatalf("corrupt entry not deleted")
	}

	mem.Inject("app.User", "2", wire.EncodeValue([]byte("{not json")))
	if _, ok := r.Get(ctxBG, "2"); ok {
		t.Fatalf("expected miss on undecodable value")
	}
	if _, ok := mem.Raw("app.User", "2"); ok {
		t.Fatalf("undecodable entry not deleted")
	}

	want := []string{"1:corrupt", "2:value_decode"}
	if len(hooks.heals) != 2 || hooks.heals[0] != want[0] || hooks.heals[1] != want[1] {
		t.Fatalf("heals=%v want %v", hooks.heals, want)
	}
}

func TestRegionLockReadsAsMiss(t *testing.T) {
	mem := storetest.NewMemory()
	r := newTestRegion(t, mem, nil)
	mem.Inject("app.User", "1", wire.EncodeLock(wire.Lock{ID: 1, Count: 1}))
	if _, ok := r.Get(ctxBG, "1"); ok {
		t.Fatalf("lock read as value")
	}
	if !r.Contains(ctxBG, "1") {
		t.Fatalf("lock should count as present")
	}
}

func TestDisabledRegionNeverTouchesStore(t *testing.T) {
	mem := storetest.NewMemory()
	r := newTestRegion(t, mem, func(o *RegionOptions[user]) { o.Disabled = true })

	r.Put(ctxBG, "1", user{ID: "1"})
	r.Get(ctxBG, "1")
	r.Remove(ctxBG, "1")
	r.Clear(ctxBG)
	r.Contains(ctxBG, "1")

	for _, op := range []store.Op{store.OpGet, store.OpSet, store.OpDel, store.OpDeleteRegion, store.OpContains} {
		if n := mem.Calls(op); n != 0 {
			t.Fatalf("%s called %d times on disabled region", op, n)
		}
	}
}

type failingCodec struct{ codec.JSON[user] }

func (failingCodec) Encode(user) ([]byte, error) { return nil, errors.New("encode") }

func TestRegionEncodeFailureDropsWrite(t *testing.T) {
	mem := storetest.NewMemory()
	log := &recLogger{}
	r := newTestRegion(t, mem, func(o *RegionOptions[user]) {
		o.Codec = failingCodec{}
		o.Logger = log
	})
	r.Put(ctxBG, "1", user{ID: "1"})
	if mem.Calls(store.OpSet) != 0 {
		t.Fatalf("set called after encode failure")
	}
	if log.count("warn") != 1 {
		t.Fatalf("encode failure not logged")
	}
}
