package storetest

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/unkn0wn-root/l2cache/store"
)

// RunStoreSuite runs the store.Store conformance tests. newStore must return a
// fresh, empty store for every call; the suite closes it.
func RunStoreSuite(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Helper()

	run := func(name string, fn func(t *testing.T, ctx context.Context, s store.Store)) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close(ctx) })
			fn(t, ctx, s)
		})
	}

	run("MissOnEmpty", testMissOnEmpty)
	run("SetGetRoundTrip", testSetGetRoundTrip)
	run("Overwrite", testOverwrite)
	run("DelIdempotent", testDelIdempotent)
	run("Contains", testContains)
	run("RegionIsolation", testRegionIsolation)
	run("DeleteRegion", testDeleteRegion)
	run("DeleteEmptyRegion", testDeleteEmptyRegion)
	run("BinaryTransparent", testBinaryTransparent)
}

func mustSet(t *testing.T, ctx context.Context, s store.Store, region, key string, v []byte) {
	t.Helper()
	if err := s.Set(ctx, region, key, v, time.Minute); err != nil {
		t.Fatalf("Set(%s, %s): %v", region, key, err)
	}
}

func mustGet(t *testing.T, ctx context.Context, s store.Store, region, key string) ([]byte, bool) {
	t.Helper()
	v, ok, err := s.Get(ctx, region, key, time.Minute)
	if err != nil {
		t.Fatalf("Get(%s, %s): %v", region, key, err)
	}
	return v, ok
}

func testMissOnEmpty(t *testing.T, ctx context.Context, s store.Store) {
	if v, ok := mustGet(t, ctx, s, "r", "missing"); ok || v != nil {
		t.Fatalf("expected miss, got ok=%v v=%q", ok, v)
	}
}

func testSetGetRoundTrip(t *testing.T, ctx context.Context, s store.Store) {
	mustSet(t, ctx, s, "r", "k", []byte("value"))
	v, ok := mustGet(t, ctx, s, "r", "k")
	if !ok || string(v) != "value" {
		t.Fatalf("Get after Set: ok=%v v=%q", ok, v)
	}
}

func testOverwrite(t *testing.T, ctx context.Context, s store.Store) {
	mustSet(t, ctx, s, "r", "k", []byte("one"))
	mustSet(t, ctx, s, "r", "k", []byte("two"))
	if v, ok := mustGet(t, ctx, s, "r", "k"); !ok || string(v) != "two" {
		t.Fatalf("overwrite not visible: ok=%v v=%q", ok, v)
	}
}

func testDelIdempotent(t *testing.T, ctx context.Context, s store.Store) {
	if err := s.Del(ctx, "r", "never-set"); err != nil {
		t.Fatalf("Del absent: %v", err)
	}
	mustSet(t, ctx, s, "r", "k", []byte("v"))
	for i := 0; i < 2; i++ {
		if err := s.Del(ctx, "r", "k"); err != nil {
			t.Fatalf("Del #%d: %v", i, err)
		}
	}
	if _, ok := mustGet(t, ctx, s, "r", "k"); ok {
		t.Fatalf("key survived Del")
	}
}

func testContains(t *testing.T, ctx context.Context, s store.Store) {
	ok, err := s.Contains(ctx, "r", "k")
	if err != nil || ok {
		t.Fatalf("Contains on empty: ok=%v err=%v", ok, err)
	}
	mustSet(t, ctx, s, "r", "k", []byte("v"))
	ok, err = s.Contains(ctx, "r", "k")
	if err != nil || !ok {
		t.Fatalf("Contains after Set: ok=%v err=%v", ok, err)
	}
	if ok, _ := s.Contains(ctx, "other", "k"); ok {
		t.Fatalf("Contains leaked across regions")
	}
}

func testRegionIsolation(t *testing.T, ctx context.Context, s store.Store) {
	mustSet(t, ctx, s, "A", "k", []byte("a"))
	if _, ok := mustGet(t, ctx, s, "B", "k"); ok {
		t.Fatalf("region B observed region A's key")
	}

	// names that would collide under naive "region:key" concatenation
	mustSet(t, ctx, s, "a:b", "c", []byte("first"))
	mustSet(t, ctx, s, "a", "b:c", []byte("second"))
	if v, _ := mustGet(t, ctx, s, "a:b", "c"); string(v) != "first" {
		t.Fatalf("colliding region names clobbered each other: %q", v)
	}
	if v, _ := mustGet(t, ctx, s, "a", "b:c"); string(v) != "second" {
		t.Fatalf("colliding region names clobbered each other: %q", v)
	}
}

func testDeleteRegion(t *testing.T, ctx context.Context, s store.Store) {
	for _, k := range []string{"1", "2", "3"} {
		mustSet(t, ctx, s, "flush", k, []byte("v"+k))
	}
	mustSet(t, ctx, s, "flushed", "1", []byte("keep"))
	mustSet(t, ctx, s, "keep", "1", []byte("keep"))

	if err := s.DeleteRegion(ctx, "flush"); err != nil {
		t.Fatalf("DeleteRegion: %v", err)
	}
	for _, k := range []string{"1", "2", "3"} {
		if _, ok := mustGet(t, ctx, s, "flush", k); ok {
			t.Fatalf("key %s survived region flush", k)
		}
	}
	for _, r := range []string{"flushed", "keep"} {
		if v, ok := mustGet(t, ctx, s, r, "1"); !ok || string(v) != "keep" {
			t.Fatalf("flush of region %q affected region %q", "flush", r)
		}
	}

	mustSet(t, ctx, s, "flush", "1", []byte("again"))
	if v, ok := mustGet(t, ctx, s, "flush", "1"); !ok || string(v) != "again" {
		t.Fatalf("region unusable after flush: ok=%v v=%q", ok, v)
	}
}

func testDeleteEmptyRegion(t *testing.T, ctx context.Context, s store.Store) {
	if err := s.DeleteRegion(ctx, "nothing-here"); err != nil {
		t.Fatalf("DeleteRegion on empty region: %v", err)
	}
}

func testBinaryTransparent(t *testing.T, ctx context.Context, s store.Store) {
	in := []byte{0x00, 0xFF, 0x10, 0x00, '\n', 0x80}
	mustSet(t, ctx, s, "bin", "k", in)
	v, ok := mustGet(t, ctx, s, "bin", "k")
	if !ok || !bytes.Equal(v, in) {
		t.Fatalf("bytes changed in transit: got %x want %x", v, in)
	}
}
