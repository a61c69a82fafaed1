package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/l2cache/internal/storetest"
	"github.com/unkn0wn-root/l2cache/store"
)

func newTestStore(t *testing.T, prefix string) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := New(Config{
		Client:      goredis.NewClient(&goredis.Options{Addr: mr.Addr()}),
		Prefix:      prefix,
		ScanCount:   2, // force several SCAN rounds
		CloseClient: true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, mr
}

func TestRedisSuite(t *testing.T) {
	storetest.RunStoreSuite(t, func(t *testing.T) store.Store {
		s, _ := newTestStore(t, "")
		return s
	})
}

func TestNilClient(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrNilClient) {
		t.Fatalf("expected ErrNilClient, got %v", err)
	}
}

func TestKeyLayout(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t, "app:")
	if err := s.Set(ctx, "user", "42", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if got, err := mr.Get("app:4:user:42"); err != nil || got != "v" {
		t.Fatalf("unexpected layout: %q err=%v", got, err)
	}
}

func TestSlidingTTL(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t, "")

	if err := s.Set(ctx, "r", "k", []byte("v"), 10*time.Second); err != nil {
		t.Fatal(err)
	}
	mr.FastForward(6 * time.Second)
	if _, ok, err := s.Get(ctx, "r", "k", 10*time.Second); err != nil || !ok {
		t.Fatalf("expected hit: ok=%v err=%v", ok, err)
	}
	mr.FastForward(6 * time.Second)
	if _, ok, _ := s.Get(ctx, "r", "k", 10*time.Second); !ok {
		t.Fatalf("GETEX did not refresh TTL")
	}
	mr.FastForward(11 * time.Second)
	if _, ok, _ := s.Get(ctx, "r", "k", 10*time.Second); ok {
		t.Fatalf("expected expiry")
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t, "")
	if err := s.Set(ctx, "r", "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Get(ctx, "r", "k", 0); err != nil {
		t.Fatal(err)
	}
	mr.FastForward(24 * time.Hour)
	if ok, _ := s.Contains(ctx, "r", "k"); !ok {
		t.Fatalf("entry without TTL expired")
	}
}

func TestDeleteRegionManyKeys(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t, "")
	for i := 0; i < 25; i++ {
		_ = s.Set(ctx, "big", fmt.Sprint(i), []byte("v"), time.Minute)
	}
	_ = s.Set(ctx, "b*g", "x", []byte("glob"), time.Minute)

	if err := s.DeleteRegion(ctx, "b*g"); err != nil {
		t.Fatal(err)
	}
	if n := len(mr.Keys()); n != 25 {
		t.Fatalf("glob region name leaked into pattern: %d keys left, want 25", n)
	}
	if err := s.DeleteRegion(ctx, "big"); err != nil {
		t.Fatal(err)
	}
	if n := len(mr.Keys()); n != 0 {
		t.Fatalf("%d keys survived region flush", n)
	}
}

func TestServerDown(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t, "")
	mr.Close()

	if _, _, err := s.Get(ctx, "r", "k", time.Minute); err == nil {
		t.Fatalf("expected transport error")
	}
	if err := s.DeleteRegion(ctx, "r"); err == nil {
		t.Fatalf("expected transport error")
	}
}
