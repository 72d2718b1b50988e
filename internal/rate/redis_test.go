package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisTestStore(t *testing.T) (Store, *testClock) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clock := newTestClock()
	return NewRedisStore(client, RedisConfig{Now: clock.Now}), clock
}

func TestRedisStore_AllowsUpToMax(t *testing.T) {
	store, _ := newRedisTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		dec, err := store.Allow(ctx, "alice", 3, time.Minute)
		if err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
		if !dec.Allowed {
			t.Fatalf("attempt %d: expected allowed", i+1)
		}
	}

	dec, err := store.Allow(ctx, "alice", 3, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dec.Allowed {
		t.Fatal("expected denied at capacity")
	}
	if dec.RetryAfter <= 0 || dec.RetryAfter > time.Minute {
		t.Fatalf("expected RetryAfter in (0, window], got %v", dec.RetryAfter)
	}
}

func TestRedisStore_WindowSlides(t *testing.T) {
	store, clock := newRedisTestStore(t)
	ctx := context.Background()

	store.Allow(ctx, "bob", 1, time.Minute)
	if dec, _ := store.Allow(ctx, "bob", 1, time.Minute); dec.Allowed {
		t.Fatal("expected denied inside window")
	}

	clock.Advance(61 * time.Second)
	if dec, _ := store.Allow(ctx, "bob", 1, time.Minute); !dec.Allowed {
		t.Fatal("expected allowed after window elapsed")
	}
}

func TestRedisStore_Reset(t *testing.T) {
	store, _ := newRedisTestStore(t)
	ctx := context.Background()

	store.Allow(ctx, "carol", 1, time.Hour)
	if dec, _ := store.Allow(ctx, "carol", 1, time.Hour); dec.Allowed {
		t.Fatal("expected denied before reset")
	}

	if err := store.Reset(ctx, "carol"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if dec, _ := store.Allow(ctx, "carol", 1, time.Hour); !dec.Allowed {
		t.Fatal("expected allowed after reset")
	}
}

func TestRedisStore_UnavailableWrapsError(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, RedisConfig{})
	mr.Close()

	_, err = store.Allow(context.Background(), "dave", 1, time.Minute)
	if err == nil {
		t.Fatal("expected error from closed backend")
	}
}
