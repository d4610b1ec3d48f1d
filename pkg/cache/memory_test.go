package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type payload struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func TestMemoryCacheSetGet(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	in := payload{Name: "forecast", Value: 123.45}
	if err := mc.Set(ctx, "k", in, time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	var out payload
	if err := mc.Get(ctx, "k", &out); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if out != in {
		t.Fatalf("roundtrip mismatch: %+v vs %+v", out, in)
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()

	var out payload
	if err := mc.Get(context.Background(), "missing", &out); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	if err := mc.Set(ctx, "k", payload{Name: "x"}, 10*time.Millisecond); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	var out payload
	if err := mc.Get(ctx, "k", &out); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected expiry miss, got %v", err)
	}
}

func TestMemoryCacheDeleteByPattern(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	_ = mc.Set(ctx, "forecast:1:5", payload{}, time.Minute)
	_ = mc.Set(ctx, "forecast:2:5", payload{}, time.Minute)
	_ = mc.Set(ctx, "stats:1", payload{}, time.Minute)

	if err := mc.DeleteByPattern(ctx, "forecast:*"); err != nil {
		t.Fatalf("delete by pattern failed: %v", err)
	}

	var out payload
	if err := mc.Get(ctx, "forecast:1:5", &out); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("prefixed key should be gone, got %v", err)
	}
	if err := mc.Get(ctx, "stats:1", &out); err != nil {
		t.Fatalf("unrelated key should survive, got %v", err)
	}
}

func TestMemoryCacheIncrement(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := mc.Increment(ctx, "counter")
		if err != nil {
			t.Fatalf("increment failed: %v", err)
		}
		if got != want {
			t.Fatalf("counter %d, want %d", got, want)
		}
	}
}

func TestMemoryCacheLRUEviction(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	ctx := context.Background()

	_ = mc.Set(ctx, "a", payload{}, time.Minute)
	time.Sleep(time.Millisecond)
	_ = mc.Set(ctx, "b", payload{}, time.Minute)
	time.Sleep(time.Millisecond)
	_ = mc.Set(ctx, "c", payload{}, time.Minute)

	var out payload
	if err := mc.Get(ctx, "a", &out); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("oldest entry should be evicted, got %v", err)
	}
	if err := mc.Get(ctx, "c", &out); err != nil {
		t.Fatalf("newest entry should survive, got %v", err)
	}
}

func TestMemoryCacheTryLock(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	ok, err := mc.TryLock(ctx, "lock", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first lock: ok=%v err=%v", ok, err)
	}
	ok, err = mc.TryLock(ctx, "lock", time.Minute)
	if err != nil || ok {
		t.Fatalf("second lock should fail: ok=%v err=%v", ok, err)
	}
	if err := mc.Unlock(ctx, "lock"); err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
	ok, _ = mc.TryLock(ctx, "lock", time.Minute)
	if !ok {
		t.Fatalf("lock should be available after unlock")
	}
}
