package cache

import (
	"errors"
	"testing"
	"time"
)

func TestTTLCacheSetGet(t *testing.T) {
	c := NewTTLCache()
	c.Set("k", 42, time.Minute)

	v, ok := c.Get("k")
	if !ok || v.(int) != 42 {
		t.Fatalf("expected 42, got %v (%v)", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatalf("expected miss for unknown key")
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache()
	c.Set("k", "v", 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestTTLCacheInvalidatePrefix(t *testing.T) {
	c := NewTTLCache()
	c.Set("prices:1:", 1, time.Minute)
	c.Set("prices:10:", 2, time.Minute)
	c.Set("stats:1:", 3, time.Minute)

	c.Invalidate("prices:1:")

	if _, ok := c.Get("prices:1:"); ok {
		t.Fatalf("prefixed entry should be gone")
	}
	if _, ok := c.Get("prices:10:"); ok {
		t.Fatalf("key sharing the prefix should be gone too")
	}
	if _, ok := c.Get("stats:1:"); !ok {
		t.Fatalf("unrelated entry should survive")
	}
}

func TestTTLCacheReset(t *testing.T) {
	c := NewTTLCache()
	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)

	c.Reset()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache, got %d entries", c.Len())
	}
}

func TestGetOrCompute(t *testing.T) {
	c := NewTTLCache()
	calls := 0
	fn := func() (int, error) {
		calls++
		return calls, nil
	}

	v, hit, err := GetOrCompute(c, "k", time.Minute, false, fn)
	if err != nil || hit || v != 1 {
		t.Fatalf("first call: v=%d hit=%v err=%v", v, hit, err)
	}

	v, hit, err = GetOrCompute(c, "k", time.Minute, false, fn)
	if err != nil || !hit || v != 1 {
		t.Fatalf("second call should hit: v=%d hit=%v err=%v", v, hit, err)
	}
	if calls != 1 {
		t.Fatalf("compute ran %d times, want 1", calls)
	}
}

func TestGetOrComputeBypass(t *testing.T) {
	c := NewTTLCache()
	calls := 0
	fn := func() (int, error) {
		calls++
		return calls, nil
	}

	if _, _, err := GetOrCompute(c, "k", time.Minute, false, fn); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	v, hit, err := GetOrCompute(c, "k", time.Minute, true, fn)
	if err != nil || hit || v != 2 {
		t.Fatalf("bypass should recompute: v=%d hit=%v err=%v", v, hit, err)
	}

	// The recomputed value replaces the stored one.
	v, hit, _ = GetOrCompute(c, "k", time.Minute, false, fn)
	if !hit || v != 2 {
		t.Fatalf("fresh value should be stored: v=%d hit=%v", v, hit)
	}
}

func TestGetOrComputeError(t *testing.T) {
	c := NewTTLCache()
	wantErr := errors.New("boom")

	_, _, err := GetOrCompute(c, "k", time.Minute, false, func() (int, error) {
		return 0, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected compute error, got %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("errors must not be cached")
	}
}

func TestForecastKey(t *testing.T) {
	k := ForecastKey{RegionID: "395057", Horizon: 5, IncludeConfidence: true}.String()
	if k != "forecast:395057:5:true" {
		t.Fatalf("unexpected key %q", k)
	}
}
