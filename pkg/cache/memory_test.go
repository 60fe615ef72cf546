package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type payload struct {
	Name   string
	Values []float64
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "k", payload{Name: "a", Values: []float64{1, 2}}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got payload
	if err := c.Get(ctx, "k", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "a" || len(got.Values) != 2 {
		t.Fatalf("unexpected value %+v", got)
	}
	if err := c.Get(ctx, "missing", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_ = c.Set(ctx, "k", "v", time.Second)
	now = now.Add(2 * time.Second)
	var s string
	if err := c.Get(ctx, "k", &s); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected expired key to miss, got %v", err)
	}
}

func TestMemoryCacheEvictsLRU(t *testing.T) {
	c := NewMemoryCache(WithMemoryMaxSize(2))
	defer c.Close()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { now = now.Add(time.Millisecond); return now }
	ctx := context.Background()

	_ = c.Set(ctx, "a", 1, time.Minute)
	_ = c.Set(ctx, "b", 2, time.Minute)
	var v int
	_ = c.Get(ctx, "a", &v) // a is now more recent than b
	_ = c.Set(ctx, "c", 3, time.Minute)

	if ok, _ := c.Exists(ctx, "b"); ok {
		t.Fatalf("expected b to be evicted")
	}
	if ok, _ := c.Exists(ctx, "a"); !ok {
		t.Fatalf("expected a to survive")
	}
}

func TestMemoryCacheLock(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	if ok, _ := c.TryLock(ctx, "lock", time.Minute); !ok {
		t.Fatalf("first lock should succeed")
	}
	if ok, _ := c.TryLock(ctx, "lock", time.Minute); ok {
		t.Fatalf("second lock should fail")
	}
	_ = c.Unlock(ctx, "lock")
	if ok, _ := c.TryLock(ctx, "lock", time.Minute); !ok {
		t.Fatalf("lock after unlock should succeed")
	}
}

func TestGetOrLoad(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()
	calls := 0
	load := func(context.Context) ([]float64, error) {
		calls++
		return []float64{1, 2, 3}, nil
	}
	for i := 0; i < 3; i++ {
		v, err := GetOrLoad(ctx, c, GenerateKey("history", "AAPL"), time.Minute, load)
		if err != nil || len(v) != 3 {
			t.Fatalf("GetOrLoad: %v %v", v, err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected one load, got %d", calls)
	}
}
