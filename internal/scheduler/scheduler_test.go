package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/internal/repository"
	"StockCast/pkg/cache"
)

type countingHistory struct {
	calls map[string]int
}

func (c *countingHistory) History(_ context.Context, symbol string) (*models.StockProfile, error) {
	c.calls[symbol]++
	if symbol == "BAD" {
		return nil, errors.New("upstream down")
	}
	return &models.StockProfile{Symbol: symbol}, nil
}

func TestWarmerRefreshesCache(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()
	up := &countingHistory{calls: map[string]int{}}
	cached := repository.NewCachedHistory(up, mc, "yahoo", time.Hour, nil)
	ctx := context.Background()

	if _, err := cached.History(ctx, "AAPL"); err != nil {
		t.Fatalf("prime: %v", err)
	}
	w := NewWarmer(cached, mc, "yahoo", []string{"aapl", " msft ", "BAD", ""}, time.Minute, nil)
	if got := w.Run(ctx); got != 2 {
		t.Fatalf("expected 2 warmed symbols, got %d", got)
	}
	if up.calls["AAPL"] != 2 || up.calls["MSFT"] != 1 {
		t.Fatalf("unexpected upstream calls %v", up.calls)
	}
	if ok, _ := mc.Exists(ctx, repository.HistoryKey("yahoo", "MSFT")); !ok {
		t.Fatalf("MSFT not cached after warmup")
	}
}

func TestWarmerSkipsLockedSymbols(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()
	up := &countingHistory{calls: map[string]int{}}
	ctx := context.Background()

	if ok, _ := mc.TryLock(ctx, cache.GenerateKey("warmup", "yahoo", "AAPL"), time.Minute); !ok {
		t.Fatalf("could not take lock")
	}
	w := NewWarmer(repository.NewCachedHistory(up, mc, "yahoo", time.Hour, nil), mc, "yahoo", []string{"AAPL"}, time.Minute, nil)
	if got := w.Run(ctx); got != 0 {
		t.Fatalf("expected locked symbol to be skipped, warmed %d", got)
	}
	if up.calls["AAPL"] != 0 {
		t.Fatalf("locked symbol fetched")
	}
}

func TestRegisterRejectsBadSchedule(t *testing.T) {
	s := New(nil)
	if err := s.RegisterWarmup("not a schedule", NewWarmer(nil, nil, "yahoo", nil, 0, nil)); err == nil {
		t.Fatalf("expected error for invalid schedule")
	}
}
