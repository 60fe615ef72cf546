package repository

import (
	"context"
	"time"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	"StockCast/pkg/cache"
	applogger "StockCast/pkg/logger"

	"golang.org/x/sync/singleflight"
)

// sharedLoadTimeout bounds an upstream load that outlives the caller that
// started it.
const sharedLoadTimeout = time.Minute

// sharedLoad runs load once per key across concurrent callers. The load
// ignores the starting caller's cancellation. Each caller returns as soon as
// its own context is done.
func sharedLoad[T any](ctx context.Context, g *singleflight.Group, key string, load func(context.Context) (T, error)) (T, error) {
	ch := g.DoChan(key, func() (interface{}, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLoadTimeout)
		defer cancel()
		return load(lctx)
	})
	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return zero, r.Err
		}
		return r.Val.(T), nil
	}
}

// CachedHistory caches upstream histories per symbol and collapses
// concurrent fetches of the same symbol into one upstream call.
type CachedHistory struct {
	next     domrepo.HistoryProvider
	cache    cache.Service
	ttl      time.Duration
	provider string
	group    singleflight.Group
	l        *applogger.Logger
}

var _ domrepo.HistoryProvider = (*CachedHistory)(nil)

func NewCachedHistory(next domrepo.HistoryProvider, c cache.Service, provider string, ttl time.Duration, l *applogger.Logger) *CachedHistory {
	if l == nil {
		l = applogger.Nop()
	}
	return &CachedHistory{next: next, cache: c, ttl: ttl, provider: provider, l: l}
}

// HistoryKey is the cache key of a symbol's daily history.
func HistoryKey(provider, symbol string) string {
	return cache.GenerateKey("history", provider, symbol)
}

func (h *CachedHistory) History(ctx context.Context, symbol string) (*models.StockProfile, error) {
	key := HistoryKey(h.provider, symbol)
	return sharedLoad(ctx, &h.group, key, func(ctx context.Context) (*models.StockProfile, error) {
		p, err := cache.GetOrLoad(ctx, h.cache, key, h.ttl, func(ctx context.Context) (*models.StockProfile, error) {
			return h.next.History(ctx, symbol)
		})
		if err != nil && p != nil {
			h.l.Warn("history cache unavailable", applogger.Symbol(symbol), applogger.Error(err))
			return p, nil
		}
		return p, err
	})
}

// CachedIntraday is the IntradayProvider counterpart of CachedHistory.
type CachedIntraday struct {
	next     domrepo.IntradayProvider
	cache    cache.Service
	ttl      time.Duration
	provider string
	group    singleflight.Group
	l        *applogger.Logger
}

var _ domrepo.IntradayProvider = (*CachedIntraday)(nil)

func NewCachedIntraday(next domrepo.IntradayProvider, c cache.Service, provider string, ttl time.Duration, l *applogger.Logger) *CachedIntraday {
	if l == nil {
		l = applogger.Nop()
	}
	return &CachedIntraday{next: next, cache: c, ttl: ttl, provider: provider, l: l}
}

func (h *CachedIntraday) Intraday(ctx context.Context, symbol string) ([]models.Quote, error) {
	key := cache.GenerateKey("intraday", h.provider, symbol)
	return sharedLoad(ctx, &h.group, key, func(ctx context.Context) ([]models.Quote, error) {
		q, err := cache.GetOrLoad(ctx, h.cache, key, h.ttl, func(ctx context.Context) ([]models.Quote, error) {
			return h.next.Intraday(ctx, symbol)
		})
		if err != nil && q != nil {
			h.l.Warn("intraday cache unavailable", applogger.Symbol(symbol), applogger.Error(err))
			return q, nil
		}
		return q, err
	})
}
