package scheduler

import (
	"context"
	"fmt"
	"time"

	domrepo "StockCast/internal/domain/repository"
	"StockCast/internal/repository"
	"StockCast/internal/service/ratelimit"
	"StockCast/pkg/cache"
	applogger "StockCast/pkg/logger"
	"StockCast/pkg/util"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the background maintenance jobs. Specs use six fields
// (seconds first).
type Scheduler struct {
	cron *cron.Cron
	l    *applogger.Logger
}

func New(l *applogger.Logger) *Scheduler {
	if l == nil {
		l = applogger.Nop()
	}
	return &Scheduler{cron: cron.New(cron.WithSeconds()), l: l}
}

// RegisterWarmup refreshes the warmer's watchlist on the cron schedule.
func (s *Scheduler) RegisterWarmup(schedule string, w *Warmer) error {
	if _, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		defer cancel()
		w.Run(ctx)
	}); err != nil {
		return fmt.Errorf("register warmup %q: %w", schedule, err)
	}
	return nil
}

// RegisterSweep drops idle rate limiter buckets on the cron schedule.
func (s *Scheduler) RegisterSweep(schedule string, lim *ratelimit.Limiter) error {
	if _, err := s.cron.AddFunc(schedule, func() {
		n := lim.Sweep()
		s.l.Debug("rate limiter swept", applogger.Int("buckets", n))
	}); err != nil {
		return fmt.Errorf("register sweep %q: %w", schedule, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.l.Info("scheduler started", applogger.Int("jobs", len(s.cron.Entries())))
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.l.Info("scheduler stopped")
}

// Warmer refetches the histories of a watchlist so the first request of the
// day is served from cache. A cache lock keeps replicas from warming the
// same symbol twice.
type Warmer struct {
	history  domrepo.HistoryProvider
	cache    cache.Service
	provider string
	symbols  []string
	lockTTL  time.Duration
	timeout  time.Duration
	l        *applogger.Logger
}

func NewWarmer(history domrepo.HistoryProvider, c cache.Service, provider string, symbols []string, timeout time.Duration, l *applogger.Logger) *Warmer {
	if l == nil {
		l = applogger.Nop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	norm := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s = util.NormalizeSymbol(s); s != "" {
			norm = append(norm, s)
		}
	}
	return &Warmer{
		history:  history,
		cache:    c,
		provider: provider,
		symbols:  norm,
		lockTTL:  time.Minute,
		timeout:  timeout,
		l:        l,
	}
}

// Run warms every symbol and returns how many were refreshed.
func (w *Warmer) Run(ctx context.Context) int {
	var warmed int
	for _, sym := range w.symbols {
		if ctx.Err() != nil {
			break
		}
		ok, err := w.warm(ctx, sym)
		if err != nil {
			w.l.Warn("warmup failed", applogger.Symbol(sym), applogger.Error(err))
			continue
		}
		if ok {
			warmed++
		}
	}
	w.l.Info("warmup done", applogger.Int("symbols", len(w.symbols)), applogger.Int("warmed", warmed))
	return warmed
}

func (w *Warmer) warm(ctx context.Context, sym string) (bool, error) {
	lockKey := cache.GenerateKey("warmup", w.provider, sym)
	locked, err := w.cache.TryLock(ctx, lockKey, w.lockTTL)
	if err != nil {
		return false, fmt.Errorf("lock: %w", err)
	}
	if !locked {
		return false, nil
	}
	defer func() { _ = w.cache.Unlock(context.WithoutCancel(ctx), lockKey) }()

	if err := w.cache.Delete(ctx, repository.HistoryKey(w.provider, sym)); err != nil {
		return false, fmt.Errorf("evict: %w", err)
	}
	if _, err := w.history.History(ctx, sym); err != nil {
		return false, err
	}
	return true, nil
}
