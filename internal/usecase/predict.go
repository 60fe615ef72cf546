package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	"StockCast/internal/domain/service"
	applogger "StockCast/pkg/logger"
	"StockCast/pkg/util"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// PredictConfig bounds the resources a forecast request may use.
type PredictConfig struct {
	// MaxConcurrent caps trainings running at once. Zero means unbounded.
	MaxConcurrent int
	// MaxObservations keeps only the most recent closes. Zero keeps all.
	MaxObservations int
	// Timeout cancels a training that runs longer. Zero disables it.
	Timeout time.Duration
}

// PredictUseCase fetches a symbol's history, trains a forecaster on it and
// records the outcome.
type PredictUseCase struct {
	history    domrepo.HistoryProvider
	forecaster service.Forecaster
	recorder   domrepo.RunRecorder
	publisher  domrepo.EventPublisher
	metrics    domrepo.ForecastMetrics
	cfg        PredictConfig
	sem        *semaphore.Weighted
	l          *applogger.Logger
	now        func() time.Time
}

func NewPredictUseCase(
	history domrepo.HistoryProvider,
	forecaster service.Forecaster,
	recorder domrepo.RunRecorder,
	publisher domrepo.EventPublisher,
	metrics domrepo.ForecastMetrics,
	cfg PredictConfig,
	l *applogger.Logger,
) *PredictUseCase {
	if l == nil {
		l = applogger.Nop()
	}
	uc := &PredictUseCase{
		history:    history,
		forecaster: forecaster,
		recorder:   recorder,
		publisher:  publisher,
		metrics:    metrics,
		cfg:        cfg,
		l:          l,
		now:        time.Now,
	}
	if cfg.MaxConcurrent > 0 {
		uc.sem = semaphore.NewWeighted(int64(cfg.MaxConcurrent))
	}
	return uc
}

type PredictParams struct {
	Symbol      string
	TimeStep    int
	Epochs      int
	FutureSteps int
	Seed        uint64
	// OnEpoch, when set, receives progress after every training epoch.
	OnEpoch func(models.EpochProgress)
}

// Predict runs one forecast. Recording and publishing failures are logged
// and do not fail the request.
func (uc *PredictUseCase) Predict(ctx context.Context, p PredictParams) (*models.Forecast, error) {
	symbol := util.NormalizeSymbol(p.Symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}

	profile, err := uc.history.History(ctx, symbol)
	if err != nil {
		return nil, err
	}
	series, err := models.NewPriceSeries(symbol, profile.History)
	if err != nil {
		return nil, err
	}
	if uc.cfg.MaxObservations > 0 {
		series = series.Tail(uc.cfg.MaxObservations)
	}

	if uc.sem != nil {
		if err := uc.sem.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("wait for training slot: %w", err)
		}
		defer uc.sem.Release(1)
	}
	if uc.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.cfg.Timeout)
		defer cancel()
	}

	start := uc.now()
	log := uc.l.With(applogger.Symbol(symbol))
	log.Info("forecast started",
		applogger.Int("observations", series.Len()),
		applogger.Int("time_step", p.TimeStep),
		applogger.Int("epochs", p.Epochs),
		applogger.Int("future_steps", p.FutureSteps),
	)

	f, err := uc.forecaster.Forecast(ctx, series, service.ForecastRequest{
		TimeStep:    p.TimeStep,
		Epochs:      p.Epochs,
		FutureSteps: p.FutureSteps,
		Seed:        p.Seed,
		OnEpoch: func(ep models.EpochProgress) {
			if uc.metrics != nil {
				uc.metrics.ObserveEpoch(symbol, ep)
			}
			log.Debug("epoch done",
				applogger.Int("epoch", ep.Epoch),
				applogger.Float64("loss", ep.Loss),
				applogger.Float64("val_loss", ep.ValLoss),
			)
			if p.OnEpoch != nil {
				p.OnEpoch(ep)
			}
		},
	})
	elapsed := uc.now().Sub(start)
	if err != nil {
		outcome := "error"
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			outcome = "canceled"
		}
		if uc.metrics != nil {
			uc.metrics.ObserveRun(symbol, outcome, elapsed, 0, 0)
		}
		log.Warn("forecast failed", applogger.String("outcome", outcome), applogger.Error(err))
		return nil, err
	}
	if uc.metrics != nil {
		uc.metrics.ObserveRun(symbol, "ok", elapsed, f.TrainRMSE, f.TestRMSE)
	}
	log.Info("forecast done",
		applogger.Float64("train_rmse", f.TrainRMSE),
		applogger.Float64("test_rmse", f.TestRMSE),
		applogger.Duration("duration_ms", elapsed),
	)

	run := models.NewForecastRun(uuid.NewString(), start.UTC(), series.Len(), f)
	// ctx may be spent by now; recording gets its own budget.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if uc.recorder != nil {
		if err := uc.recorder.Record(rctx, run); err != nil {
			log.Error("record forecast run", applogger.String("run_id", run.ID), applogger.Error(err))
		}
	}
	if uc.publisher != nil {
		if err := uc.publisher.PublishForecast(rctx, run); err != nil {
			log.Error("publish forecast event", applogger.String("run_id", run.ID), applogger.Error(err))
		}
	}
	return f, nil
}

// Recent lists recorded runs for symbol, newest first.
func (uc *PredictUseCase) Recent(ctx context.Context, symbol string, limit int) ([]*models.ForecastRun, error) {
	symbol = util.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if uc.recorder == nil {
		return nil, nil
	}
	runs, err := uc.recorder.Recent(ctx, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	return runs, nil
}
