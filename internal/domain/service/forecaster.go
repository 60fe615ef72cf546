package service

import (
	"context"

	"StockCast/internal/domain/models"
)

// ForecastRequest carries per-request overrides of the configured defaults.
type ForecastRequest struct {
	TimeStep    int
	Epochs      int
	FutureSteps int
	Seed        uint64
	OnEpoch     func(models.EpochProgress)
}

// Forecaster trains a fresh model on series and forecasts past its end.
type Forecaster interface {
	Forecast(ctx context.Context, series *models.PriceSeries, req ForecastRequest) (*models.Forecast, error)
}
