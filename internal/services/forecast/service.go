package forecast

import (
	"context"

	"StockCast/internal/domain/models"
	"StockCast/internal/domain/service"
)

// Service runs the pipeline with configured defaults, letting each request
// override the user-facing parameters.
type Service struct {
	defaults Options
}

var _ service.Forecaster = (*Service)(nil)

func NewService(defaults Options) *Service {
	return &Service{defaults: defaults}
}

func (s *Service) Defaults() Options { return s.defaults }

// Forecast applies req over the defaults and runs the pipeline.
func (s *Service) Forecast(ctx context.Context, series *models.PriceSeries, req service.ForecastRequest) (*models.Forecast, error) {
	opts := s.defaults
	if req.TimeStep > 0 {
		opts.TimeStep = req.TimeStep
	}
	if req.Epochs > 0 {
		opts.Epochs = req.Epochs
	}
	if req.FutureSteps > 0 {
		opts.FutureSteps = req.FutureSteps
	}
	if req.Seed != 0 {
		opts.Seed = req.Seed
	}
	opts.OnEpoch = req.OnEpoch
	return Run(ctx, series, opts)
}
