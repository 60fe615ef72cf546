package repository

import (
	"context"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
)

// NoopRecorder discards runs. Used when recorder.type is none.
type NoopRecorder struct{}

var _ domrepo.RunRecorder = NoopRecorder{}

func (NoopRecorder) Init(context.Context) error { return nil }

func (NoopRecorder) Record(context.Context, *models.ForecastRun) error { return nil }

func (NoopRecorder) Recent(context.Context, string, int) ([]*models.ForecastRun, error) {
	return nil, nil
}

func (NoopRecorder) Close() error { return nil }

// NoopPublisher drops forecast events. Used when kafka is disabled.
type NoopPublisher struct{}

var _ domrepo.EventPublisher = NoopPublisher{}

func (NoopPublisher) PublishForecast(context.Context, *models.ForecastRun) error { return nil }

func (NoopPublisher) Close() error { return nil }
