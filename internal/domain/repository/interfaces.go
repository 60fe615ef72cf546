package repository

import (
	"context"
	"time"

	"StockCast/internal/domain/models"
)

// HistoryProvider fetches the daily closing history of a symbol.
type HistoryProvider interface {
	History(ctx context.Context, symbol string) (*models.StockProfile, error)
}

// IntradayProvider fetches recent intraday quotes of a symbol.
type IntradayProvider interface {
	Intraday(ctx context.Context, symbol string) ([]models.Quote, error)
}

// RunRecorder persists forecast run summaries.
type RunRecorder interface {
	Init(ctx context.Context) error // ensure tables
	Record(ctx context.Context, run *models.ForecastRun) error
	Recent(ctx context.Context, symbol string, limit int) ([]*models.ForecastRun, error)
	Close() error
}

// EventPublisher announces completed forecasts.
type EventPublisher interface {
	PublishForecast(ctx context.Context, run *models.ForecastRun) error
	Close() error
}

type Metrics interface {
	RecordFetch(provider string, seconds float64, err error)
	RecordError(kind string)
	RecordLastClose(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}

// ForecastMetrics observes forecast runs.
type ForecastMetrics interface {
	ObserveEpoch(symbol string, p models.EpochProgress)
	ObserveRun(symbol string, outcome string, d time.Duration, trainRMSE, testRMSE float64)
}
