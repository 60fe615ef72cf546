package repository

import (
	"context"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
)

type producer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
}

// KafkaPublisher emits a forecast.completed event per run, keyed by symbol
// so one symbol's runs stay ordered within a partition.
type KafkaPublisher struct {
	p     producer
	topic string
}

var _ domrepo.EventPublisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(p producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{p: p, topic: topic}
}

// ForecastEvent is the wire form of a completed run.
type ForecastEvent struct {
	Type         string             `json:"type"`
	ID           string             `json:"id"`
	Symbol       string             `json:"symbol"`
	CreatedAt    string             `json:"created_at"`
	TimeStep     int                `json:"time_step"`
	Epochs       int                `json:"epochs"`
	FutureSteps  int                `json:"future_steps"`
	Observations int                `json:"observations"`
	TrainRMSE    float64            `json:"train_rmse"`
	TestRMSE     float64            `json:"test_rmse"`
	DurationMs   int64              `json:"duration_ms"`
	Predictions  []storedPrediction `json:"predictions"`
}

func newForecastEvent(run *models.ForecastRun) ForecastEvent {
	ev := ForecastEvent{
		Type:         "forecast.completed",
		ID:           run.ID,
		Symbol:       run.Symbol,
		CreatedAt:    run.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		TimeStep:     run.TimeStep,
		Epochs:       run.Epochs,
		FutureSteps:  run.FutureSteps,
		Observations: run.Observations,
		TrainRMSE:    run.TrainRMSE,
		TestRMSE:     run.TestRMSE,
		DurationMs:   run.Duration.Milliseconds(),
		Predictions:  make([]storedPrediction, len(run.Predictions)),
	}
	for i, p := range run.Predictions {
		ev.Predictions[i] = storedPrediction{Date: p.Date.Format(models.DateLayout), Close: p.PredictedClose}
	}
	return ev
}

func (k *KafkaPublisher) PublishForecast(ctx context.Context, run *models.ForecastRun) error {
	return k.p.Publish(ctx, k.topic, []byte(run.Symbol), newForecastEvent(run))
}

// Close is a no-op; the producer is shared with the log collector and
// closed by its owner.
func (k *KafkaPublisher) Close() error { return nil }
