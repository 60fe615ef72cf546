package api

import (
	"time"

	"StockCast/internal/domain/models"
)

type PredictionDTO struct {
	Date           string  `json:"date"`
	PredictedClose float64 `json:"predicted_close"`
}

type LossDTO struct {
	Epoch int     `json:"epoch"`
	Loss  float64 `json:"loss"`
}

type ValLossDTO struct {
	Epoch   int     `json:"epoch"`
	ValLoss float64 `json:"val_loss"`
}

// ForecastResponse is the body of /predict and the websocket result.
type ForecastResponse struct {
	Predictions  []PredictionDTO `json:"predictions"`
	Loss         []LossDTO       `json:"loss"`
	ValLoss      []ValLossDTO    `json:"val_loss"`
	TrainRMSE    float64         `json:"train_rmse"`
	TestRMSE     float64         `json:"test_rmse"`
	OriginalData [][]float64     `json:"original_data"`
	TrainPredict [][]float64     `json:"train_predict"`
	TestPredict  [][]float64     `json:"test_predict"`
}

func NewForecastResponse(f *models.Forecast) ForecastResponse {
	out := ForecastResponse{
		Predictions:  make([]PredictionDTO, len(f.Predictions)),
		Loss:         make([]LossDTO, len(f.Loss)),
		ValLoss:      make([]ValLossDTO, len(f.ValLoss)),
		TrainRMSE:    f.TrainRMSE,
		TestRMSE:     f.TestRMSE,
		OriginalData: nonNil(f.OriginalData),
		TrainPredict: nonNil(f.TrainPredict),
		TestPredict:  nonNil(f.TestPredict),
	}
	for i, p := range f.Predictions {
		out.Predictions[i] = PredictionDTO{Date: p.Date.Format(models.DateLayout), PredictedClose: p.PredictedClose}
	}
	for i, l := range f.Loss {
		out.Loss[i] = LossDTO{Epoch: l.Epoch, Loss: l.Value}
	}
	for i, l := range f.ValLoss {
		out.ValLoss[i] = ValLossDTO{Epoch: l.Epoch, ValLoss: l.Value}
	}
	return out
}

func nonNil(m [][]float64) [][]float64 {
	if m == nil {
		return [][]float64{}
	}
	return m
}

type HistoryPointDTO struct {
	Date  string  `json:"Date"`
	Close float64 `json:"Close"`
}

type HistoryResponse struct {
	Name     string            `json:"name"`
	Sector   string            `json:"sector"`
	Industry string            `json:"industry"`
	History  []HistoryPointDTO `json:"history"`
}

func NewHistoryResponse(p *models.StockProfile) HistoryResponse {
	out := HistoryResponse{
		Name:     p.Name,
		Sector:   p.Sector,
		Industry: p.Industry,
		History:  make([]HistoryPointDTO, len(p.History)),
	}
	for i, pt := range p.History {
		out.History[i] = HistoryPointDTO{Date: pt.Date.Format(models.DateLayout), Close: pt.Close}
	}
	return out
}

type QuoteDTO struct {
	Time  string  `json:"Time"`
	Price float64 `json:"Price"`
}

type RunDTO struct {
	ID           string          `json:"id"`
	Symbol       string          `json:"symbol"`
	CreatedAt    time.Time       `json:"created_at"`
	TimeStep     int             `json:"time_step"`
	Epochs       int             `json:"epochs"`
	FutureSteps  int             `json:"future_steps"`
	Observations int             `json:"observations"`
	TrainRMSE    float64         `json:"train_rmse"`
	TestRMSE     float64         `json:"test_rmse"`
	FinalLoss    float64         `json:"final_loss"`
	FinalValLoss float64         `json:"final_val_loss"`
	DurationMs   int64           `json:"duration_ms"`
	Predictions  []PredictionDTO `json:"predictions"`
}

func NewRunDTO(r *models.ForecastRun) RunDTO {
	out := RunDTO{
		ID:           r.ID,
		Symbol:       r.Symbol,
		CreatedAt:    r.CreatedAt,
		TimeStep:     r.TimeStep,
		Epochs:       r.Epochs,
		FutureSteps:  r.FutureSteps,
		Observations: r.Observations,
		TrainRMSE:    r.TrainRMSE,
		TestRMSE:     r.TestRMSE,
		FinalLoss:    r.FinalLoss,
		FinalValLoss: r.FinalValLoss,
		DurationMs:   r.Duration.Milliseconds(),
		Predictions:  make([]PredictionDTO, len(r.Predictions)),
	}
	for i, p := range r.Predictions {
		out.Predictions[i] = PredictionDTO{Date: p.Date.Format(models.DateLayout), PredictedClose: p.PredictedClose}
	}
	return out
}

// StreamMessage is one websocket frame of /ws/predict.
type StreamMessage struct {
	Type      string            `json:"type"` // epoch | result | error
	Epoch     int               `json:"epoch,omitempty"`
	Epochs    int               `json:"epochs,omitempty"`
	Loss      *float64          `json:"loss,omitempty"`
	ValLoss   *float64          `json:"val_loss,omitempty"`
	ElapsedMs int64             `json:"elapsed_ms,omitempty"`
	Data      *ForecastResponse `json:"data,omitempty"`
	Error     string            `json:"error,omitempty"`
	Code      string            `json:"code,omitempty"`
}
