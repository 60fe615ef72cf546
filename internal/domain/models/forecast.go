package models

import "time"

// DateLayout is the calendar date format used on the wire and in storage.
const DateLayout = "2006-01-02"

type PredictionPoint struct {
	Date           time.Time
	PredictedClose float64
}

type EpochLoss struct {
	Epoch int // 1-based
	Value float64
}

// ForecastParams records the parameters a forecast ran with.
type ForecastParams struct {
	TimeStep    int
	Epochs      int
	FutureSteps int
	BatchSize   int
	Seed        uint64
	ScalerFit   string
	Validation  string
}

// Forecast is the result of one train-evaluate-forecast run.
type Forecast struct {
	Symbol       string
	Params       ForecastParams
	Predictions  []PredictionPoint
	Loss         []EpochLoss
	ValLoss      []EpochLoss
	TrainRMSE    float64
	TestRMSE     float64
	OriginalData [][]float64
	TrainPredict [][]float64
	TestPredict  [][]float64
	Duration     time.Duration
}

// ForecastRun is the recorded summary of a forecast request.
type ForecastRun struct {
	ID           string
	Symbol       string
	CreatedAt    time.Time
	TimeStep     int
	Epochs       int
	FutureSteps  int
	Observations int
	TrainRMSE    float64
	TestRMSE     float64
	FinalLoss    float64
	FinalValLoss float64
	Duration     time.Duration
	Predictions  []PredictionPoint
}

// NewForecastRun summarises f for recording.
func NewForecastRun(id string, createdAt time.Time, observations int, f *Forecast) *ForecastRun {
	run := &ForecastRun{
		ID:           id,
		Symbol:       f.Symbol,
		CreatedAt:    createdAt,
		TimeStep:     f.Params.TimeStep,
		Epochs:       f.Params.Epochs,
		FutureSteps:  f.Params.FutureSteps,
		Observations: observations,
		TrainRMSE:    f.TrainRMSE,
		TestRMSE:     f.TestRMSE,
		Duration:     f.Duration,
		Predictions:  f.Predictions,
	}
	if n := len(f.Loss); n > 0 {
		run.FinalLoss = f.Loss[n-1].Value
	}
	if n := len(f.ValLoss); n > 0 {
		run.FinalValLoss = f.ValLoss[n-1].Value
	}
	return run
}

// EpochProgress is reported after every training epoch.
type EpochProgress struct {
	Epoch   int
	Epochs  int
	Loss    float64
	ValLoss float64
	Elapsed time.Duration
}
