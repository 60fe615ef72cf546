package forecast

import (
	"context"
	"fmt"
	"time"

	"StockCast/internal/domain/models"
)

// Run scales, windows and splits series, trains a fresh model, evaluates it
// on both partitions and forecasts opts.FutureSteps values past the end of
// the series. A run either returns a complete Forecast or an error.
func Run(ctx context.Context, series *models.PriceSeries, opts Options) (*models.Forecast, error) {
	start := time.Now()
	n := series.Len()
	if n == 0 {
		return nil, ErrEmptySeries
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("forecast options: %w", err)
	}
	T := opts.TimeStep
	if n <= T+1 {
		return nil, fmt.Errorf("%d observations with time step %d: %w", n, T, ErrInsufficientData)
	}
	values := series.Values()

	scaler, err := FitScaler(scalerInput(values, opts))
	if err != nil {
		return nil, err
	}
	scaled := scaler.TransformAll(values)

	ds := MakeWindows(scaled, T)
	train, val, test := partition(ds, opts)
	if len(train) == 0 || len(val) == 0 || len(test) == 0 {
		return nil, fmt.Errorf("split %d windows: train=%d val=%d test=%d: %w",
			len(ds), len(train), len(val), len(test), ErrEmptyPartition)
	}

	model, err := NewSequenceModel(ModelConfig{TimeStep: T, HiddenSize: opts.HiddenSize, Seed: opts.Seed})
	if err != nil {
		return nil, err
	}
	adam := DefaultAdam()
	adam.LearningRate = opts.LearningRate
	hist, err := model.Fit(ctx, train, val, TrainConfig{
		Epochs:    opts.Epochs,
		BatchSize: opts.BatchSize,
		Adam:      adam,
		Workers:   opts.Workers,
		OnEpoch:   opts.OnEpoch,
	})
	if err != nil {
		return nil, err
	}

	trainPred, err := model.PredictBatch(ctx, train, opts.Workers)
	if err != nil {
		return nil, err
	}
	testPred, err := model.PredictBatch(ctx, test, opts.Workers)
	if err != nil {
		return nil, err
	}
	trainRMSE, err := RMSE(train.Targets(), trainPred, scaler)
	if err != nil {
		return nil, fmt.Errorf("train rmse: %w", err)
	}
	testRMSE, err := RMSE(test.Targets(), testPred, scaler)
	if err != nil {
		return nil, fmt.Errorf("test rmse: %w", err)
	}

	future, err := Forecast(model, scaled, T, opts.FutureSteps)
	if err != nil {
		return nil, err
	}
	last, _ := series.Last()
	dates, err := FutureDates(last.Date, opts.FutureSteps, opts.Calendar, opts.Alignment)
	if err != nil {
		return nil, err
	}
	prices := scaler.InverseAll(future)
	predictions := make([]models.PredictionPoint, len(prices))
	for i, p := range prices {
		predictions[i] = models.PredictionPoint{Date: dates[i], PredictedClose: p}
	}

	return &models.Forecast{
		Symbol: series.Symbol(),
		Params: models.ForecastParams{
			TimeStep:    T,
			Epochs:      opts.Epochs,
			FutureSteps: opts.FutureSteps,
			BatchSize:   opts.BatchSize,
			Seed:        opts.Seed,
			ScalerFit:   string(opts.ScalerFit),
			Validation:  string(opts.Validation),
		},
		Predictions:  predictions,
		Loss:         epochLosses(hist.Loss),
		ValLoss:      epochLosses(hist.ValLoss),
		TrainRMSE:    trainRMSE,
		TestRMSE:     testRMSE,
		OriginalData: column(values),
		TrainPredict: column(scaler.InverseAll(trainPred)),
		TestPredict:  column(scaler.InverseAll(testPred)),
		Duration:     time.Since(start),
	}, nil
}

// scalerInput returns the observations the scaler range is computed from.
// With ScalerFitTrain that is the prefix covered by training windows, inputs
// and targets included.
func scalerInput(values []float64, opts Options) []float64 {
	if opts.ScalerFit != ScalerFitTrain {
		return values
	}
	windows := max(len(values)-opts.TimeStep-1, 0)
	return values[:splitIndex(windows, opts.TrainRatio)+opts.TimeStep]
}

// partition splits ds into the sets used for fitting, per-epoch validation
// and final evaluation. In-sample validation evaluates the test set.
func partition(ds Dataset, opts Options) (train, val, test Dataset) {
	if opts.Validation == ValidationHoldout {
		return SplitThreeWay(ds, opts.TrainRatio, opts.ValRatio)
	}
	train, test = Split(ds, opts.TrainRatio)
	return train, test, test
}

func epochLosses(v []float64) []models.EpochLoss {
	out := make([]models.EpochLoss, len(v))
	for i, x := range v {
		out[i] = models.EpochLoss{Epoch: i + 1, Value: x}
	}
	return out
}

// column reshapes v into a single-column matrix.
func column(v []float64) [][]float64 {
	out := make([][]float64, len(v))
	for i := range v {
		out[i] = v[i : i+1 : i+1]
	}
	return out
}
