package forecast

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"StockCast/internal/domain/models"
)

var lastDay = time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)

func quickOptions(step, epochs, future int) Options {
	o := DefaultOptions()
	o.TimeStep = step
	o.Epochs = epochs
	o.FutureSteps = future
	o.HiddenSize = 4
	o.Seed = 11
	return o
}

// dailySeries lays values on consecutive calendar days ending at lastDay.
func dailySeries(t *testing.T, symbol string, values []float64) *models.PriceSeries {
	t.Helper()
	start := lastDay.AddDate(0, 0, -(len(values) - 1))
	points := make([]models.PricePoint, len(values))
	for i, v := range values {
		points[i] = models.PricePoint{Date: start.AddDate(0, 0, i), Close: v}
	}
	s, err := models.NewPriceSeries(symbol, points)
	if err != nil {
		t.Fatalf("series %s: %v", symbol, err)
	}
	return s
}

func wave(n int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = 100 + 10*math.Sin(float64(i)/7) + float64(i)/10
	}
	return values
}

func TestRunLinearSeries(t *testing.T) {
	series := dailySeries(t, "LIN", seq(200))
	f, err := Run(context.Background(), series, quickOptions(10, 1, 50))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(f.TrainPredict) != 151 || len(f.TestPredict) != 38 {
		t.Fatalf("train/test predictions %d/%d", len(f.TrainPredict), len(f.TestPredict))
	}
	if len(f.OriginalData) != 200 || f.OriginalData[199][0] != 200 {
		t.Fatalf("original data not preserved")
	}
	if len(f.Predictions) != 50 || len(f.Loss) != 1 || len(f.ValLoss) != 1 {
		t.Fatalf("predictions %d loss %d val_loss %d", len(f.Predictions), len(f.Loss), len(f.ValLoss))
	}
	if f.Loss[0].Epoch != 1 {
		t.Fatalf("epochs are 1-based, got %d", f.Loss[0].Epoch)
	}
	if f.TrainRMSE < 0 || f.TestRMSE < 0 || math.IsNaN(f.TestRMSE) {
		t.Fatalf("bad rmse %g/%g", f.TrainRMSE, f.TestRMSE)
	}
}

func TestRunShortSeries(t *testing.T) {
	series := dailySeries(t, "SHORT", seq(5))
	if _, err := Run(context.Background(), series, quickOptions(10, 1, 5)); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestRunConstantSeries(t *testing.T) {
	values := make([]float64, 50)
	for i := range values {
		values[i] = 50
	}
	series := dailySeries(t, "FLAT", values)
	if _, err := Run(context.Background(), series, quickOptions(10, 1, 5)); !errors.Is(err, ErrDegenerateRange) {
		t.Fatalf("expected ErrDegenerateRange, got %v", err)
	}
}

func TestRunEmptySeries(t *testing.T) {
	if _, err := Run(context.Background(), nil, quickOptions(10, 1, 5)); !errors.Is(err, ErrEmptySeries) {
		t.Fatalf("expected ErrEmptySeries, got %v", err)
	}
}

func TestRunForecastDates(t *testing.T) {
	series := dailySeries(t, "WAVE", wave(300))
	f, err := Run(context.Background(), series, quickOptions(20, 2, 5))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(f.Predictions) != 5 {
		t.Fatalf("got %d predictions", len(f.Predictions))
	}
	for i, p := range f.Predictions {
		want := lastDay.AddDate(0, 0, i)
		if !p.Date.Equal(want) {
			t.Fatalf("prediction %d dated %s, want %s", i, p.Date.Format(models.DateLayout), want.Format(models.DateLayout))
		}
	}
	if len(f.Loss) != 2 || len(f.ValLoss) != 2 {
		t.Fatalf("loss %d val_loss %d", len(f.Loss), len(f.ValLoss))
	}
}

func TestRunHoldoutAndTrainScaler(t *testing.T) {
	o := quickOptions(10, 1, 3)
	o.Validation = ValidationHoldout
	o.ScalerFit = ScalerFitTrain
	series := dailySeries(t, "HOLD", seq(200))
	f, err := Run(context.Background(), series, o)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	// 189 windows: 151 train, 18 validation, 20 test
	if len(f.TrainPredict) != 151 || len(f.TestPredict) != 20 {
		t.Fatalf("train/test %d/%d", len(f.TrainPredict), len(f.TestPredict))
	}
}

func TestRunEmptyPartition(t *testing.T) {
	o := quickOptions(10, 1, 3)
	o.TrainRatio = 0.99
	series := dailySeries(t, "TINY", seq(12)) // one window, no train
	if _, err := Run(context.Background(), series, o); !errors.Is(err, ErrEmptyPartition) {
		t.Fatalf("expected ErrEmptyPartition, got %v", err)
	}
}

func TestScalerInputTrainPrefix(t *testing.T) {
	values := seq(200) // the test tail climbs above everything training sees
	o := quickOptions(10, 1, 3)

	if got := scalerInput(values, o); len(got) != 200 {
		t.Fatalf("full fit uses %d values", len(got))
	}

	o.ScalerFit = ScalerFitTrain
	// 189 windows, 151 for training: inputs and targets reach values[160]
	fitOn := scalerInput(values, o)
	if len(fitOn) != 161 {
		t.Fatalf("train fit uses %d values, want 161", len(fitOn))
	}
	sc, err := FitScaler(fitOn)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if sc.Min != 1 || sc.Max != 161 {
		t.Fatalf("train-fit range [%g, %g] includes the test tail", sc.Min, sc.Max)
	}
	if sc.Transform(200) <= 1 {
		t.Fatalf("test tail should scale above 1, got %g", sc.Transform(200))
	}
}

func TestPartitionValidationSet(t *testing.T) {
	ds := MakeWindows(seq(200), 10)
	o := quickOptions(10, 1, 3)

	train, val, test := partition(ds, o)
	if len(train) != 151 || len(val) != 38 || &val[0] != &test[0] {
		t.Fatalf("in-sample validation must reuse the test set: %d/%d/%d", len(train), len(val), len(test))
	}

	o.Validation = ValidationHoldout
	train, val, test = partition(ds, o)
	if len(train) != 151 || len(val) != 18 || len(test) != 20 {
		t.Fatalf("holdout sizes %d/%d/%d", len(train), len(val), len(test))
	}
	if val[len(val)-1].Target >= test[0].Target {
		t.Fatalf("validation must precede test")
	}
}

// retrain repeats Run's training on the same seed and reports the final
// model's MSE on the validation and test sets.
func retrain(t *testing.T, values []float64, o Options) (valMSE, testMSE float64) {
	t.Helper()
	sc, err := FitScaler(scalerInput(values, o))
	if err != nil {
		t.Fatalf("fit scaler: %v", err)
	}
	train, val, test := partition(MakeWindows(sc.TransformAll(values), o.TimeStep), o)
	m, err := NewSequenceModel(ModelConfig{TimeStep: o.TimeStep, HiddenSize: o.HiddenSize, Seed: o.Seed})
	if err != nil {
		t.Fatalf("model: %v", err)
	}
	adam := DefaultAdam()
	adam.LearningRate = o.LearningRate
	ctx := context.Background()
	if _, err := m.Fit(ctx, train, val, TrainConfig{Epochs: o.Epochs, BatchSize: o.BatchSize, Adam: adam, Workers: o.Workers}); err != nil {
		t.Fatalf("fit: %v", err)
	}
	if valMSE, err = m.MSE(ctx, val, o.Workers); err != nil {
		t.Fatalf("val mse: %v", err)
	}
	if testMSE, err = m.MSE(ctx, test, o.Workers); err != nil {
		t.Fatalf("test mse: %v", err)
	}
	return valMSE, testMSE
}

func TestRunHoldoutValidatesOnValidationSet(t *testing.T) {
	values := wave(200)
	o := quickOptions(10, 2, 3)
	o.Validation = ValidationHoldout

	f, err := Run(context.Background(), dailySeries(t, "HOLD", values), o)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	valMSE, testMSE := retrain(t, values, o)
	if math.Abs(valMSE-testMSE) < 1e-9 {
		t.Fatalf("validation and test MSE coincide (%g), case does not discriminate", valMSE)
	}
	got := f.ValLoss[len(f.ValLoss)-1].Value
	if math.Abs(got-valMSE) > 1e-12 {
		t.Fatalf("final val_loss %g, want validation-set MSE %g (test-set MSE %g)", got, valMSE, testMSE)
	}
}

func TestRunInSampleValidatesOnTestSet(t *testing.T) {
	values := wave(200)
	o := quickOptions(10, 2, 3)

	f, err := Run(context.Background(), dailySeries(t, "INSAMPLE", values), o)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	_, testMSE := retrain(t, values, o)
	if got := f.ValLoss[len(f.ValLoss)-1].Value; math.Abs(got-testMSE) > 1e-12 {
		t.Fatalf("final val_loss %g, want test-set MSE %g", got, testMSE)
	}
}
