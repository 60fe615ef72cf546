package forecast

import (
	"fmt"
	"runtime"

	"StockCast/internal/domain/models"
)

// ScalerFit selects the observations the scaler range is computed from.
type ScalerFit string

const (
	// ScalerFitFull uses the whole series.
	ScalerFitFull ScalerFit = "full"
	// ScalerFitTrain uses only the observations covered by training windows.
	ScalerFitTrain ScalerFit = "train"
)

// Validation selects the data evaluated after every epoch.
type Validation string

const (
	// ValidationInSample evaluates the test partition, which is also the
	// partition the reported test RMSE is computed on.
	ValidationInSample Validation = "in_sample"
	// ValidationHoldout carves a separate validation partition between train
	// and test.
	ValidationHoldout Validation = "holdout"
)

// Options parameterise a pipeline run.
type Options struct {
	TimeStep     int
	Epochs       int
	FutureSteps  int
	BatchSize    int
	HiddenSize   int
	LearningRate float64
	TrainRatio   float64
	ValRatio     float64
	ScalerFit    ScalerFit
	Validation   Validation
	Calendar     Calendar
	Alignment    Alignment
	Seed         uint64
	Workers      int
	OnEpoch      func(models.EpochProgress)
}

// DefaultOptions returns the stock forecasting setup: 100-day windows, 50 epochs, 50 future days.
func DefaultOptions() Options {
	return Options{
		TimeStep:     100,
		Epochs:       50,
		FutureSteps:  50,
		BatchSize:    64,
		HiddenSize:   50,
		LearningRate: 0.001,
		TrainRatio:   0.8,
		ValRatio:     0.1,
		ScalerFit:    ScalerFitFull,
		Validation:   ValidationInSample,
		Calendar:     CalendarDaily,
		Alignment:    AlignInclusive,
		Workers:      runtime.GOMAXPROCS(0),
	}
}

// Validate reports option values no run could succeed with.
func (o Options) Validate() error {
	switch {
	case o.TimeStep <= 0:
		return fmt.Errorf("time_step must be positive, got %d", o.TimeStep)
	case o.Epochs <= 0:
		return fmt.Errorf("epochs must be positive, got %d", o.Epochs)
	case o.FutureSteps < 0:
		return fmt.Errorf("future_steps must not be negative, got %d", o.FutureSteps)
	case o.BatchSize <= 0:
		return fmt.Errorf("batch_size must be positive, got %d", o.BatchSize)
	case o.HiddenSize <= 0:
		return fmt.Errorf("hidden_size must be positive, got %d", o.HiddenSize)
	case o.LearningRate <= 0:
		return fmt.Errorf("learning_rate must be positive, got %g", o.LearningRate)
	case o.TrainRatio <= 0 || o.TrainRatio >= 1:
		return fmt.Errorf("train_ratio must be in (0,1), got %g", o.TrainRatio)
	}
	switch o.ScalerFit {
	case ScalerFitFull, ScalerFitTrain:
	default:
		return fmt.Errorf("unknown scaler_fit %q", o.ScalerFit)
	}
	switch o.Validation {
	case ValidationInSample:
	case ValidationHoldout:
		if o.ValRatio <= 0 || o.TrainRatio+o.ValRatio >= 1 {
			return fmt.Errorf("val_ratio %g invalid with train_ratio %g", o.ValRatio, o.TrainRatio)
		}
	default:
		return fmt.Errorf("unknown validation %q", o.Validation)
	}
	return nil
}
