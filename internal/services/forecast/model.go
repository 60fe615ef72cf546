package forecast

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"
	"time"

	"StockCast/internal/domain/models"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// ModelConfig fixes the architecture of a SequenceModel.
type ModelConfig struct {
	TimeStep   int
	HiddenSize int
	// Seed makes weight initialisation reproducible. Zero picks a random seed.
	Seed uint64
}

// TrainConfig controls one call to Fit.
type TrainConfig struct {
	Epochs    int
	BatchSize int
	Adam      AdamConfig
	// Workers bounds the goroutines computing per-sample gradients.
	Workers int
	OnEpoch func(models.EpochProgress)
}

func (c TrainConfig) withDefaults() TrainConfig {
	if c.Epochs <= 0 {
		c.Epochs = 50
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 64
	}
	if c.Adam.LearningRate <= 0 {
		c.Adam = DefaultAdam()
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	return c
}

// TrainHistory holds the per-epoch training and validation MSE.
type TrainHistory struct {
	Loss    []float64
	ValLoss []float64
}

// SequenceModel is a two-layer LSTM regressor over univariate windows:
// LSTM(hidden, full sequence) -> LSTM(hidden, last state) -> Dense(1).
// A model is not safe for concurrent use.
type SequenceModel struct {
	timeStep int
	hidden   int
	params   []float64
	net      network
	scratch  *sampleWork
}

// NewSequenceModel allocates and initialises a model.
func NewSequenceModel(cfg ModelConfig) (*SequenceModel, error) {
	if cfg.TimeStep <= 0 {
		return nil, fmt.Errorf("new model: time step must be positive, got %d", cfg.TimeStep)
	}
	if cfg.HiddenSize <= 0 {
		return nil, fmt.Errorf("new model: hidden size must be positive, got %d", cfg.HiddenSize)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	params := make([]float64, networkSize(1, cfg.HiddenSize))
	m := &SequenceModel{
		timeStep: cfg.TimeStep,
		hidden:   cfg.HiddenSize,
		params:   params,
		net:      networkView(params, 1, cfg.HiddenSize),
	}
	initNetwork(m.net, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
	return m, nil
}

func (m *SequenceModel) TimeStep() int { return m.timeStep }

// NumParams reports the number of trainable parameters.
func (m *SequenceModel) NumParams() int { return len(m.params) }

func (m *SequenceModel) newWork() *sampleWork { return newSampleWork(m.timeStep, 1, m.hidden) }

// Fit trains on train in temporal order, one Adam step per batch, and
// evaluates val after every epoch. The context is checked between batches.
func (m *SequenceModel) Fit(ctx context.Context, train, val Dataset, cfg TrainConfig) (*TrainHistory, error) {
	if len(train) == 0 || len(val) == 0 {
		return nil, fmt.Errorf("fit: train=%d val=%d: %w", len(train), len(val), ErrEmptyPartition)
	}
	if err := m.checkInputs(train); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	batch := min(cfg.BatchSize, len(train))
	works := make([]*sampleWork, batch)
	for i := range works {
		works[i] = m.newWork()
	}
	sq := make([]float64, batch)
	grad := make([]float64, len(m.params))
	opt := newAdam(cfg.Adam, len(m.params))

	hist := &TrainHistory{
		Loss:    make([]float64, 0, cfg.Epochs),
		ValLoss: make([]float64, 0, cfg.Epochs),
	}
	start := time.Now()
	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		var total float64
		for lo := 0; lo < len(train); lo += batch {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("fit: epoch %d: %w", epoch, err)
			}
			b := train[lo:min(lo+batch, len(train))]
			loss, err := m.batchGradient(ctx, b, works, sq, grad, cfg.Workers)
			if err != nil {
				return nil, fmt.Errorf("fit: epoch %d: %w", epoch, err)
			}
			opt.apply(m.params, grad)
			total += loss * float64(len(b))
		}
		trainLoss := total / float64(len(train))

		valLoss, err := m.MSE(ctx, val, cfg.Workers)
		if err != nil {
			return nil, fmt.Errorf("fit: epoch %d validation: %w", epoch, err)
		}
		hist.Loss = append(hist.Loss, trainLoss)
		hist.ValLoss = append(hist.ValLoss, valLoss)
		if cfg.OnEpoch != nil {
			cfg.OnEpoch(models.EpochProgress{
				Epoch:   epoch,
				Epochs:  cfg.Epochs,
				Loss:    trainLoss,
				ValLoss: valLoss,
				Elapsed: time.Since(start),
			})
		}
	}
	return hist, nil
}

// batchGradient fills grad with the mean-squared-error gradient over b and
// returns the batch loss. Samples run concurrently; their gradients are summed
// in sample order so the result does not depend on scheduling.
func (m *SequenceModel) batchGradient(ctx context.Context, b Dataset, works []*sampleWork, sq, grad []float64, workers int) (float64, error) {
	scale := 1 / float64(len(b))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for k := range b {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			w := works[k]
			for i := range w.grad {
				w.grad[i] = 0
			}
			sq[k] = m.net.accumulate(b[k], scale, w)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	for i := range grad {
		grad[i] = 0
	}
	var loss float64
	for k := range b {
		floats.Add(grad, works[k].grad)
		loss += sq[k]
	}
	return loss * scale, nil
}

// Predict returns the model output for one scaled input window.
func (m *SequenceModel) Predict(input []float64) float64 {
	if m.scratch == nil {
		m.scratch = m.newWork()
	}
	return m.net.predict(input, m.scratch)
}

// PredictBatch predicts every window of ds, splitting the work into
// contiguous chunks across workers.
func (m *SequenceModel) PredictBatch(ctx context.Context, ds Dataset, workers int) ([]float64, error) {
	if err := m.checkInputs(ds); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := make([]float64, len(ds))
	if len(ds) == 0 {
		return out, nil
	}
	chunk := (len(ds) + workers - 1) / workers
	g, gctx := errgroup.WithContext(ctx)
	for lo := 0; lo < len(ds); lo += chunk {
		hi := min(lo+chunk, len(ds))
		g.Go(func() error {
			w := m.newWork()
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				out[i] = m.net.predict(ds[i].Input, w)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	return out, nil
}

// MSE is the mean squared error of the model over ds.
func (m *SequenceModel) MSE(ctx context.Context, ds Dataset, workers int) (float64, error) {
	if len(ds) == 0 {
		return 0, ErrEmptyPartition
	}
	pred, err := m.PredictBatch(ctx, ds, workers)
	if err != nil {
		return 0, err
	}
	d := floats.Distance(pred, ds.Targets(), 2)
	return d * d / float64(len(ds)), nil
}

var errWindowLength = errors.New("window length does not match time step")

func (m *SequenceModel) checkInputs(ds Dataset) error {
	for i, w := range ds {
		if len(w.Input) != m.timeStep {
			return fmt.Errorf("window %d has %d values, want %d: %w", i, len(w.Input), m.timeStep, errWindowLength)
		}
	}
	return nil
}
