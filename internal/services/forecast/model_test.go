package forecast

import (
	"context"
	"errors"
	"math"
	"testing"

	"StockCast/internal/domain/models"
)

func sineDataset(n, step int) Dataset {
	series := make([]float64, n)
	for i := range series {
		series[i] = 0.5 + 0.4*math.Sin(float64(i)/4)
	}
	return MakeWindows(series, step)
}

func TestBackwardMatchesFiniteDifferences(t *testing.T) {
	m, err := NewSequenceModel(ModelConfig{TimeStep: 4, HiddenSize: 3, Seed: 7})
	if err != nil {
		t.Fatal(err)
	}
	win := Window{Input: []float64{0.1, 0.7, 0.3, 0.9}, Target: 0.4}

	w := m.newWork()
	m.net.accumulate(win, 1, w)
	analytic := append([]float64(nil), w.grad...)

	loss := func() float64 {
		d := m.Predict(win.Input) - win.Target
		return d * d
	}
	const eps = 1e-6
	for i := range m.params {
		orig := m.params[i]
		m.params[i] = orig + eps
		up := loss()
		m.params[i] = orig - eps
		down := loss()
		m.params[i] = orig
		numeric := (up - down) / (2 * eps)
		if diff := math.Abs(numeric - analytic[i]); diff > 1e-6+1e-4*math.Abs(numeric) {
			t.Fatalf("param %d: analytic %g numeric %g", i, analytic[i], numeric)
		}
	}
}

func TestFitDeterministicWithSeed(t *testing.T) {
	ds := sineDataset(80, 6)
	train, test := Split(ds, 0.8)
	run := func(workers int) *TrainHistory {
		m, err := NewSequenceModel(ModelConfig{TimeStep: 6, HiddenSize: 4, Seed: 42})
		if err != nil {
			t.Fatal(err)
		}
		h, err := m.Fit(context.Background(), train, test, TrainConfig{Epochs: 3, BatchSize: 16, Workers: workers})
		if err != nil {
			t.Fatalf("fit: %v", err)
		}
		return h
	}
	a, b := run(1), run(4)
	for i := range a.Loss {
		if a.Loss[i] != b.Loss[i] || a.ValLoss[i] != b.ValLoss[i] {
			t.Fatalf("epoch %d differs: %g/%g vs %g/%g", i+1, a.Loss[i], a.ValLoss[i], b.Loss[i], b.ValLoss[i])
		}
	}
}

func TestFitReducesLoss(t *testing.T) {
	ds := sineDataset(160, 8)
	train, test := Split(ds, 0.8)
	m, _ := NewSequenceModel(ModelConfig{TimeStep: 8, HiddenSize: 8, Seed: 3})
	var progress []models.EpochProgress
	h, err := m.Fit(context.Background(), train, test, TrainConfig{
		Epochs:    30,
		BatchSize: 16,
		Adam:      AdamConfig{LearningRate: 0.01, Beta1: 0.9, Beta2: 0.999, Epsilon: 1e-7},
		OnEpoch:   func(p models.EpochProgress) { progress = append(progress, p) },
	})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if len(h.Loss) != 30 || len(h.ValLoss) != 30 || len(progress) != 30 {
		t.Fatalf("history %d/%d progress %d", len(h.Loss), len(h.ValLoss), len(progress))
	}
	if progress[29].Epoch != 30 || progress[29].Epochs != 30 {
		t.Fatalf("unexpected last progress %+v", progress[29])
	}
	if h.Loss[29] >= h.Loss[0] {
		t.Fatalf("loss did not decrease: first %g last %g", h.Loss[0], h.Loss[29])
	}
}

func TestFitEmptyPartition(t *testing.T) {
	m, _ := NewSequenceModel(ModelConfig{TimeStep: 3, HiddenSize: 2, Seed: 1})
	ds := MakeWindows(seq(10), 3)
	if _, err := m.Fit(context.Background(), ds, nil, TrainConfig{Epochs: 1}); !errors.Is(err, ErrEmptyPartition) {
		t.Fatalf("expected ErrEmptyPartition, got %v", err)
	}
}

func TestFitHonoursCancellation(t *testing.T) {
	m, _ := NewSequenceModel(ModelConfig{TimeStep: 3, HiddenSize: 2, Seed: 1})
	ds := MakeWindows(seq(20), 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Fit(ctx, ds, ds, TrainConfig{Epochs: 1}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
