package repository

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/pkg/cache"
)

type countingHistory struct {
	calls atomic.Int32
	err   error
}

func (c *countingHistory) History(_ context.Context, symbol string) (*models.StockProfile, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	time.Sleep(10 * time.Millisecond)
	return &models.StockProfile{
		Symbol:  symbol,
		Name:    "Apple Inc.",
		History: []models.PricePoint{{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 185.64}},
	}, nil
}

func TestCachedHistoryLoadsOnce(t *testing.T) {
	up := &countingHistory{}
	mc := cache.NewMemoryCache()
	defer mc.Close()
	h := NewCachedHistory(up, mc, "yahoo", time.Minute, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.History(context.Background(), "AAPL"); err != nil {
				t.Errorf("history: %v", err)
			}
		}()
	}
	wg.Wait()

	p, err := h.History(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if got := up.calls.Load(); got != 1 {
		t.Fatalf("expected 1 upstream call, got %d", got)
	}
	if p.Name != "Apple Inc." || len(p.History) != 1 || p.History[0].Close != 185.64 {
		t.Fatalf("unexpected profile %+v", p)
	}
}

func TestCachedHistoryDoesNotCacheErrors(t *testing.T) {
	boom := errors.New("boom")
	up := &countingHistory{err: boom}
	mc := cache.NewMemoryCache()
	defer mc.Close()
	h := NewCachedHistory(up, mc, "yahoo", time.Minute, nil)

	for i := 0; i < 2; i++ {
		if _, err := h.History(context.Background(), "AAPL"); !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
	}
	if got := up.calls.Load(); got != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", got)
	}
}

func sampleRun(id string, at time.Time) *models.ForecastRun {
	return &models.ForecastRun{
		ID:           id,
		Symbol:       "MSFT",
		CreatedAt:    at,
		TimeStep:     100,
		Epochs:       50,
		FutureSteps:  2,
		Observations: 2500,
		TrainRMSE:    1.5,
		TestRMSE:     3.25,
		FinalLoss:    0.001,
		FinalValLoss: 0.002,
		Duration:     1500 * time.Millisecond,
		Predictions: []models.PredictionPoint{
			{Date: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), PredictedClose: 450.1},
			{Date: time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC), PredictedClose: 451.2},
		},
	}
}

func TestSQLiteRecorderRecent(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()
	ctx := context.Background()
	if err := r.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	base := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := r.Record(ctx, sampleRun(id, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("record %s: %v", id, err)
		}
	}

	runs, err := r.Recent(ctx, "MSFT", 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "c" || runs[1].ID != "b" {
		t.Fatalf("unexpected runs %+v", runs)
	}
	got := runs[0]
	if !got.CreatedAt.Equal(base.Add(2*time.Minute)) || got.Duration != 1500*time.Millisecond {
		t.Fatalf("unexpected timing %v %v", got.CreatedAt, got.Duration)
	}
	if len(got.Predictions) != 2 || got.Predictions[1].PredictedClose != 451.2 ||
		got.Predictions[1].Date.Format(models.DateLayout) != "2024-07-02" {
		t.Fatalf("unexpected predictions %+v", got.Predictions)
	}

	none, err := r.Recent(ctx, "AAPL", 10)
	if err != nil || len(none) != 0 {
		t.Fatalf("expected no runs for AAPL, got %v %v", none, err)
	}
}

type fakeProducer struct {
	topic string
	key   []byte
	value interface{}
}

func (f *fakeProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	f.topic, f.key, f.value = topic, key, value
	return nil
}

func TestKafkaPublisherKeysBySymbol(t *testing.T) {
	fp := &fakeProducer{}
	pub := NewKafkaPublisher(fp, "forecasts")
	run := sampleRun("r1", time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC))
	if err := pub.PublishForecast(context.Background(), run); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if fp.topic != "forecasts" || string(fp.key) != "MSFT" {
		t.Fatalf("unexpected topic/key %q %q", fp.topic, fp.key)
	}
	b, err := json.Marshal(fp.value)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var ev map[string]interface{}
	if err := json.Unmarshal(b, &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev["type"] != "forecast.completed" || ev["id"] != "r1" || ev["duration_ms"] != 1500.0 {
		t.Fatalf("unexpected event %v", ev)
	}
}

type gatedHistory struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (g *gatedHistory) History(ctx context.Context, symbol string) (*models.StockProfile, error) {
	if g.calls.Add(1) == 1 {
		close(g.entered)
	}
	select {
	case <-g.release:
		return &models.StockProfile{Symbol: symbol, Name: "Apple Inc."}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestCachedHistoryCanceledCallerDoesNotFailWaiters(t *testing.T) {
	up := &gatedHistory{entered: make(chan struct{}), release: make(chan struct{})}
	mc := cache.NewMemoryCache()
	defer mc.Close()
	h := NewCachedHistory(up, mc, "yahoo", time.Minute, nil)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := h.History(ctx, "AAPL")
		first <- err
	}()
	<-up.entered

	type result struct {
		p   *models.StockProfile
		err error
	}
	second := make(chan result, 1)
	go func() {
		p, err := h.History(context.Background(), "AAPL")
		second <- result{p, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case err := <-first:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("canceled caller got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("canceled caller still blocked")
	}

	close(up.release)
	select {
	case r := <-second:
		if r.err != nil {
			t.Fatalf("waiting caller failed: %v", r.err)
		}
		if r.p.Name != "Apple Inc." {
			t.Fatalf("unexpected profile %+v", r.p)
		}
	case <-time.After(time.Second):
		t.Fatalf("waiting caller still blocked")
	}
	if got := up.calls.Load(); got != 1 {
		t.Fatalf("expected 1 upstream call, got %d", got)
	}
}
