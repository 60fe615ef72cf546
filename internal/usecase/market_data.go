package usecase

import (
	"context"
	"fmt"
	"time"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	"StockCast/pkg/util"
)

// MarketDataUseCase serves raw provider data to the API.
type MarketDataUseCase struct {
	history  domrepo.HistoryProvider
	intraday domrepo.IntradayProvider
	metrics  domrepo.Metrics
}

func NewMarketDataUseCase(history domrepo.HistoryProvider, intraday domrepo.IntradayProvider, metrics domrepo.Metrics) *MarketDataUseCase {
	return &MarketDataUseCase{history: history, intraday: intraday, metrics: metrics}
}

// History returns the symbol profile with its positive closes in date order.
func (uc *MarketDataUseCase) History(ctx context.Context, symbol string) (*models.StockProfile, error) {
	symbol = util.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	defer uc.observe("history", time.Now())
	profile, err := uc.history.History(ctx, symbol)
	if err != nil {
		return nil, err
	}
	series, err := models.NewPriceSeries(symbol, profile.History)
	if err != nil {
		return nil, err
	}
	if last, ok := series.Last(); ok && uc.metrics != nil {
		uc.metrics.RecordLastClose(symbol, last.Close)
	}
	out := *profile
	out.History = series.Points()
	return &out, nil
}

// Intraday returns the latest intraday quotes for symbol.
func (uc *MarketDataUseCase) Intraday(ctx context.Context, symbol string) ([]models.Quote, error) {
	symbol = util.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if uc.intraday == nil {
		return nil, fmt.Errorf("intraday provider not configured")
	}
	defer uc.observe("intraday", time.Now())
	return uc.intraday.Intraday(ctx, symbol)
}

func (uc *MarketDataUseCase) observe(op string, start time.Time) {
	if uc.metrics != nil {
		uc.metrics.RecordLatency(op, time.Since(start).Seconds())
	}
}
