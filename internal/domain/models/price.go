package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrEmptySeries is returned when a price history has no usable observations.
var ErrEmptySeries = errors.New("empty price series")

// PricePoint is one daily closing observation.
type PricePoint struct {
	Date  time.Time
	Close float64
}

// PriceSeries is an ordered, immutable closing-price history for one symbol.
type PriceSeries struct {
	symbol string
	points []PricePoint
}

// NewPriceSeries validates ordering and drops non-positive closes, so the
// series starts at the first valid observation.
func NewPriceSeries(symbol string, points []PricePoint) (*PriceSeries, error) {
	kept := make([]PricePoint, 0, len(points))
	for _, p := range points {
		if p.Close <= 0 {
			continue
		}
		if n := len(kept); n > 0 && !p.Date.After(kept[n-1].Date) {
			return nil, fmt.Errorf("series %s: date %s not after %s",
				symbol, p.Date.Format(DateLayout), kept[n-1].Date.Format(DateLayout))
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("series %s: %w", symbol, ErrEmptySeries)
	}
	return &PriceSeries{symbol: symbol, points: kept}, nil
}

func (s *PriceSeries) Symbol() string { return s.symbol }

func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.points)
}

// Values returns a copy of the closing prices.
func (s *PriceSeries) Values() []float64 {
	out := make([]float64, s.Len())
	for i := range out {
		out[i] = s.points[i].Close
	}
	return out
}

// Points returns a copy of the observations.
func (s *PriceSeries) Points() []PricePoint {
	out := make([]PricePoint, s.Len())
	copy(out, s.points)
	return out
}

// Last returns the most recent observation. ok is false for an empty series.
func (s *PriceSeries) Last() (p PricePoint, ok bool) {
	if s.Len() == 0 {
		return PricePoint{}, false
	}
	return s.points[len(s.points)-1], true
}

// Tail returns a series holding at most the last n observations.
func (s *PriceSeries) Tail(n int) *PriceSeries {
	if n <= 0 || n >= s.Len() {
		return s
	}
	return &PriceSeries{symbol: s.symbol, points: s.points[len(s.points)-n:]}
}

// StockProfile is the historical view of a symbol.
type StockProfile struct {
	Symbol   string
	Name     string
	Sector   string
	Industry string
	History  []PricePoint
}

// Quote is one intraday price tick.
type Quote struct {
	Time  string
	Price float64
}
