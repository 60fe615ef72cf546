package forecast

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// MinMaxScaler maps values linearly onto [0,1] using the range it was fit on.
type MinMaxScaler struct {
	Min float64
	Max float64
}

// FitScaler computes the range of values. It fails on an empty input and on
// a constant one.
func FitScaler(values []float64) (*MinMaxScaler, error) {
	if len(values) == 0 {
		return nil, ErrEmptySeries
	}
	lo, hi := floats.Min(values), floats.Max(values)
	if hi == lo {
		return nil, fmt.Errorf("fit scaler: all %d values equal %g: %w", len(values), lo, ErrDegenerateRange)
	}
	return &MinMaxScaler{Min: lo, Max: hi}, nil
}

func (s *MinMaxScaler) span() float64 { return s.Max - s.Min }

func (s *MinMaxScaler) Transform(x float64) float64 { return (x - s.Min) / s.span() }

func (s *MinMaxScaler) Inverse(y float64) float64 { return y*s.span() + s.Min }

// TransformAll returns a scaled copy of values.
func (s *MinMaxScaler) TransformAll(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	floats.AddConst(-s.Min, out)
	floats.Scale(1/s.span(), out)
	return out
}

// InverseAll returns values mapped back to the original scale.
func (s *MinMaxScaler) InverseAll(scaled []float64) []float64 {
	out := make([]float64, len(scaled))
	for i, y := range scaled {
		out[i] = s.Inverse(y)
	}
	return out
}
