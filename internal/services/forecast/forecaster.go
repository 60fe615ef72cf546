package forecast

import "fmt"

// Predictor maps one scaled input window to the next scaled value.
type Predictor interface {
	Predict(input []float64) float64
}

// Forecast rolls the predictor forward steps times, seeding the window with
// the last timeStep values of scaled and feeding each prediction back in.
// Results are on the scaled axis.
func Forecast(p Predictor, scaled []float64, timeStep, steps int) ([]float64, error) {
	win, err := NewForecastWindow(scaled, timeStep)
	if err != nil {
		return nil, fmt.Errorf("forecast: have %d values, time step %d: %w", len(scaled), timeStep, err)
	}
	out := make([]float64, 0, max(steps, 0))
	input := make([]float64, timeStep)
	for i := 0; i < steps; i++ {
		input = win.Values(input)
		next := p.Predict(input)
		out = append(out, next)
		win.Push(next)
	}
	return out, nil
}
