package forecast

import "math"

// AdamConfig holds the optimizer hyperparameters.
type AdamConfig struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64
}

// DefaultAdam returns lr 0.001, β1 0.9, β2 0.999, ε 1e-7.
func DefaultAdam() AdamConfig {
	return AdamConfig{LearningRate: 0.001, Beta1: 0.9, Beta2: 0.999, Epsilon: 1e-7}
}

type adam struct {
	cfg  AdamConfig
	m, v []float64
	step int
}

func newAdam(cfg AdamConfig, size int) *adam {
	return &adam{cfg: cfg, m: make([]float64, size), v: make([]float64, size)}
}

// apply takes one bias-corrected step on params along grad.
func (a *adam) apply(params, grad []float64) {
	a.step++
	c := a.cfg
	t := float64(a.step)
	lr := c.LearningRate * math.Sqrt(1-math.Pow(c.Beta2, t)) / (1 - math.Pow(c.Beta1, t))
	for i, g := range grad {
		a.m[i] = c.Beta1*a.m[i] + (1-c.Beta1)*g
		a.v[i] = c.Beta2*a.v[i] + (1-c.Beta2)*g*g
		params[i] -= lr * a.m[i] / (math.Sqrt(a.v[i]) + c.Epsilon)
	}
}
