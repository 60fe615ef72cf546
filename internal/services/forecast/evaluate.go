package forecast

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

var errLengthMismatch = errors.New("length mismatch")

// RMSE computes the root-mean-squared error between actual and predicted
// after mapping both back to the original price scale.
func RMSE(actualScaled, predictedScaled []float64, scaler *MinMaxScaler) (float64, error) {
	if len(actualScaled) != len(predictedScaled) {
		return 0, fmt.Errorf("rmse: %d actual vs %d predicted: %w", len(actualScaled), len(predictedScaled), errLengthMismatch)
	}
	if len(actualScaled) == 0 {
		return 0, fmt.Errorf("rmse: %w", ErrEmptyPartition)
	}
	a := scaler.InverseAll(actualScaled)
	p := scaler.InverseAll(predictedScaled)
	return floats.Distance(a, p, 2) / math.Sqrt(float64(len(a))), nil
}
