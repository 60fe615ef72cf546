package forecast

import (
	"math"
	"testing"
)

func TestRMSE(t *testing.T) {
	s := &MinMaxScaler{Min: 10, Max: 20}
	actual := []float64{0, 0.5, 1}

	got, err := RMSE(actual, actual, s)
	if err != nil || got != 0 {
		t.Fatalf("identical inputs: got %g, %v", got, err)
	}

	// Errors of 0.1 on the scaled axis are 1.0 in price units.
	got, err = RMSE(actual, []float64{0.1, 0.4, 1.1}, s)
	if err != nil {
		t.Fatalf("rmse: %v", err)
	}
	if math.Abs(got-1) > 1e-9 {
		t.Fatalf("got %g want 1", got)
	}

	if _, err := RMSE(actual, actual[:2], s); err == nil {
		t.Fatalf("expected length mismatch error")
	}
	if _, err := RMSE(nil, nil, s); err == nil {
		t.Fatalf("expected error for empty input")
	}
}
