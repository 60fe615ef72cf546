package forecast

import (
	"errors"

	"StockCast/internal/domain/models"
)

var (
	// ErrEmptySeries: the input series has no observations.
	ErrEmptySeries = models.ErrEmptySeries
	// ErrInsufficientData: fewer than time_step+2 observations, so no window exists.
	ErrInsufficientData = errors.New("insufficient data for time step")
	// ErrEmptyPartition: the split left the train or test partition empty.
	ErrEmptyPartition = errors.New("empty train or test partition")
	// ErrDegenerateRange: all values are identical and cannot be min-max scaled.
	ErrDegenerateRange = errors.New("degenerate value range")
	// ErrInsufficientHistory: fewer than time_step values to seed the forecast window.
	ErrInsufficientHistory = errors.New("insufficient history to seed forecast")
)
