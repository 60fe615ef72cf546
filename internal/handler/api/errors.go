package api

import (
	"context"
	"errors"
	"net/http"

	domrepo "StockCast/internal/domain/repository"
	"StockCast/internal/services/forecast"
	xhttp "StockCast/pkg/http"
)

// StatusClientClosedRequest is reported when the caller went away before the
// forecast finished. Nothing reads the response; the status shows up in logs
// and metrics only.
const StatusClientClosedRequest = 499

// MapForecastError converts domain and provider errors into API errors.
func MapForecastError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var fetchErr *domrepo.FetchError

	switch {
	case errors.Is(err, domrepo.ErrNotFound):
		return xhttp.NotFoundError(err.Error()).WithError(err)
	case errors.Is(err, forecast.ErrEmptySeries):
		return xhttp.NewAppError("ERR_EMPTY_SERIES", err.Error(), http.StatusNotFound).WithError(err)
	case errors.Is(err, forecast.ErrInsufficientData):
		return xhttp.UnprocessableError("ERR_INSUFFICIENT_DATA", err.Error()).WithError(err)
	case errors.Is(err, forecast.ErrEmptyPartition):
		return xhttp.UnprocessableError("ERR_EMPTY_PARTITION", err.Error()).WithError(err)
	case errors.Is(err, forecast.ErrDegenerateRange):
		return xhttp.UnprocessableError("ERR_DEGENERATE_RANGE", err.Error()).WithError(err)
	case errors.Is(err, forecast.ErrInsufficientHistory):
		return xhttp.UnprocessableError("ERR_INSUFFICIENT_HISTORY", err.Error()).WithError(err)
	case errors.Is(err, context.Canceled):
		return xhttp.NewAppError("ERR_CLIENT_CLOSED", "request canceled", StatusClientClosedRequest).WithError(err)
	case errors.As(err, &fetchErr):
		return xhttp.BadGatewayError(err.Error()).WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.NewAppError("ERR_TIMEOUT", "forecast timed out", http.StatusGatewayTimeout).WithError(err)
	default:
		return xhttp.InternalError(err.Error()).WithError(err)
	}
}
