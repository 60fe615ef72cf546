package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// SuccessResponse writes data as the bare JSON body with status 200.
func SuccessResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

// AppErrorResponse writes err as {"error", "code"} with the error's status.
// Errors that are not AppErrors become a generic 500.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return c.JSON(appErr.Status, appErr)
	}
	return c.JSON(http.StatusInternalServerError, InternalError("Something went wrong"))
}

// HTTPErrorHandler renders errors that reach echo (unknown routes, bad
// methods, errors returned by handlers) in the same JSON shape.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		}
		code := "ERR_HTTP_" + strconv.Itoa(he.Code)
		if he.Code == http.StatusNotFound {
			code = "ERR_NOT_FOUND"
		}
		_ = c.JSON(he.Code, NewAppError(code, msg, he.Code))
		return
	}
	_ = AppErrorResponse(c, err)
}
