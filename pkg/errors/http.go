package errors

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ToHTTPError converts err to an echo error carrying only the caller-safe message.
func ToHTTPError(err error) *echo.HTTPError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if As(err, &appErr) {
		return echo.NewHTTPError(ToHTTPStatus(appErr.Code()), appErr.Message())
	}

	if echoErr, ok := err.(*echo.HTTPError); ok {
		return echoErr
	}

	return echo.NewHTTPError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

// JSON writes err as {"error": message, "code": code}.
func JSON(c echo.Context, err error) error {
	code := CodeOf(err)
	return c.JSON(ToHTTPStatus(code), echo.Map{
		"error": MessageOf(err),
		"code":  code,
	})
}
