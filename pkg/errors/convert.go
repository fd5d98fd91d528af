package errors

import "net/http"

var httpStatusByCode = map[string]int{
	ErrInternal:         http.StatusInternalServerError,
	ErrNotFound:         http.StatusNotFound,
	ErrInvalidArgument:  http.StatusBadRequest,
	ErrUnauthenticated:  http.StatusUnauthorized,
	ErrUnauthorized:     http.StatusForbidden,
	ErrConflict:         http.StatusConflict,
	ErrTimeout:          http.StatusInternalServerError,
	ErrUnavailable:      http.StatusInternalServerError,
	ErrResolutionFailed: http.StatusInternalServerError,
	ErrCatalogMismatch:  http.StatusInternalServerError,
	ErrCheckoutFailed:   http.StatusInternalServerError,
	ErrPortalFailed:     http.StatusInternalServerError,
	ErrNoCustomer:       http.StatusNotFound,
}

// ToHTTPStatus returns the HTTP status for code, defaulting to 500.
func ToHTTPStatus(code string) int {
	if status, ok := httpStatusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// CodeOf returns the code of the first AppError in err's chain, or ErrInternal.
func CodeOf(err error) string {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr.Code()
	}
	return ErrInternal
}

// MessageOf returns the caller-safe message of the first AppError in err's chain.
func MessageOf(err error) string {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr.Message()
	}
	return http.StatusText(http.StatusInternalServerError)
}
