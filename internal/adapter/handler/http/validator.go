package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	domainErrors "github.com/neverMEH/Personabl-Developed/internal/domain/errors"
)

// RequestValidator plugs go-playground/validator into echo.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator creates a new request validator
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate implements echo.Validator.
func (v *RequestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return domainErrors.Validation("invalid request", err)
	}
	return nil
}

// bindAndValidate binds the request body into req and validates it.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return domainErrors.Validation("invalid request body", err)
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	return nil
}
