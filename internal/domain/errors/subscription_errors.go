// Package errors defines the reconciliation error taxonomy.
package errors

import (
	"errors"

	apperrors "github.com/neverMEH/Personabl-Developed/pkg/errors"
)

var (
	// ErrProfileNotFound indicates that no profile matched the customer or email.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrProductNotFound indicates that a provider product is missing from the catalog.
	ErrProductNotFound = errors.New("product not found")

	// ErrPriceNotFound indicates that a provider price is missing from the catalog.
	ErrPriceNotFound = errors.New("price not found")

	// ErrPriceInactive indicates that checkout was requested for an inactive price.
	ErrPriceInactive = errors.New("price is not active")

	// ErrCouponInvalid indicates that a coupon code is unknown, inactive, expired or exhausted.
	ErrCouponInvalid = errors.New("coupon is not valid")

	// ErrSubscriptionNotFound indicates that the specified subscription was not found
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrInvalidPeriod indicates current_period_end before current_period_start.
	ErrInvalidPeriod = errors.New("current period ends before it starts")
)

// Authentication marks a missing or invalid credential or webhook signature.
func Authentication(message string, cause error) error {
	return apperrors.NewAppError(apperrors.ErrUnauthenticated, message, cause)
}

// Validation marks a malformed request or event payload.
func Validation(message string, cause error) error {
	return apperrors.NewAppError(apperrors.ErrInvalidArgument, message, cause)
}

// Resolution marks an identity that could not be resolved to a profile.
func Resolution(message string, cause error) error {
	return apperrors.NewAppError(apperrors.ErrResolutionFailed, message, cause)
}

// ReferentialIntegrity marks a provider catalog reference missing locally.
func ReferentialIntegrity(message string, cause error) error {
	return apperrors.NewAppError(apperrors.ErrCatalogMismatch, message, cause)
}

// TransientProvider marks a timeout or network failure talking to the datastore or provider.
func TransientProvider(message string, cause error) error {
	return apperrors.NewAppError(apperrors.ErrUnavailable, message, cause)
}
