package errors

// Error codes shared by every layer. The code decides the transport status.
const (
	ErrInternal        = "INTERNAL"
	ErrNotFound        = "NOT_FOUND"
	ErrInvalidArgument = "INVALID_ARGUMENT"
	ErrUnauthenticated = "UNAUTHENTICATED"
	ErrUnauthorized    = "UNAUTHORIZED"
	ErrConflict        = "CONFLICT"
	ErrTimeout         = "TIMEOUT"
	ErrUnavailable     = "UNAVAILABLE"

	// Reconciliation failures. All of them ask the provider to redeliver.
	ErrResolutionFailed = "RESOLUTION_FAILED"
	ErrCatalogMismatch  = "CATALOG_MISMATCH"

	// User-facing flow failures.
	ErrCheckoutFailed = "CHECKOUT_FAILED"
	ErrPortalFailed   = "PORTAL_FAILED"
	ErrNoCustomer     = "NO_CUSTOMER"
)
