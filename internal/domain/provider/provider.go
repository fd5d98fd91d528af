package provider

import (
	"context"
	"errors"

	"github.com/neverMEH/Personabl-Developed/internal/domain/entity"
)

var (
	// ErrInvalidSignature is returned when a webhook signature is missing or does not verify.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrMalformedEvent is returned when a webhook body or its object cannot be decoded.
	ErrMalformedEvent = errors.New("malformed webhook event")
)

// BillingProvider is the payments provider seen by the use cases.
type BillingProvider interface {
	// CreateCustomer creates a billing customer and returns its provider id.
	CreateCustomer(ctx context.Context, req *entity.CreateCustomerRequest) (string, error)

	// CreateCheckoutSession creates a subscription-mode hosted checkout session.
	CreateCheckoutSession(ctx context.Context, req *entity.CheckoutSessionRequest) (*entity.CheckoutSessionResult, error)

	// CreatePortalSession returns the self-service billing portal URL for a customer.
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)

	// GetSubscription retrieves a subscription with its items and discount.
	GetSubscription(ctx context.Context, subscriptionID string) (*entity.ProviderSubscription, error)

	// SetCancelAtPeriodEnd schedules or withdraws cancellation at period end.
	SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) error

	// ListActiveCatalog lists active products with their active recurring prices.
	ListActiveCatalog(ctx context.Context) ([]*entity.CatalogProduct, error)

	// VerifyEvent checks the signature over payload and decodes the event.
	VerifyEvent(payload []byte, signature string) (*entity.ProviderEvent, error)

	// ParseEvent decodes payload without checking any signature.
	ParseEvent(payload []byte) (*entity.ProviderEvent, error)

	// GetProviderName returns the provider name
	GetProviderName() string
}
