package entity

import "time"

// Provider event types handled by the webhook.
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventSubscriptionCreated      = "customer.subscription.created"
	EventSubscriptionUpdated      = "customer.subscription.updated"
	EventSubscriptionDeleted      = "customer.subscription.deleted"
	EventInvoicePaymentSucceeded  = "invoice.payment_succeeded"
	EventInvoicePaymentFailed     = "invoice.payment_failed"
)

// ProviderEvent is a verified provider event with its object decoded by type.
// Exactly one of Subscription, CheckoutSession and Invoice is set for handled types.
type ProviderEvent struct {
	ID         string
	Type       string
	APIVersion string
	CreatedAt  time.Time
	Livemode   bool
	Data       map[string]interface{}

	Subscription    *ProviderSubscription
	CheckoutSession *CheckoutSession
	Invoice         *Invoice
}

// ProviderSubscription is the provider's subscription object.
// Timestamps are UTC; a null or zero provider timestamp is nil.
type ProviderSubscription struct {
	ID                 string
	CustomerID         string
	CustomerEmail      string
	Status             string
	ProductID          string
	PriceID            string
	CouponID           string
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	TrialStart         *time.Time
	TrialEnd           *time.Time
	CanceledAt         *time.Time
	CancelAtPeriodEnd  bool
	Metadata           map[string]string
}

// CheckoutSession is the provider's checkout session object.
type CheckoutSession struct {
	ID                string
	Mode              string
	CustomerID        string
	CustomerEmail     string
	SubscriptionID    string
	ClientReferenceID string
	PaymentStatus     string
	Metadata          map[string]string
}

// Invoice is the provider's invoice object.
type Invoice struct {
	ID             string
	CustomerID     string
	CustomerEmail  string
	SubscriptionID string
}
