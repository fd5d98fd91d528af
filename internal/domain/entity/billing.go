package entity

// CreateCustomerRequest asks the provider for a new billing customer.
type CreateCustomerRequest struct {
	UserID string
	Email  string
	Name   string
}

// CheckoutSessionRequest asks the provider for a subscription-mode hosted checkout.
type CheckoutSessionRequest struct {
	UserID     string
	CustomerID string
	PriceID    string
	SuccessURL string
	CancelURL  string
	// CouponID is a provider coupon id; empty allows promotion codes instead.
	CouponID string
}

// CheckoutSessionResult is what the browser needs to redirect.
type CheckoutSessionResult struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CatalogProduct is an active provider product with its active recurring prices.
type CatalogProduct struct {
	ProviderProductID string
	Name              string
	Description       string
	Active            bool
	Prices            []CatalogPrice
}

// CatalogPrice is a provider recurring price. UnitAmount is in the smallest currency unit.
type CatalogPrice struct {
	ProviderPriceID string
	UnitAmount      int64
	Currency        string
	Interval        string
	TrialPeriodDays int64
	Active          bool
}
