package stripe

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"go.uber.org/zap"

	"github.com/neverMEH/Personabl-Developed/internal/domain/entity"
	"github.com/neverMEH/Personabl-Developed/internal/domain/provider"
)

const providerName = "stripe"

// Config holds what a StripeProvider needs.
type Config struct {
	SecretKey     string
	WebhookSecret string
	// APIURL overrides the API base URL, e.g. for stripe-mock.
	APIURL string
	// Timeout bounds every HTTP call made by the client.
	Timeout time.Duration
}

// StripeProvider implements provider.BillingProvider with its own client.API.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
	logger        *zap.Logger
}

var _ provider.BillingProvider = (*StripeProvider)(nil)

// NewStripeProvider creates a provider with a dedicated client. Retries are disabled;
// the webhook relies on provider redelivery instead.
func NewStripeProvider(cfg Config, logger *zap.Logger) *StripeProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	backendConfig := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     logger.Named("stripe").Sugar(),
	}
	if cfg.APIURL != "" {
		backendConfig.URL = stripe.String(cfg.APIURL)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig)

	api := &client.API{}
	api.Init(cfg.SecretKey, &stripe.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	})

	return &StripeProvider{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
		logger:        logger,
	}
}

// GetProviderName returns the provider name
func (s *StripeProvider) GetProviderName() string {
	return providerName
}

func (s *StripeProvider) CreateCustomer(ctx context.Context, req *entity.CreateCustomerRequest) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(req.Email),
	}
	if req.Name != "" {
		params.Name = stripe.String(req.Name)
	}
	params.AddMetadata("user_id", req.UserID)
	params.Context = ctx

	customer, err := s.api.Customers.New(params)
	if err != nil {
		s.logger.Error("Failed to create Stripe customer",
			zap.String("user_id", req.UserID),
			zap.Error(err))
		return "", fmt.Errorf("failed to create customer: %w", err)
	}

	s.logger.Info("Created Stripe customer",
		zap.String("user_id", req.UserID),
		zap.String("customer_id", customer.ID))
	return customer.ID, nil
}

func (s *StripeProvider) CreateCheckoutSession(ctx context.Context, req *entity.CheckoutSessionRequest) (*entity.CheckoutSessionResult, error) {
	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(req.CustomerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.UserID),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"user_id": req.UserID},
		},
	}
	if req.CouponID != "" {
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{
			{Coupon: stripe.String(req.CouponID)},
		}
	} else {
		params.AllowPromotionCodes = stripe.Bool(true)
	}
	params.AddMetadata("user_id", req.UserID)
	params.Context = ctx

	session, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		s.logger.Error("Failed to create checkout session",
			zap.String("user_id", req.UserID),
			zap.String("price_id", req.PriceID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &entity.CheckoutSessionResult{ID: session.ID, URL: session.URL}, nil
}

func (s *StripeProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	session, err := s.api.BillingPortalSessions.New(params)
	if err != nil {
		s.logger.Error("Failed to create portal session",
			zap.String("customer_id", customerID),
			zap.Error(err))
		return "", fmt.Errorf("failed to create portal session: %w", err)
	}
	return session.URL, nil
}

func (s *StripeProvider) GetSubscription(ctx context.Context, subscriptionID string) (*entity.ProviderSubscription, error) {
	params := &stripe.SubscriptionParams{}
	params.AddExpand("customer")
	params.Context = ctx

	sub, err := s.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		s.logger.Error("Failed to retrieve subscription",
			zap.String("subscription_id", subscriptionID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve subscription %s: %w", subscriptionID, err)
	}
	return toProviderSubscription(sub), nil
}

func (s *StripeProvider) SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) error {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(cancel),
	}
	params.Context = ctx

	if _, err := s.api.Subscriptions.Update(subscriptionID, params); err != nil {
		s.logger.Error("Failed to update subscription cancellation",
			zap.String("subscription_id", subscriptionID),
			zap.Bool("cancel_at_period_end", cancel),
			zap.Error(err))
		return fmt.Errorf("failed to update subscription %s: %w", subscriptionID, err)
	}
	return nil
}

func (s *StripeProvider) ListActiveCatalog(ctx context.Context) ([]*entity.CatalogProduct, error) {
	productParams := &stripe.ProductListParams{Active: stripe.Bool(true)}
	productParams.Context = ctx

	var products []*entity.CatalogProduct
	productIter := s.api.Products.List(productParams)
	for productIter.Next() {
		prod := productIter.Product()
		item := &entity.CatalogProduct{
			ProviderProductID: prod.ID,
			Name:              prod.Name,
			Description:       prod.Description,
			Active:            prod.Active,
		}

		priceParams := &stripe.PriceListParams{
			Product: stripe.String(prod.ID),
			Active:  stripe.Bool(true),
			Type:    stripe.String(string(stripe.PriceTypeRecurring)),
		}
		priceParams.Context = ctx

		priceIter := s.api.Prices.List(priceParams)
		for priceIter.Next() {
			if p := toCatalogPrice(priceIter.Price()); p != nil {
				item.Prices = append(item.Prices, *p)
			}
		}
		if err := priceIter.Err(); err != nil {
			return nil, fmt.Errorf("error listing prices for %s: %w", prod.ID, err)
		}

		products = append(products, item)
	}
	if err := productIter.Err(); err != nil {
		return nil, fmt.Errorf("error listing products: %w", err)
	}

	return products, nil
}

func toCatalogPrice(p *stripe.Price) *entity.CatalogPrice {
	if p == nil || p.Recurring == nil {
		return nil
	}
	return &entity.CatalogPrice{
		ProviderPriceID: p.ID,
		UnitAmount:      p.UnitAmount,
		Currency:        string(p.Currency),
		Interval:        string(p.Recurring.Interval),
		TrialPeriodDays: p.Recurring.TrialPeriodDays,
		Active:          p.Active,
	}
}
