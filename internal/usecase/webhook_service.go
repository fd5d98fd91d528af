package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/neverMEH/Personabl-Developed/internal/domain/entity"
	domainErrors "github.com/neverMEH/Personabl-Developed/internal/domain/errors"
	"github.com/neverMEH/Personabl-Developed/internal/domain/model"
	"github.com/neverMEH/Personabl-Developed/internal/domain/provider"
	"github.com/neverMEH/Personabl-Developed/internal/domain/repository"
	apperrors "github.com/neverMEH/Personabl-Developed/pkg/errors"
)

// WebhookOutcome is how an acknowledged event was handled.
type WebhookOutcome string

const (
	OutcomeProcessed WebhookOutcome = "processed"
	OutcomeDuplicate WebhookOutcome = "duplicate"
	OutcomeIgnored   WebhookOutcome = "ignored"
	OutcomeStale     WebhookOutcome = "stale"
	OutcomeNotFound  WebhookOutcome = "not_found"
)

// WebhookResult is returned for every acknowledged event.
type WebhookResult struct {
	EventID   string
	EventType string
	Outcome   WebhookOutcome
}

// WebhookOptions configures a WebhookService.
type WebhookOptions struct {
	// AllowUnsigned parses events whose signature is missing or invalid. Never set in production.
	AllowUnsigned bool
	Timeouts      Timeouts
	// Now defaults to time.Now.
	Now func() time.Time
}

// WebhookService verifies provider events and reconciles subscriptions from them.
type WebhookService struct {
	provider provider.BillingProvider
	events   repository.WebhookEventRepository
	coupons  repository.CouponRepository
	identity *IdentityResolver
	catalog  *CatalogMapper
	writer   *SubscriptionWriter
	notifier *ChangeNotifier
	opts     WebhookOptions
	logger   *zap.Logger
}

// NewWebhookService creates a new webhook service
func NewWebhookService(
	billing provider.BillingProvider,
	events repository.WebhookEventRepository,
	coupons repository.CouponRepository,
	identity *IdentityResolver,
	catalog *CatalogMapper,
	writer *SubscriptionWriter,
	notifier *ChangeNotifier,
	opts WebhookOptions,
	logger *zap.Logger,
) *WebhookService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &WebhookService{
		provider: billing,
		events:   events,
		coupons:  coupons,
		identity: identity,
		catalog:  catalog,
		writer:   writer,
		notifier: notifier,
		opts:     opts,
		logger:   logger,
	}
}

// Handle processes one delivery. The returned error is always an *apperrors.AppError
// whose code selects the response status.
func (s *WebhookService) Handle(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	event, err := s.verify(payload, signature)
	if err != nil {
		return nil, err
	}

	logger := s.logger.With(
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
		zap.Time("event_created", event.CreatedAt),
	)
	logger.Info("Webhook event received")

	stored, err := s.record(ctx, event)
	if err != nil {
		return nil, err
	}
	if stored.Status == model.WebhookStatusCompleted {
		logger.Info("Webhook event already processed")
		return &WebhookResult{EventID: event.ID, EventType: event.Type, Outcome: OutcomeDuplicate}, nil
	}

	if err := s.markEvent(ctx, func(ctx context.Context) error {
		return s.events.MarkProcessing(ctx, event.ID)
	}); err != nil {
		return nil, domainErrors.TransientProvider("webhook event log unavailable", err)
	}

	outcome, err := s.dispatch(ctx, event, logger)
	if err != nil {
		err = classify(err)
		apperrors.LogError(logger, err, "Webhook event processing failed")
		// The request context may already be done; the failure still has to be recorded.
		if markErr := s.markEvent(context.WithoutCancel(ctx), func(ctx context.Context) error {
			return s.events.MarkFailed(ctx, event.ID, err.Error())
		}); markErr != nil {
			logger.Warn("Failed to record webhook failure", zap.Error(markErr))
		}
		return nil, err
	}

	if markErr := s.markEvent(ctx, func(ctx context.Context) error {
		return s.events.MarkCompleted(ctx, event.ID)
	}); markErr != nil {
		logger.Warn("Failed to mark webhook event completed", zap.Error(markErr))
	}

	logger.Info("Webhook event handled", zap.String("outcome", string(outcome)))
	return &WebhookResult{EventID: event.ID, EventType: event.Type, Outcome: outcome}, nil
}

func (s *WebhookService) verify(payload []byte, signature string) (*entity.ProviderEvent, error) {
	event, err := s.provider.VerifyEvent(payload, signature)
	if err == nil {
		return event, nil
	}

	if errors.Is(err, provider.ErrInvalidSignature) {
		if !s.opts.AllowUnsigned {
			s.logger.Warn("Webhook signature verification failed",
				zap.Bool("signature_present", signature != ""),
				zap.Error(err))
			return nil, domainErrors.Authentication("webhook signature verification failed", err)
		}

		s.logger.Warn("Accepting unsigned webhook event: unsigned webhooks are enabled",
			zap.Bool("signature_present", signature != ""))
		event, err = s.provider.ParseEvent(payload)
		if err != nil {
			return nil, domainErrors.Validation("invalid webhook payload", err)
		}
		return event, nil
	}

	return nil, domainErrors.Validation("invalid webhook payload", err)
}

func (s *WebhookService) record(ctx context.Context, event *entity.ProviderEvent) (*model.ProviderWebhookEvent, error) {
	ctx, cancel := s.opts.Timeouts.datastore(ctx)
	defer cancel()

	createdAt := event.CreatedAt
	row := &model.ProviderWebhookEvent{
		ProviderEventID:   event.ID,
		EventType:         event.Type,
		Status:            model.WebhookStatusPending,
		Data:              datatypes.JSONMap(event.Data),
		ProviderCreatedAt: &createdAt,
	}
	if event.APIVersion != "" {
		apiVersion := event.APIVersion
		row.APIVersion = &apiVersion
	}

	stored, err := s.events.Record(ctx, row)
	if err != nil {
		return nil, domainErrors.TransientProvider("webhook event log unavailable", err)
	}
	return stored, nil
}

func (s *WebhookService) markEvent(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := s.opts.Timeouts.datastore(ctx)
	defer cancel()
	return fn(ctx)
}

func (s *WebhookService) dispatch(ctx context.Context, event *entity.ProviderEvent, logger *zap.Logger) (WebhookOutcome, error) {
	eventAt := event.CreatedAt

	switch event.Type {
	case entity.EventCheckoutSessionCompleted:
		return s.handleCheckoutCompleted(ctx, event, &eventAt, logger)

	case entity.EventSubscriptionCreated, entity.EventSubscriptionUpdated:
		return s.handleSubscriptionChanged(ctx, event, &eventAt, logger)

	case entity.EventSubscriptionDeleted:
		return s.handleSubscriptionDeleted(ctx, event, &eventAt, logger)

	case entity.EventInvoicePaymentSucceeded:
		return s.handleInvoice(ctx, event, model.PaymentStatusSucceeded, logger)

	case entity.EventInvoicePaymentFailed:
		return s.handleInvoice(ctx, event, model.PaymentStatusFailed, logger)

	default:
		logger.Debug("Unhandled webhook event type")
		return OutcomeIgnored, nil
	}
}

func (s *WebhookService) handleCheckoutCompleted(ctx context.Context, event *entity.ProviderEvent, eventAt *time.Time, logger *zap.Logger) (WebhookOutcome, error) {
	session := event.CheckoutSession
	if session == nil {
		return "", domainErrors.Validation("invalid webhook payload", fmt.Errorf("event carries no checkout session"))
	}
	if session.SubscriptionID == "" {
		logger.Info("Checkout session has no subscription", zap.String("session_id", session.ID))
		return OutcomeIgnored, nil
	}

	providerCtx, cancel := s.opts.Timeouts.provider(ctx)
	ps, err := s.provider.GetSubscription(providerCtx, session.SubscriptionID)
	cancel()
	if err != nil {
		return "", domainErrors.TransientProvider("failed to retrieve subscription", err)
	}

	customerID := session.CustomerID
	if customerID == "" {
		customerID = ps.CustomerID
	}
	email := session.CustomerEmail
	if email == "" {
		email = ps.CustomerEmail
	}

	userID, err := s.identity.Resolve(ctx, customerID, email)
	if err != nil {
		return "", err
	}

	ref, err := s.catalog.Map(ctx, ps.ProductID, ps.PriceID)
	if err != nil {
		return "", err
	}

	couponID, err := s.resolveCoupon(ctx, ps.CouponID, logger)
	if err != nil {
		return "", err
	}

	sub := BuildSubscription(ps, SubscriptionRecord{
		UserID:        userID,
		Catalog:       ref,
		CouponID:      couponID,
		PaymentStatus: paymentStatusFromSession(session.PaymentStatus),
		EventAt:       eventAt,
	})

	result, err := s.writer.Upsert(ctx, sub)
	if err != nil {
		return "", err
	}
	return s.afterWrite(ctx, event, ps.ID, result, logger), nil
}

func (s *WebhookService) handleSubscriptionChanged(ctx context.Context, event *entity.ProviderEvent, eventAt *time.Time, logger *zap.Logger) (WebhookOutcome, error) {
	ps := event.Subscription
	if ps == nil {
		return "", domainErrors.Validation("invalid webhook payload", fmt.Errorf("event carries no subscription"))
	}

	existing, err := s.writer.Get(ctx, ps.ID)
	if err != nil {
		return "", err
	}

	if existing != nil {
		m := MutationFromProvider(ps, eventAt)
		if ps.PriceID != "" {
			ref, err := s.catalog.Map(ctx, ps.ProductID, ps.PriceID)
			if err != nil {
				return "", err
			}
			if ref.PriceID != existing.PriceID || ref.ProductID != existing.ProductID {
				logger.Info("Subscription plan changed",
					zap.String("provider_subscription_id", ps.ID),
					zap.String("provider_price_id", ps.PriceID))
				m.ProductID, m.PriceID = &ref.ProductID, &ref.PriceID
			}
		}
		result, err := s.writer.Update(ctx, ps.ID, m)
		if err != nil {
			return "", err
		}
		return s.afterWrite(ctx, event, ps.ID, result, logger), nil
	}

	userID, err := s.identity.Resolve(ctx, ps.CustomerID, ps.CustomerEmail)
	if err != nil {
		return "", err
	}

	ref, err := s.catalog.Map(ctx, ps.ProductID, ps.PriceID)
	if err != nil {
		return "", err
	}

	couponID, err := s.resolveCoupon(ctx, ps.CouponID, logger)
	if err != nil {
		return "", err
	}

	sub := BuildSubscription(ps, SubscriptionRecord{
		UserID:   userID,
		Catalog:  ref,
		CouponID: couponID,
		EventAt:  eventAt,
	})

	result, err := s.writer.Upsert(ctx, sub)
	if err != nil {
		return "", err
	}
	return s.afterWrite(ctx, event, ps.ID, result, logger), nil
}

func (s *WebhookService) handleSubscriptionDeleted(ctx context.Context, event *entity.ProviderEvent, eventAt *time.Time, logger *zap.Logger) (WebhookOutcome, error) {
	ps := event.Subscription
	if ps == nil {
		return "", domainErrors.Validation("invalid webhook payload", fmt.Errorf("event carries no subscription"))
	}

	result, err := s.writer.Cancel(ctx, ps.ID, s.opts.Now().UTC(), eventAt)
	if err != nil {
		return "", err
	}
	return s.afterWrite(ctx, event, ps.ID, result, logger), nil
}

func (s *WebhookService) handleInvoice(ctx context.Context, event *entity.ProviderEvent, status model.PaymentStatus, logger *zap.Logger) (WebhookOutcome, error) {
	invoice := event.Invoice
	if invoice == nil {
		return "", domainErrors.Validation("invalid webhook payload", fmt.Errorf("event carries no invoice"))
	}
	if invoice.SubscriptionID == "" {
		logger.Info("Invoice is not tied to a subscription", zap.String("invoice_id", invoice.ID))
		return OutcomeIgnored, nil
	}

	result, err := s.writer.SetPaymentStatus(ctx, invoice.SubscriptionID, status)
	if err != nil {
		return "", err
	}
	return s.afterWrite(ctx, event, invoice.SubscriptionID, result, logger), nil
}

// afterWrite maps a write result to an outcome and announces committed changes.
func (s *WebhookService) afterWrite(ctx context.Context, event *entity.ProviderEvent, providerSubscriptionID string, result repository.WriteResult, logger *zap.Logger) WebhookOutcome {
	switch result {
	case repository.WriteMissing:
		logger.Info("No local subscription for event; ignored",
			zap.String("provider_subscription_id", providerSubscriptionID))
		return OutcomeNotFound
	case repository.WriteStale:
		logger.Info("Subscription already reflects a newer event; ignored",
			zap.String("provider_subscription_id", providerSubscriptionID))
		return OutcomeStale
	}

	if s.notifier != nil {
		sub, err := s.writer.Get(ctx, providerSubscriptionID)
		if err != nil {
			logger.Warn("Failed to load subscription for change notification", zap.Error(err))
		} else {
			s.notifier.SubscriptionChanged(ctx, event.Type, sub)
		}
	}
	return OutcomeProcessed
}

// resolveCoupon maps a provider coupon to a local coupon. Unknown coupons are not an error.
func (s *WebhookService) resolveCoupon(ctx context.Context, providerCouponID string, logger *zap.Logger) (*uuid.UUID, error) {
	if providerCouponID == "" {
		return nil, nil
	}

	ctx, cancel := s.opts.Timeouts.datastore(ctx)
	defer cancel()

	coupon, err := s.coupons.GetByProviderCouponID(ctx, providerCouponID)
	if err != nil {
		return nil, domainErrors.TransientProvider("coupon lookup failed", err)
	}
	if coupon == nil {
		logger.Warn("Provider coupon has no local coupon", zap.String("provider_coupon_id", providerCouponID))
		return nil, nil
	}
	return &coupon.ID, nil
}

func paymentStatusFromSession(status string) *model.PaymentStatus {
	var ps model.PaymentStatus
	switch status {
	case "paid", "no_payment_required":
		ps = model.PaymentStatusSucceeded
	case "unpaid":
		ps = model.PaymentStatusPending
	default:
		return nil
	}
	return &ps
}

// classify makes sure every error carries a taxonomy code; uncoded errors are transient.
func classify(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return domainErrors.TransientProvider("webhook processing failed", err)
}
