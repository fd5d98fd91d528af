package usecase

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainErrors "github.com/neverMEH/Personabl-Developed/internal/domain/errors"
	"github.com/neverMEH/Personabl-Developed/internal/domain/model"
	"github.com/neverMEH/Personabl-Developed/internal/domain/provider"
	"github.com/neverMEH/Personabl-Developed/internal/domain/repository"
	apperrors "github.com/neverMEH/Personabl-Developed/pkg/errors"
)

// activeStatuses are the statuses a user is considered subscribed in.
var activeStatuses = []model.SubscriptionStatus{
	model.SubscriptionStatusTrialing,
	model.SubscriptionStatusActive,
}

// SubscriptionService serves the user's own subscriptions. Local rows only change
// through provider events; cancel and reactivate ask the provider and wait for the webhook.
type SubscriptionService struct {
	subs     repository.SubscriptionRepository
	provider provider.BillingProvider
	timeouts Timeouts
	logger   *zap.Logger
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(subs repository.SubscriptionRepository, billing provider.BillingProvider, timeouts Timeouts, logger *zap.Logger) *SubscriptionService {
	return &SubscriptionService{
		subs:     subs,
		provider: billing,
		timeouts: timeouts,
		logger:   logger,
	}
}

// ListActive returns the user's trialing and active subscriptions, newest first.
func (s *SubscriptionService) ListActive(ctx context.Context, userID uuid.UUID) ([]*model.Subscription, error) {
	ctx, cancel := s.timeouts.datastore(ctx)
	defer cancel()

	subs, err := s.subs.ListByUser(ctx, userID, activeStatuses)
	if err != nil {
		return nil, domainErrors.TransientProvider("failed to list subscriptions", err)
	}
	return subs, nil
}

// Cancel schedules cancellation at the end of the current period.
func (s *SubscriptionService) Cancel(ctx context.Context, userID, subscriptionID uuid.UUID) error {
	return s.setCancelAtPeriodEnd(ctx, userID, subscriptionID, true)
}

// Reactivate withdraws a scheduled cancellation.
func (s *SubscriptionService) Reactivate(ctx context.Context, userID, subscriptionID uuid.UUID) error {
	return s.setCancelAtPeriodEnd(ctx, userID, subscriptionID, false)
}

func (s *SubscriptionService) setCancelAtPeriodEnd(ctx context.Context, userID, subscriptionID uuid.UUID, cancelAtPeriodEnd bool) error {
	dbCtx, cancel := s.timeouts.datastore(ctx)
	sub, err := s.subs.GetByID(dbCtx, subscriptionID)
	cancel()
	if err != nil {
		return domainErrors.TransientProvider("failed to load subscription", err)
	}
	if sub == nil || sub.UserID != userID {
		return apperrors.NewAppError(apperrors.ErrNotFound, "subscription not found", domainErrors.ErrSubscriptionNotFound)
	}
	if sub.Status == model.SubscriptionStatusCanceled {
		return domainErrors.Validation("subscription is already canceled", nil)
	}

	providerCtx, cancel := s.timeouts.provider(ctx)
	defer cancel()

	if err := s.provider.SetCancelAtPeriodEnd(providerCtx, sub.ProviderSubscriptionID, cancelAtPeriodEnd); err != nil {
		return domainErrors.TransientProvider("failed to update subscription", err)
	}

	s.logger.Info("Requested subscription cancellation change",
		zap.String("user_id", userID.String()),
		zap.String("provider_subscription_id", sub.ProviderSubscriptionID),
		zap.Bool("cancel_at_period_end", cancelAtPeriodEnd))
	return nil
}
