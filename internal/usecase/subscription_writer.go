package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neverMEH/Personabl-Developed/internal/domain/entity"
	domainErrors "github.com/neverMEH/Personabl-Developed/internal/domain/errors"
	"github.com/neverMEH/Personabl-Developed/internal/domain/model"
	"github.com/neverMEH/Personabl-Developed/internal/domain/repository"
)

// SubscriptionRecord is everything needed to create a subscription row.
type SubscriptionRecord struct {
	UserID        uuid.UUID
	Catalog       *CatalogRef
	CouponID      *uuid.UUID
	PaymentStatus *model.PaymentStatus
	// EventAt is the provider creation time of the event the record comes from.
	EventAt *time.Time
}

// BuildSubscription normalizes a provider subscription into a row.
func BuildSubscription(ps *entity.ProviderSubscription, rec SubscriptionRecord) *model.Subscription {
	return &model.Subscription{
		UserID:                 rec.UserID,
		ProductID:              rec.Catalog.ProductID,
		PriceID:                rec.Catalog.PriceID,
		ProviderSubscriptionID: ps.ID,
		Status:                 model.SubscriptionStatus(ps.Status),
		TrialStart:             ps.TrialStart,
		TrialEnd:               ps.TrialEnd,
		CurrentPeriodStart:     ps.CurrentPeriodStart,
		CurrentPeriodEnd:       ps.CurrentPeriodEnd,
		CancelAtPeriodEnd:      ps.CancelAtPeriodEnd,
		CanceledAt:             ps.CanceledAt,
		PaymentStatus:          rec.PaymentStatus,
		CouponID:               rec.CouponID,
		LastEventAt:            rec.EventAt,
	}
}

// MutationFromProvider extracts the mutable fields of a provider subscription.
// Payment status is not part of the subscription object and stays unchanged.
func MutationFromProvider(ps *entity.ProviderSubscription, eventAt *time.Time) repository.SubscriptionMutation {
	return repository.SubscriptionMutation{
		Status:             model.SubscriptionStatus(ps.Status),
		TrialStart:         ps.TrialStart,
		TrialEnd:           ps.TrialEnd,
		CurrentPeriodStart: ps.CurrentPeriodStart,
		CurrentPeriodEnd:   ps.CurrentPeriodEnd,
		CancelAtPeriodEnd:  ps.CancelAtPeriodEnd,
		CanceledAt:         ps.CanceledAt,
		EventAt:            eventAt,
	}
}

// SubscriptionWriter performs idempotent subscription writes.
type SubscriptionWriter struct {
	subs     repository.SubscriptionRepository
	timeouts Timeouts
	logger   *zap.Logger
}

// NewSubscriptionWriter creates a new subscription writer
func NewSubscriptionWriter(subs repository.SubscriptionRepository, timeouts Timeouts, logger *zap.Logger) *SubscriptionWriter {
	return &SubscriptionWriter{
		subs:     subs,
		timeouts: timeouts,
		logger:   logger,
	}
}

// Get returns the row for a provider subscription id, or nil.
func (w *SubscriptionWriter) Get(ctx context.Context, providerSubscriptionID string) (*model.Subscription, error) {
	ctx, cancel := w.timeouts.datastore(ctx)
	defer cancel()

	sub, err := w.subs.GetByProviderID(ctx, providerSubscriptionID)
	if err != nil {
		return nil, domainErrors.TransientProvider("subscription lookup failed", err)
	}
	return sub, nil
}

// Upsert inserts sub or, when its provider id exists, applies its mutable fields.
func (w *SubscriptionWriter) Upsert(ctx context.Context, sub *model.Subscription) (repository.WriteResult, error) {
	if err := validateMutation(repository.MutationOf(sub)); err != nil {
		return 0, err
	}

	ctx, cancel := w.timeouts.datastore(ctx)
	defer cancel()

	result, err := w.subs.Upsert(ctx, sub)
	if err != nil {
		return 0, domainErrors.TransientProvider("subscription write failed", err)
	}

	w.logger.Info("Subscription upserted",
		zap.String("provider_subscription_id", sub.ProviderSubscriptionID),
		zap.String("status", string(sub.Status)),
		zap.Stringer("result", result))
	return result, nil
}

// Update applies m to an existing row.
func (w *SubscriptionWriter) Update(ctx context.Context, providerSubscriptionID string, m repository.SubscriptionMutation) (repository.WriteResult, error) {
	if err := validateMutation(m); err != nil {
		return 0, err
	}

	ctx, cancel := w.timeouts.datastore(ctx)
	defer cancel()

	result, err := w.subs.Update(ctx, providerSubscriptionID, m)
	if err != nil {
		return 0, domainErrors.TransientProvider("subscription update failed", err)
	}

	w.logger.Info("Subscription updated",
		zap.String("provider_subscription_id", providerSubscriptionID),
		zap.String("status", string(m.Status)),
		zap.Stringer("result", result))
	return result, nil
}

// Cancel marks the row canceled at now.
func (w *SubscriptionWriter) Cancel(ctx context.Context, providerSubscriptionID string, now time.Time, eventAt *time.Time) (repository.WriteResult, error) {
	ctx, cancel := w.timeouts.datastore(ctx)
	defer cancel()

	result, err := w.subs.MarkCanceled(ctx, providerSubscriptionID, now, eventAt)
	if err != nil {
		return 0, domainErrors.TransientProvider("subscription cancel failed", err)
	}
	return result, nil
}

// SetPaymentStatus changes payment_status only.
func (w *SubscriptionWriter) SetPaymentStatus(ctx context.Context, providerSubscriptionID string, status model.PaymentStatus) (repository.WriteResult, error) {
	ctx, cancel := w.timeouts.datastore(ctx)
	defer cancel()

	result, err := w.subs.SetPaymentStatus(ctx, providerSubscriptionID, status)
	if err != nil {
		return 0, domainErrors.TransientProvider("payment status update failed", err)
	}
	return result, nil
}

func validateMutation(m repository.SubscriptionMutation) error {
	if !m.Status.Valid() {
		return domainErrors.Validation("unknown subscription status",
			fmt.Errorf("status %q", m.Status))
	}
	if m.CurrentPeriodStart != nil && m.CurrentPeriodEnd != nil &&
		m.CurrentPeriodEnd.Before(*m.CurrentPeriodStart) {
		return domainErrors.Validation("invalid subscription period", domainErrors.ErrInvalidPeriod)
	}
	return nil
}
