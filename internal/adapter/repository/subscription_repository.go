package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/neverMEH/Personabl-Developed/internal/domain/model"
	domainRepo "github.com/neverMEH/Personabl-Developed/internal/domain/repository"
)

type subscriptionRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *gorm.DB, logger *zap.Logger) domainRepo.SubscriptionRepository {
	return &subscriptionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *subscriptionRepository) GetByProviderID(ctx context.Context, providerSubscriptionID string) (*model.Subscription, error) {
	return r.first(ctx, "provider_subscription_id = ?", providerSubscriptionID)
}

func (r *subscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Subscription, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *subscriptionRepository) first(ctx context.Context, query string, arg interface{}) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.WithContext(ctx).Where(query, arg).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get subscription",
			zap.String("query", query),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &sub, nil
}

func (r *subscriptionRepository) ListByUser(ctx context.Context, userID uuid.UUID, statuses []model.SubscriptionStatus) ([]*model.Subscription, error) {
	var subs []*model.Subscription
	query := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Price").
		Where("user_id = ?", userID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	if err := query.Order("created_at DESC").Find(&subs).Error; err != nil {
		r.logger.Error("Failed to list subscriptions",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subs, nil
}

func (r *subscriptionRepository) Upsert(ctx context.Context, sub *model.Subscription) (domainRepo.WriteResult, error) {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}

	var result domainRepo.WriteResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		sub.CreatedAt = now
		sub.UpdatedAt = now

		insert := tx.Omit("Product", "Price").
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "provider_subscription_id"}},
				DoNothing: true,
			}).
			Create(sub)
		if insert.Error != nil {
			return fmt.Errorf("failed to insert subscription: %w", insert.Error)
		}

		if insert.RowsAffected == 1 {
			result = domainRepo.WriteInserted
			if sub.CouponID == nil {
				return nil
			}
			// Only the first insert counts a redemption, so redelivered events never double count.
			redeem := tx.Model(&model.Coupon{}).
				Where("id = ?", *sub.CouponID).
				UpdateColumn("times_used", gorm.Expr("times_used + 1"))
			if redeem.Error != nil {
				return fmt.Errorf("failed to count coupon redemption: %w", redeem.Error)
			}
			return nil
		}

		var err error
		result, err = r.apply(tx, sub.ProviderSubscriptionID, domainRepo.MutationOf(sub))
		return err
	})
	if err != nil {
		r.logger.Error("Failed to upsert subscription",
			zap.String("provider_subscription_id", sub.ProviderSubscriptionID),
			zap.Error(err))
		return 0, err
	}

	return result, nil
}

func (r *subscriptionRepository) Update(ctx context.Context, providerSubscriptionID string, m domainRepo.SubscriptionMutation) (domainRepo.WriteResult, error) {
	result, err := r.apply(r.db.WithContext(ctx), providerSubscriptionID, m)
	if err != nil {
		r.logger.Error("Failed to update subscription",
			zap.String("provider_subscription_id", providerSubscriptionID),
			zap.Error(err))
		return 0, err
	}
	return result, nil
}

func (r *subscriptionRepository) apply(tx *gorm.DB, providerSubscriptionID string, m domainRepo.SubscriptionMutation) (domainRepo.WriteResult, error) {
	updates := map[string]interface{}{
		"status":               m.Status,
		"trial_start":          m.TrialStart,
		"trial_end":            m.TrialEnd,
		"current_period_start": m.CurrentPeriodStart,
		"current_period_end":   m.CurrentPeriodEnd,
		"cancel_at_period_end": m.CancelAtPeriodEnd,
		"canceled_at":          m.CanceledAt,
		"updated_at":           time.Now().UTC(),
	}
	if m.ProductID != nil && m.PriceID != nil {
		updates["product_id"] = *m.ProductID
		updates["price_id"] = *m.PriceID
	}
	if m.PaymentStatus != nil {
		updates["payment_status"] = *m.PaymentStatus
	}

	return r.conditionalUpdate(tx, providerSubscriptionID, m.EventAt, updates)
}

func (r *subscriptionRepository) MarkCanceled(ctx context.Context, providerSubscriptionID string, canceledAt time.Time, eventAt *time.Time) (domainRepo.WriteResult, error) {
	updates := map[string]interface{}{
		"status":      model.SubscriptionStatusCanceled,
		"canceled_at": canceledAt.UTC(),
		"updated_at":  time.Now().UTC(),
	}

	result, err := r.conditionalUpdate(r.db.WithContext(ctx), providerSubscriptionID, eventAt, updates)
	if err != nil {
		r.logger.Error("Failed to mark subscription canceled",
			zap.String("provider_subscription_id", providerSubscriptionID),
			zap.Error(err))
		return 0, err
	}
	return result, nil
}

func (r *subscriptionRepository) SetPaymentStatus(ctx context.Context, providerSubscriptionID string, status model.PaymentStatus) (domainRepo.WriteResult, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("provider_subscription_id = ?", providerSubscriptionID).
		Updates(map[string]interface{}{
			"payment_status": status,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		r.logger.Error("Failed to set payment status",
			zap.String("provider_subscription_id", providerSubscriptionID),
			zap.String("payment_status", string(status)),
			zap.Error(res.Error))
		return 0, fmt.Errorf("failed to set payment status: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return domainRepo.WriteMissing, nil
	}
	return domainRepo.WriteUpdated, nil
}

// conditionalUpdate is a single-row update that skips rows already holding a newer event.
func (r *subscriptionRepository) conditionalUpdate(tx *gorm.DB, providerSubscriptionID string, eventAt *time.Time, updates map[string]interface{}) (domainRepo.WriteResult, error) {
	query := tx.Model(&model.Subscription{})
	if eventAt != nil {
		at := eventAt.UTC()
		updates["last_event_at"] = at
		query = query.Where("provider_subscription_id = ? AND (last_event_at IS NULL OR last_event_at <= ?)", providerSubscriptionID, at)
	} else {
		query = query.Where("provider_subscription_id = ?", providerSubscriptionID)
	}

	res := query.Updates(updates)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to update subscription: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return domainRepo.WriteUpdated, nil
	}

	var count int64
	if err := tx.Model(&model.Subscription{}).
		Where("provider_subscription_id = ?", providerSubscriptionID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to check subscription existence: %w", err)
	}
	if count > 0 {
		return domainRepo.WriteStale, nil
	}
	return domainRepo.WriteMissing, nil
}
