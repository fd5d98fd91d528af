package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/neverMEH/Personabl-Developed/internal/domain/model"
	domainRepo "github.com/neverMEH/Personabl-Developed/internal/domain/repository"
)

type couponRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewCouponRepository creates a new coupon repository
func NewCouponRepository(db *gorm.DB, logger *zap.Logger) domainRepo.CouponRepository {
	return &couponRepository{
		db:     db,
		logger: logger,
	}
}

func (r *couponRepository) GetActiveByCode(ctx context.Context, code string) (*model.Coupon, error) {
	return r.first(ctx, "code = ? AND active = ?", code, true)
}

func (r *couponRepository) GetByProviderCouponID(ctx context.Context, providerCouponID string) (*model.Coupon, error) {
	if providerCouponID == "" {
		return nil, nil
	}
	return r.first(ctx, "provider_coupon_id = ?", providerCouponID)
}

func (r *couponRepository) first(ctx context.Context, query string, args ...interface{}) (*model.Coupon, error) {
	var coupon model.Coupon
	err := r.db.WithContext(ctx).Where(query, args...).First(&coupon).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get coupon",
			zap.String("query", query),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}
	return &coupon, nil
}

func (r *couponRepository) Upsert(ctx context.Context, coupon *model.Coupon) error {
	if coupon.ID == uuid.Nil {
		coupon.ID = uuid.New()
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"provider_coupon_id": coupon.ProviderCouponID,
				"description":        coupon.Description,
				"duration_in_days":   coupon.DurationInDays,
				"max_redemptions":    coupon.MaxRedemptions,
				"expires_at":         coupon.ExpiresAt,
				"active":             coupon.Active,
				"updated_at":         gorm.Expr("now()"),
			}),
		}).
		Create(coupon).Error
	if err != nil {
		r.logger.Error("Failed to upsert coupon",
			zap.String("code", coupon.Code),
			zap.Error(err))
		return fmt.Errorf("failed to upsert coupon: %w", err)
	}

	stored, err := r.first(ctx, "code = ?", coupon.Code)
	if err != nil {
		return err
	}
	if stored != nil {
		coupon.ID = stored.ID
		coupon.TimesUsed = stored.TimesUsed
	}
	return nil
}
