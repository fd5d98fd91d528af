package repository

import (
	"context"

	"github.com/neverMEH/Personabl-Developed/internal/domain/model"
)

// CouponRepository reads and maintains coupons.
// Lookups return nil, nil when no row matches.
type CouponRepository interface {
	// GetActiveByCode returns the active coupon with code.
	GetActiveByCode(ctx context.Context, code string) (*model.Coupon, error)
	GetByProviderCouponID(ctx context.Context, providerCouponID string) (*model.Coupon, error)

	// Upsert inserts or updates by code and fills coupon.ID. TimesUsed is never overwritten.
	Upsert(ctx context.Context, coupon *model.Coupon) error
}
