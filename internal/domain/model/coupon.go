package model

import (
	"time"

	"github.com/google/uuid"
)

// Coupon is a discount code backed by a provider coupon.
type Coupon struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProviderCouponID string     `gorm:"column:provider_coupon_id;size:100;uniqueIndex;not null" json:"provider_coupon_id"`
	Code             string     `gorm:"size:64;uniqueIndex;not null" json:"code"`
	Description      *string    `json:"description,omitempty"`
	DurationInDays   *int       `json:"duration_in_days,omitempty"`
	TimesUsed        int        `gorm:"not null;default:0" json:"times_used"`
	MaxRedemptions   *int       `json:"max_redemptions,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	Active           bool       `gorm:"not null;default:true" json:"active"`
	CreatedAt        time.Time  `gorm:"default:now()" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"default:now()" json:"updated_at"`
}

// Redeemable reports whether the coupon is active, unexpired and not exhausted at now.
func (c *Coupon) Redeemable(now time.Time) bool {
	if !c.Active {
		return false
	}
	if c.ExpiresAt != nil && c.ExpiresAt.Before(now) {
		return false
	}
	if c.MaxRedemptions != nil && c.TimesUsed >= *c.MaxRedemptions {
		return false
	}
	return true
}

// TableName specifies the table name for GORM
func (Coupon) TableName() string {
	return "coupons"
}
