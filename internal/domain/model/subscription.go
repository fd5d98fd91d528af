package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus is the provider's subscription status, stored verbatim.
type SubscriptionStatus string

const (
	SubscriptionStatusIncomplete        SubscriptionStatus = "incomplete"
	SubscriptionStatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	SubscriptionStatusTrialing          SubscriptionStatus = "trialing"
	SubscriptionStatusActive            SubscriptionStatus = "active"
	SubscriptionStatusPastDue           SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled          SubscriptionStatus = "canceled"
	SubscriptionStatusUnpaid            SubscriptionStatus = "unpaid"
	SubscriptionStatusPaused            SubscriptionStatus = "paused"
)

// Valid reports whether s is a status the provider can emit.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionStatusIncomplete, SubscriptionStatusIncompleteExpired, SubscriptionStatusTrialing,
		SubscriptionStatusActive, SubscriptionStatusPastDue, SubscriptionStatusCanceled,
		SubscriptionStatusUnpaid, SubscriptionStatusPaused:
		return true
	}
	return false
}

// Scan implements sql.Scanner interface
func (s *SubscriptionStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = SubscriptionStatus(v)
	case []byte:
		*s = SubscriptionStatus(v)
	default:
		*s = SubscriptionStatusIncomplete
	}
	return nil
}

// Value implements driver.Valuer interface
func (s SubscriptionStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// PaymentStatus is the outcome of the latest payment for a subscription.
type PaymentStatus string

const (
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Scan implements sql.Scanner interface
func (p *PaymentStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*p = PaymentStatus(v)
	case []byte:
		*p = PaymentStatus(v)
	default:
		*p = PaymentStatusPending
	}
	return nil
}

// Value implements driver.Valuer interface
func (p PaymentStatus) Value() (driver.Value, error) {
	return string(p), nil
}

// Subscription is the reconciled billing state of one provider subscription.
type Subscription struct {
	ID                     uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID                 uuid.UUID          `gorm:"type:uuid;not null;index" json:"user_id"`
	ProductID              uuid.UUID          `gorm:"type:uuid;not null" json:"product_id"`
	PriceID                uuid.UUID          `gorm:"type:uuid;not null" json:"price_id"`
	ProviderSubscriptionID string             `gorm:"column:provider_subscription_id;size:100;uniqueIndex;not null" json:"provider_subscription_id"`
	Status                 SubscriptionStatus `gorm:"type:subscription_status;not null" json:"status"`
	TrialStart             *time.Time         `json:"trial_start,omitempty"`
	TrialEnd               *time.Time         `json:"trial_end,omitempty"`
	CurrentPeriodStart     *time.Time         `json:"current_period_start,omitempty"`
	CurrentPeriodEnd       *time.Time         `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd      bool               `gorm:"not null;default:false" json:"cancel_at_period_end"`
	CanceledAt             *time.Time         `json:"canceled_at,omitempty"`
	PaymentStatus          *PaymentStatus     `gorm:"type:payment_status" json:"payment_status,omitempty"`
	CouponID               *uuid.UUID         `gorm:"type:uuid" json:"coupon_id,omitempty"`
	LastEventAt            *time.Time         `json:"-"`
	CreatedAt              time.Time          `gorm:"default:now()" json:"created_at"`
	UpdatedAt              time.Time          `gorm:"default:now()" json:"updated_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Price   *Price   `gorm:"foreignKey:PriceID" json:"price,omitempty"`
}

// TableName specifies the table name for GORM
func (Subscription) TableName() string {
	return "subscriptions"
}
