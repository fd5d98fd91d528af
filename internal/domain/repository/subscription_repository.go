package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/neverMEH/Personabl-Developed/internal/domain/model"
)

// WriteResult describes what a subscription write did.
type WriteResult int

const (
	// WriteInserted created a new row.
	WriteInserted WriteResult = iota
	// WriteUpdated changed an existing row.
	WriteUpdated
	// WriteStale left the row alone because it already reflects a newer event.
	WriteStale
	// WriteMissing found no row to update.
	WriteMissing
)

func (r WriteResult) String() string {
	switch r {
	case WriteInserted:
		return "inserted"
	case WriteUpdated:
		return "updated"
	case WriteStale:
		return "stale"
	case WriteMissing:
		return "missing"
	}
	return "unknown"
}

// SubscriptionMutation is the set of fields a provider event may change on an existing row.
type SubscriptionMutation struct {
	Status             model.SubscriptionStatus
	TrialStart         *time.Time
	TrialEnd           *time.Time
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool
	CanceledAt         *time.Time
	// ProductID and PriceID move the row to another plan. Both are left unchanged when nil.
	// The owning user never changes.
	ProductID *uuid.UUID
	PriceID   *uuid.UUID
	// PaymentStatus is left unchanged when nil.
	PaymentStatus *model.PaymentStatus
	// EventAt is the provider creation time of the event. Rows holding a newer event are not touched.
	EventAt *time.Time
}

// MutationOf extracts the mutable fields of sub. Catalog references are not carried.
func MutationOf(sub *model.Subscription) SubscriptionMutation {
	return SubscriptionMutation{
		Status:             sub.Status,
		TrialStart:         sub.TrialStart,
		TrialEnd:           sub.TrialEnd,
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
		CanceledAt:         sub.CanceledAt,
		PaymentStatus:      sub.PaymentStatus,
		EventAt:            sub.LastEventAt,
	}
}

// SubscriptionRepository writes reconciled subscriptions.
// Rows are keyed by provider subscription id and never deleted.
type SubscriptionRepository interface {
	GetByProviderID(ctx context.Context, providerSubscriptionID string) (*model.Subscription, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Subscription, error)

	// ListByUser returns the user's subscriptions in statuses, newest first, with product and price.
	ListByUser(ctx context.Context, userID uuid.UUID, statuses []model.SubscriptionStatus) ([]*model.Subscription, error)

	// Upsert inserts sub if its provider id is new, otherwise applies its mutable fields.
	// A first insert carrying a coupon increments that coupon's usage in the same transaction.
	Upsert(ctx context.Context, sub *model.Subscription) (WriteResult, error)

	// Update applies m to an existing row.
	Update(ctx context.Context, providerSubscriptionID string, m SubscriptionMutation) (WriteResult, error)

	// MarkCanceled sets status canceled and canceled_at. No other column changes.
	MarkCanceled(ctx context.Context, providerSubscriptionID string, canceledAt time.Time, eventAt *time.Time) (WriteResult, error)

	// SetPaymentStatus changes payment_status only.
	SetPaymentStatus(ctx context.Context, providerSubscriptionID string, status model.PaymentStatus) (WriteResult, error)
}
