package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/neverMEH/Personabl-Developed/internal/domain/model"
	"github.com/neverMEH/Personabl-Developed/internal/usecase"
	apperrors "github.com/neverMEH/Personabl-Developed/pkg/errors"
)

func TestCouponService_Validate(t *testing.T) {
	maxTwo := 2
	past := fixedNow.Add(-24 * time.Hour)
	future := fixedNow.Add(24 * time.Hour)

	store := newMemStore()
	for _, c := range []*model.Coupon{
		{Code: "VALID", ProviderCouponID: "co_valid", Active: true, ExpiresAt: &future},
		{Code: "EXPIRED", ProviderCouponID: "co_expired", Active: true, ExpiresAt: &past},
		{Code: "USEDUP", ProviderCouponID: "co_usedup", Active: true, MaxRedemptions: &maxTwo, TimesUsed: 2},
		{Code: "ALMOST", ProviderCouponID: "co_almost", Active: true, MaxRedemptions: &maxTwo, TimesUsed: 1},
		{Code: "OFF", ProviderCouponID: "co_off", Active: false},
	} {
		c.ID = uuid.New()
		store.coupons[c.Code] = c
	}

	service := usecase.NewCouponService(fakeCoupons{store}, usecase.Timeouts{}, zap.NewNop()).
		WithClock(func() time.Time { return fixedNow })

	tests := []struct {
		code  string
		valid bool
	}{
		{code: "VALID", valid: true},
		{code: "ALMOST", valid: true},
		{code: "EXPIRED"},
		{code: "USEDUP"},
		{code: "OFF"},
		{code: "UNKNOWN"},
		{code: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			coupon, err := service.Validate(context.Background(), tt.code)
			require.NoError(t, err)
			if tt.valid {
				require.NotNil(t, coupon)
				assert.Equal(t, tt.code, coupon.Code)
			} else {
				assert.Nil(t, coupon)
			}
		})
	}
}

type failingCoupons struct{ fakeCoupons }

func (failingCoupons) GetActiveByCode(ctx context.Context, code string) (*model.Coupon, error) {
	return nil, errDatastoreDown
}

func TestCouponService_ValidateDatastoreFailure(t *testing.T) {
	service := usecase.NewCouponService(failingCoupons{fakeCoupons{newMemStore()}}, usecase.Timeouts{}, zap.NewNop())

	_, err := service.Validate(context.Background(), "VALID")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrUnavailable, apperrors.CodeOf(err))
}
