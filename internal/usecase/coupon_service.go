package usecase

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	domainErrors "github.com/neverMEH/Personabl-Developed/internal/domain/errors"
	"github.com/neverMEH/Personabl-Developed/internal/domain/model"
	"github.com/neverMEH/Personabl-Developed/internal/domain/repository"
)

// CouponService validates discount codes.
type CouponService struct {
	coupons  repository.CouponRepository
	timeouts Timeouts
	now      func() time.Time
	logger   *zap.Logger
}

// NewCouponService creates a new coupon service
func NewCouponService(coupons repository.CouponRepository, timeouts Timeouts, logger *zap.Logger) *CouponService {
	return &CouponService{
		coupons:  coupons,
		timeouts: timeouts,
		now:      time.Now,
		logger:   logger,
	}
}

// WithClock replaces the clock used for expiry checks.
func (s *CouponService) WithClock(now func() time.Time) *CouponService {
	s.now = now
	return s
}

// Validate returns the coupon for code, or nil when the code is unknown, inactive,
// expired or exhausted. Only datastore failures are errors.
func (s *CouponService) Validate(ctx context.Context, code string) (*model.Coupon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}

	ctx, cancel := s.timeouts.datastore(ctx)
	defer cancel()

	coupon, err := s.coupons.GetActiveByCode(ctx, code)
	if err != nil {
		return nil, domainErrors.TransientProvider("coupon lookup failed", err)
	}
	if coupon == nil {
		return nil, nil
	}

	if !coupon.Redeemable(s.now()) {
		s.logger.Info("Coupon is not redeemable",
			zap.String("code", code),
			zap.Int("times_used", coupon.TimesUsed),
			zap.Bool("active", coupon.Active))
		return nil, nil
	}
	return coupon, nil
}
