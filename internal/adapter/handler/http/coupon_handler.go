package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/neverMEH/Personabl-Developed/internal/domain/model"
	apperrors "github.com/neverMEH/Personabl-Developed/pkg/errors"
)

// CouponValidator returns a redeemable coupon or nil.
type CouponValidator interface {
	Validate(ctx context.Context, code string) (*model.Coupon, error)
}

type CouponHandler struct {
	coupons CouponValidator
	logger  *zap.Logger
}

func NewCouponHandler(coupons CouponValidator, logger *zap.Logger) *CouponHandler {
	return &CouponHandler{
		coupons: coupons,
		logger:  logger,
	}
}

type CouponResponse struct {
	Code           string     `json:"code"`
	Description    *string    `json:"description,omitempty"`
	DurationInDays *int       `json:"duration_in_days,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

// ValidateCoupon reports whether a code can be applied at checkout.
func (h *CouponHandler) ValidateCoupon(c echo.Context) error {
	coupon, err := h.coupons.Validate(c.Request().Context(), c.Param("code"))
	if err != nil {
		return apperrors.JSON(c, err)
	}
	if coupon == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "coupon not found"})
	}

	return c.JSON(http.StatusOK, CouponResponse{
		Code:           coupon.Code,
		Description:    coupon.Description,
		DurationInDays: coupon.DurationInDays,
		ExpiresAt:      coupon.ExpiresAt,
	})
}
