package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/neverMEH/Personabl-Developed/internal/domain/entity"
	"github.com/neverMEH/Personabl-Developed/internal/middleware/auth"
	"github.com/neverMEH/Personabl-Developed/internal/usecase"
	apperrors "github.com/neverMEH/Personabl-Developed/pkg/errors"
)

// CheckoutInitiator starts hosted checkouts and portal sessions.
type CheckoutInitiator interface {
	CreateCheckoutSession(ctx context.Context, req *usecase.CheckoutRequest) (*entity.CheckoutSessionResult, error)
	CreatePortalSession(ctx context.Context, userID uuid.UUID, returnURL string) (string, error)
}

type CheckoutHandler struct {
	checkout CheckoutInitiator
	logger   *zap.Logger
}

func NewCheckoutHandler(checkout CheckoutInitiator, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		logger:   logger,
	}
}

type CreateCheckoutRequest struct {
	PriceID    string `json:"priceId" validate:"required"`
	SuccessURL string `json:"successUrl" validate:"required,url"`
	CancelURL  string `json:"cancelUrl" validate:"required,url"`
	CouponCode string `json:"couponCode,omitempty" validate:"omitempty,max=64"`
}

func (h *CheckoutHandler) CreateCheckoutSession(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if user == nil {
		return err
	}

	var req CreateCheckoutRequest
	if err := bindAndValidate(c, &req); err != nil {
		return apperrors.JSON(c, err)
	}

	h.logger.Info("Creating checkout session",
		zap.String("user_id", user.UserID),
		zap.String("price_id", req.PriceID),
		zap.Bool("coupon", req.CouponCode != ""))

	session, err := h.checkout.CreateCheckoutSession(c.Request().Context(), &usecase.CheckoutRequest{
		UserID:     user.ID,
		Email:      user.Email,
		PriceID:    req.PriceID,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
		CouponCode: req.CouponCode,
	})
	if err != nil {
		return apperrors.JSON(c, err)
	}

	return c.JSON(http.StatusOK, session)
}

type CreatePortalRequest struct {
	ReturnURL string `json:"returnUrl" validate:"required,url"`
}

func (h *CheckoutHandler) CreatePortalSession(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if user == nil {
		return err
	}

	var req CreatePortalRequest
	if err := bindAndValidate(c, &req); err != nil {
		return apperrors.JSON(c, err)
	}

	url, err := h.checkout.CreatePortalSession(c.Request().Context(), user.ID, req.ReturnURL)
	if err != nil {
		return apperrors.JSON(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"url": url,
	})
}
