package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	domainErrors "github.com/neverMEH/Personabl-Developed/internal/domain/errors"
	"github.com/neverMEH/Personabl-Developed/internal/domain/model"
	"github.com/neverMEH/Personabl-Developed/internal/middleware/auth"
	apperrors "github.com/neverMEH/Personabl-Developed/pkg/errors"
)

// SubscriptionManager serves a user's own subscriptions.
type SubscriptionManager interface {
	ListActive(ctx context.Context, userID uuid.UUID) ([]*model.Subscription, error)
	Cancel(ctx context.Context, userID, subscriptionID uuid.UUID) error
	Reactivate(ctx context.Context, userID, subscriptionID uuid.UUID) error
}

type SubscriptionHandler struct {
	subscriptions SubscriptionManager
	logger        *zap.Logger
}

func NewSubscriptionHandler(subscriptions SubscriptionManager, logger *zap.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptions: subscriptions,
		logger:        logger,
	}
}

func (h *SubscriptionHandler) ListSubscriptions(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if user == nil {
		return err
	}

	subs, err := h.subscriptions.ListActive(c.Request().Context(), user.ID)
	if err != nil {
		return apperrors.JSON(c, err)
	}
	if subs == nil {
		subs = []*model.Subscription{}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"subscriptions": subs,
	})
}

func (h *SubscriptionHandler) CancelSubscription(c echo.Context) error {
	return h.setCancelAtPeriodEnd(c, true)
}

func (h *SubscriptionHandler) ReactivateSubscription(c echo.Context) error {
	return h.setCancelAtPeriodEnd(c, false)
}

func (h *SubscriptionHandler) setCancelAtPeriodEnd(c echo.Context, cancel bool) error {
	user, err := auth.RequireAuth(c)
	if user == nil {
		return err
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.JSON(c, domainErrors.Validation("invalid subscription id", err))
	}

	if cancel {
		err = h.subscriptions.Cancel(c.Request().Context(), user.ID, id)
	} else {
		err = h.subscriptions.Reactivate(c.Request().Context(), user.ID, id)
	}
	if err != nil {
		return apperrors.JSON(c, err)
	}

	h.logger.Info("Subscription change requested",
		zap.String("user_id", user.UserID),
		zap.String("subscription_id", id.String()),
		zap.Bool("cancel_at_period_end", cancel))

	return c.JSON(http.StatusAccepted, echo.Map{
		"id":                   id.String(),
		"cancel_at_period_end": cancel,
	})
}
