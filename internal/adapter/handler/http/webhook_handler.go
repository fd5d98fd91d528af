package http

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	domainErrors "github.com/neverMEH/Personabl-Developed/internal/domain/errors"
	"github.com/neverMEH/Personabl-Developed/internal/usecase"
	apperrors "github.com/neverMEH/Personabl-Developed/pkg/errors"
)

// SignatureHeader carries the provider's webhook signature.
const SignatureHeader = "Stripe-Signature"

// WebhookProcessor handles one raw provider delivery.
type WebhookProcessor interface {
	Handle(ctx context.Context, payload []byte, signature string) (*usecase.WebhookResult, error)
}

type WebhookHandler struct {
	processor WebhookProcessor
	logger    *zap.Logger
}

func NewWebhookHandler(processor WebhookProcessor, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		processor: processor,
		logger:    logger,
	}
}

// HandleWebhook verifies and reconciles a provider event. Every acknowledged event,
// including duplicates and ignored types, gets the same 200 body.
func (h *WebhookHandler) HandleWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		h.logger.Error("Error reading request body", zap.Error(err))
		return apperrors.JSON(c, domainErrors.Validation("error reading request body", err))
	}

	sig := c.Request().Header.Get(SignatureHeader)

	if _, err := h.processor.Handle(c.Request().Context(), body, sig); err != nil {
		return apperrors.JSON(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
