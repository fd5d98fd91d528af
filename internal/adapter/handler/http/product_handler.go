package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/neverMEH/Personabl-Developed/internal/domain/model"
	apperrors "github.com/neverMEH/Personabl-Developed/pkg/errors"
)

// ProductLister lists the active catalog.
type ProductLister interface {
	ListProducts(ctx context.Context) ([]*model.Product, error)
}

// ProductHandler serves the public catalog
type ProductHandler struct {
	products ProductLister
	logger   *zap.Logger
}

// NewProductHandler creates a new ProductHandler instance
func NewProductHandler(products ProductLister, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		logger:   logger,
	}
}

// ListProducts returns active products with their active prices, oldest first.
func (h *ProductHandler) ListProducts(c echo.Context) error {
	products, err := h.products.ListProducts(c.Request().Context())
	if err != nil {
		return apperrors.JSON(c, err)
	}
	if products == nil {
		products = []*model.Product{}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"products": products,
	})
}
