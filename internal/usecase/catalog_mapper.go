package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	domainErrors "github.com/neverMEH/Personabl-Developed/internal/domain/errors"
	"github.com/neverMEH/Personabl-Developed/internal/domain/model"
	"github.com/neverMEH/Personabl-Developed/internal/domain/repository"
)

// CatalogRef is a provider product/price pair resolved to internal ids.
type CatalogRef struct {
	ProductID uuid.UUID
	PriceID   uuid.UUID
}

// CatalogMapper translates provider catalog references.
type CatalogMapper struct {
	catalog  repository.CatalogRepository
	timeouts Timeouts
	logger   *zap.Logger
}

// NewCatalogMapper creates a new catalog mapper
func NewCatalogMapper(catalog repository.CatalogRepository, timeouts Timeouts, logger *zap.Logger) *CatalogMapper {
	return &CatalogMapper{
		catalog:  catalog,
		timeouts: timeouts,
		logger:   logger,
	}
}

// Map looks up the product and the price concurrently.
func (m *CatalogMapper) Map(ctx context.Context, providerProductID, providerPriceID string) (*CatalogRef, error) {
	if providerProductID == "" || providerPriceID == "" {
		return nil, domainErrors.ReferentialIntegrity("catalog mismatch",
			fmt.Errorf("subscription carries no product or price (product=%q price=%q)", providerProductID, providerPriceID))
	}

	ctx, cancel := m.timeouts.datastore(ctx)
	defer cancel()

	var (
		product *model.Product
		price   *model.Price
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		product, err = m.catalog.GetProductByProviderID(gctx, providerProductID)
		return err
	})
	g.Go(func() error {
		var err error
		price, err = m.catalog.GetPriceByProviderID(gctx, providerPriceID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, domainErrors.TransientProvider("catalog lookup failed", err)
	}

	if product == nil {
		m.logger.Error("Provider product missing from catalog",
			zap.String("provider_product_id", providerProductID))
		return nil, domainErrors.ReferentialIntegrity("catalog mismatch",
			fmt.Errorf("product %q: %w", providerProductID, domainErrors.ErrProductNotFound))
	}
	if price == nil {
		m.logger.Error("Provider price missing from catalog",
			zap.String("provider_price_id", providerPriceID))
		return nil, domainErrors.ReferentialIntegrity("catalog mismatch",
			fmt.Errorf("price %q: %w", providerPriceID, domainErrors.ErrPriceNotFound))
	}
	if price.ProductID != product.ID {
		m.logger.Error("Catalog price belongs to another product",
			zap.String("provider_product_id", providerProductID),
			zap.String("provider_price_id", providerPriceID))
		return nil, domainErrors.ReferentialIntegrity("catalog mismatch",
			fmt.Errorf("price %q is not a price of product %q", providerPriceID, providerProductID))
	}

	return &CatalogRef{ProductID: product.ID, PriceID: price.ID}, nil
}
