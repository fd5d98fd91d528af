package repository

import (
	"context"

	"github.com/neverMEH/Personabl-Developed/internal/domain/model"
)

// CatalogRepository reads and maintains products and prices.
// Lookups return nil, nil when no row matches.
type CatalogRepository interface {
	GetProductByProviderID(ctx context.Context, providerProductID string) (*model.Product, error)
	GetPriceByProviderID(ctx context.Context, providerPriceID string) (*model.Price, error)

	// ListActiveProducts returns active products, oldest first, each with its active prices.
	ListActiveProducts(ctx context.Context) ([]*model.Product, error)

	// UpsertProduct inserts or updates by provider product id and fills product.ID.
	UpsertProduct(ctx context.Context, product *model.Product) error
	// UpsertPrice inserts or updates by provider price id and fills price.ID.
	UpsertPrice(ctx context.Context, price *model.Price) error
}
