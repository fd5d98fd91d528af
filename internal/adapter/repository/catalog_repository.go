package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/neverMEH/Personabl-Developed/internal/domain/model"
	domainRepo "github.com/neverMEH/Personabl-Developed/internal/domain/repository"
)

type catalogRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewCatalogRepository creates a new product and price repository
func NewCatalogRepository(db *gorm.DB, logger *zap.Logger) domainRepo.CatalogRepository {
	return &catalogRepository{
		db:     db,
		logger: logger,
	}
}

func (r *catalogRepository) GetProductByProviderID(ctx context.Context, providerProductID string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).Where("provider_product_id = ?", providerProductID).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get product",
			zap.String("provider_product_id", providerProductID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

func (r *catalogRepository) GetPriceByProviderID(ctx context.Context, providerPriceID string) (*model.Price, error) {
	var price model.Price
	err := r.db.WithContext(ctx).Where("provider_price_id = ?", providerPriceID).First(&price).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get price",
			zap.String("provider_price_id", providerPriceID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get price: %w", err)
	}
	return &price, nil
}

func (r *catalogRepository) ListActiveProducts(ctx context.Context) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Preload("Prices", func(db *gorm.DB) *gorm.DB {
			return db.Where("active = ?", true).Order("amount ASC")
		}).
		Order("created_at ASC").
		Find(&products).Error
	if err != nil {
		r.logger.Error("Failed to list active products", zap.Error(err))
		return nil, fmt.Errorf("failed to list active products: %w", err)
	}
	return products, nil
}

func (r *catalogRepository) UpsertProduct(ctx context.Context, product *model.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}

	err := r.db.WithContext(ctx).
		Omit("Prices").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider_product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"name":        product.Name,
				"description": product.Description,
				"active":      product.Active,
				"updated_at":  gorm.Expr("now()"),
			}),
		}).
		Create(product).Error
	if err != nil {
		r.logger.Error("Failed to upsert product",
			zap.String("provider_product_id", product.ProviderProductID),
			zap.Error(err))
		return fmt.Errorf("failed to upsert product: %w", err)
	}

	// On conflict the generated id was discarded; read back the stored one.
	stored, err := r.GetProductByProviderID(ctx, product.ProviderProductID)
	if err != nil {
		return err
	}
	if stored != nil {
		product.ID = stored.ID
	}
	return nil
}

func (r *catalogRepository) UpsertPrice(ctx context.Context, price *model.Price) error {
	if price.ID == uuid.Nil {
		price.ID = uuid.New()
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider_price_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"product_id":        price.ProductID,
				"amount":            price.Amount,
				"currency":          price.Currency,
				"interval":          price.Interval,
				"trial_period_days": price.TrialPeriodDays,
				"active":            price.Active,
				"updated_at":        gorm.Expr("now()"),
			}),
		}).
		Create(price).Error
	if err != nil {
		r.logger.Error("Failed to upsert price",
			zap.String("provider_price_id", price.ProviderPriceID),
			zap.Error(err))
		return fmt.Errorf("failed to upsert price: %w", err)
	}

	stored, err := r.GetPriceByProviderID(ctx, price.ProviderPriceID)
	if err != nil {
		return err
	}
	if stored != nil {
		price.ID = stored.ID
	}
	return nil
}
