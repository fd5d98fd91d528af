package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/neverMEH/Personabl-Developed/internal/domain/entity"
	domainErrors "github.com/neverMEH/Personabl-Developed/internal/domain/errors"
	"github.com/neverMEH/Personabl-Developed/internal/domain/model"
	"github.com/neverMEH/Personabl-Developed/internal/domain/provider"
	"github.com/neverMEH/Personabl-Developed/internal/domain/repository"
)

// zeroDecimalCurrencies have no minor unit; provider amounts are already whole units.
var zeroDecimalCurrencies = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
	"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

// SyncReport counts what a catalog sync or seed wrote.
type SyncReport struct {
	Products int
	Prices   int
	Coupons  int
	Skipped  int
}

// CatalogService lists and maintains the local copy of the provider catalog.
type CatalogService struct {
	catalog  repository.CatalogRepository
	coupons  repository.CouponRepository
	provider provider.BillingProvider
	timeouts Timeouts
	logger   *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(
	catalog repository.CatalogRepository,
	coupons repository.CouponRepository,
	billing provider.BillingProvider,
	timeouts Timeouts,
	logger *zap.Logger,
) *CatalogService {
	return &CatalogService{
		catalog:  catalog,
		coupons:  coupons,
		provider: billing,
		timeouts: timeouts,
		logger:   logger,
	}
}

// ListProducts returns active products with their active prices.
func (s *CatalogService) ListProducts(ctx context.Context) ([]*model.Product, error) {
	ctx, cancel := s.timeouts.datastore(ctx)
	defer cancel()

	products, err := s.catalog.ListActiveProducts(ctx)
	if err != nil {
		return nil, domainErrors.TransientProvider("failed to list products", err)
	}
	return products, nil
}

// SyncFromProvider copies the provider's active products and recurring prices.
func (s *CatalogService) SyncFromProvider(ctx context.Context) (*SyncReport, error) {
	items, err := s.provider.ListActiveCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list provider catalog: %w", err)
	}

	report := &SyncReport{}
	for _, item := range items {
		product := &model.Product{
			ProviderProductID: item.ProviderProductID,
			Name:              item.Name,
			Active:            item.Active,
		}
		if item.Description != "" {
			description := item.Description
			product.Description = &description
		}

		var prices []*model.Price
		for _, p := range item.Prices {
			price, ok := PriceFromProvider(p)
			if !ok {
				s.logger.Warn("Skipping price with unsupported interval",
					zap.String("provider_price_id", p.ProviderPriceID),
					zap.String("interval", p.Interval))
				report.Skipped++
				continue
			}
			prices = append(prices, price)
		}

		if err := s.SaveProduct(ctx, product, prices); err != nil {
			return report, err
		}
		report.Products++
		report.Prices += len(prices)
	}

	s.logger.Info("Catalog synced from provider",
		zap.Int("products", report.Products),
		zap.Int("prices", report.Prices),
		zap.Int("skipped", report.Skipped))
	return report, nil
}

// SaveProduct upserts product and then its prices under it.
func (s *CatalogService) SaveProduct(ctx context.Context, product *model.Product, prices []*model.Price) error {
	ctx, cancel := s.timeouts.datastore(ctx)
	defer cancel()

	if err := s.catalog.UpsertProduct(ctx, product); err != nil {
		return fmt.Errorf("failed to save product %s: %w", product.ProviderProductID, err)
	}
	for _, price := range prices {
		price.ProductID = product.ID
		if err := s.catalog.UpsertPrice(ctx, price); err != nil {
			return fmt.Errorf("failed to save price %s: %w", price.ProviderPriceID, err)
		}
	}
	return nil
}

// SaveCoupon upserts a coupon by code.
func (s *CatalogService) SaveCoupon(ctx context.Context, coupon *model.Coupon) error {
	ctx, cancel := s.timeouts.datastore(ctx)
	defer cancel()

	if err := s.coupons.Upsert(ctx, coupon); err != nil {
		return fmt.Errorf("failed to save coupon %s: %w", coupon.Code, err)
	}
	return nil
}

// PriceFromProvider converts a provider price. Only month and year intervals are kept.
func PriceFromProvider(p entity.CatalogPrice) (*model.Price, bool) {
	interval := model.PriceInterval(p.Interval)
	if interval != model.PriceIntervalMonth && interval != model.PriceIntervalYear {
		return nil, false
	}

	currency := strings.ToLower(p.Currency)
	exp := int32(-2)
	if zeroDecimalCurrencies[currency] {
		exp = 0
	}

	return &model.Price{
		ProviderPriceID: p.ProviderPriceID,
		Amount:          decimal.New(p.UnitAmount, exp),
		Currency:        currency,
		Interval:        interval,
		TrialPeriodDays: int(p.TrialPeriodDays),
		Active:          p.Active,
	}, true
}
