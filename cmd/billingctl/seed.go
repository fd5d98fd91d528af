package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/neverMEH/Personabl-Developed/internal/domain/model"
	"github.com/neverMEH/Personabl-Developed/internal/usecase"
)

type seedFile struct {
	Products []seedProduct `yaml:"products"`
	Coupons  []seedCoupon  `yaml:"coupons"`
}

type seedProduct struct {
	ProviderProductID string      `yaml:"provider_product_id"`
	Name              string      `yaml:"name"`
	Description       string      `yaml:"description"`
	Active            *bool       `yaml:"active"`
	Prices            []seedPrice `yaml:"prices"`
}

type seedPrice struct {
	ProviderPriceID string `yaml:"provider_price_id"`
	// Amount is in major units, e.g. "29.00".
	Amount          string `yaml:"amount"`
	Currency        string `yaml:"currency"`
	Interval        string `yaml:"interval"`
	TrialPeriodDays int    `yaml:"trial_period_days"`
	Active          *bool  `yaml:"active"`
}

type seedCoupon struct {
	Code             string     `yaml:"code"`
	ProviderCouponID string     `yaml:"provider_coupon_id"`
	Description      string     `yaml:"description"`
	DurationInDays   *int       `yaml:"duration_in_days"`
	MaxRedemptions   *int       `yaml:"max_redemptions"`
	ExpiresAt        *time.Time `yaml:"expires_at"`
	Active           *bool      `yaml:"active"`
}

type seedProductRows struct {
	product *model.Product
	prices  []*model.Price
}

type seedRows struct {
	products []seedProductRows
	coupons  []*model.Coupon
}

// catalogWriter is the part of the catalog service used by seeding.
type catalogWriter interface {
	SaveProduct(ctx context.Context, product *model.Product, prices []*model.Price) error
	SaveCoupon(ctx context.Context, coupon *model.Coupon) error
}

func loadSeedFile(path string) (*seedRows, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return &seedRows{}, nil
	}

	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal seed yaml: %w", err)
	}

	return file.rows()
}

func (f seedFile) rows() (*seedRows, error) {
	rows := &seedRows{}

	for i, entry := range f.Products {
		if entry.ProviderProductID == "" {
			return nil, fmt.Errorf("products[%d]: provider_product_id is required", i)
		}
		if entry.Name == "" {
			return nil, fmt.Errorf("products[%d]: name is required", i)
		}

		product := &model.Product{
			ProviderProductID: entry.ProviderProductID,
			Name:              entry.Name,
			Active:            boolOr(entry.Active, true),
		}
		if entry.Description != "" {
			description := entry.Description
			product.Description = &description
		}

		prices := make([]*model.Price, 0, len(entry.Prices))
		for j, p := range entry.Prices {
			price, err := p.toModel()
			if err != nil {
				return nil, fmt.Errorf("products[%d].prices[%d]: %w", i, j, err)
			}
			prices = append(prices, price)
		}

		rows.products = append(rows.products, seedProductRows{product: product, prices: prices})
	}

	providerCoupons := make(map[string]string, len(f.Coupons))
	for i, entry := range f.Coupons {
		code := strings.TrimSpace(entry.Code)
		if code == "" {
			return nil, fmt.Errorf("coupons[%d]: code is required", i)
		}
		if entry.ProviderCouponID == "" {
			return nil, fmt.Errorf("coupons[%d]: provider_coupon_id is required", i)
		}
		if other, ok := providerCoupons[entry.ProviderCouponID]; ok {
			return nil, fmt.Errorf("coupons[%d]: provider_coupon_id %q already used by %s", i, entry.ProviderCouponID, other)
		}
		providerCoupons[entry.ProviderCouponID] = code

		coupon := &model.Coupon{
			Code:             code,
			ProviderCouponID: entry.ProviderCouponID,
			DurationInDays:   entry.DurationInDays,
			MaxRedemptions:   entry.MaxRedemptions,
			ExpiresAt:        entry.ExpiresAt,
			Active:           boolOr(entry.Active, true),
		}
		if entry.Description != "" {
			description := entry.Description
			coupon.Description = &description
		}
		rows.coupons = append(rows.coupons, coupon)
	}

	return rows, nil
}

func (p seedPrice) toModel() (*model.Price, error) {
	if p.ProviderPriceID == "" {
		return nil, fmt.Errorf("provider_price_id is required")
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(p.Amount))
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", p.Amount, err)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("amount must not be negative")
	}

	interval := model.PriceInterval(strings.ToLower(strings.TrimSpace(p.Interval)))
	if interval != model.PriceIntervalMonth && interval != model.PriceIntervalYear {
		return nil, fmt.Errorf("interval must be month or year, got %q", p.Interval)
	}

	currency := strings.ToLower(strings.TrimSpace(p.Currency))
	if len(currency) != 3 {
		return nil, fmt.Errorf("currency must be a 3-letter code, got %q", p.Currency)
	}

	return &model.Price{
		ProviderPriceID: p.ProviderPriceID,
		Amount:          amount,
		Currency:        currency,
		Interval:        interval,
		TrialPeriodDays: p.TrialPeriodDays,
		Active:          boolOr(p.Active, true),
	}, nil
}

func applySeed(ctx context.Context, catalog catalogWriter, rows *seedRows) (*usecase.SyncReport, error) {
	report := &usecase.SyncReport{}

	for _, p := range rows.products {
		if err := catalog.SaveProduct(ctx, p.product, p.prices); err != nil {
			return report, err
		}
		report.Products++
		report.Prices += len(p.prices)
	}

	for _, c := range rows.coupons {
		if err := catalog.SaveCoupon(ctx, c); err != nil {
			return report, err
		}
		report.Coupons++
	}

	return report, nil
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
