package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/neverMEH/Personabl-Developed/internal/domain/entity"
	"github.com/neverMEH/Personabl-Developed/internal/domain/model"
	"github.com/neverMEH/Personabl-Developed/internal/usecase"
)

func TestPriceFromProvider(t *testing.T) {
	tests := []struct {
		name     string
		in       entity.CatalogPrice
		ok       bool
		amount   string
		interval model.PriceInterval
	}{
		{
			name:     "monthly usd",
			in:       entity.CatalogPrice{ProviderPriceID: "price_m", UnitAmount: 2900, Currency: "USD", Interval: "month", Active: true},
			ok:       true,
			amount:   "29",
			interval: model.PriceIntervalMonth,
		},
		{
			name:     "yearly krw has no minor unit",
			in:       entity.CatalogPrice{ProviderPriceID: "price_y", UnitAmount: 99000, Currency: "krw", Interval: "year", Active: true},
			ok:       true,
			amount:   "99000",
			interval: model.PriceIntervalYear,
		},
		{
			name: "weekly is skipped",
			in:   entity.CatalogPrice{ProviderPriceID: "price_w", UnitAmount: 500, Currency: "usd", Interval: "week"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, ok := usecase.PriceFromProvider(tt.in)
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			assert.True(t, decimal.RequireFromString(tt.amount).Equal(price.Amount), "amount %s", price.Amount)
			assert.Equal(t, tt.interval, price.Interval)
			assert.Equal(t, tt.in.ProviderPriceID, price.ProviderPriceID)
		})
	}
}

func TestCatalogService_SyncFromProvider(t *testing.T) {
	store := newMemStore()
	billing := new(MockBillingProvider)
	billing.On("ListActiveCatalog", mock.Anything).Return([]*entity.CatalogProduct{
		{
			ProviderProductID: "prod_pro",
			Name:              "Pro",
			Description:       "Everything",
			Active:            true,
			Prices: []entity.CatalogPrice{
				{ProviderPriceID: "price_pro_m", UnitAmount: 2900, Currency: "usd", Interval: "month", Active: true},
				{ProviderPriceID: "price_pro_y", UnitAmount: 29000, Currency: "usd", Interval: "year", Active: true},
				{ProviderPriceID: "price_pro_d", UnitAmount: 100, Currency: "usd", Interval: "day", Active: true},
			},
		},
	}, nil).Twice()

	service := usecase.NewCatalogService(fakeCatalog{store}, fakeCoupons{store}, billing, usecase.Timeouts{}, zap.NewNop())

	report, err := service.SyncFromProvider(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Products)
	assert.Equal(t, 2, report.Prices)
	assert.Equal(t, 1, report.Skipped)

	productID := store.products["prod_pro"].ID
	assert.Equal(t, productID, store.prices["price_pro_m"].ProductID)
	assert.Equal(t, productID, store.prices["price_pro_y"].ProductID)

	// A second sync updates in place.
	_, err = service.SyncFromProvider(context.Background())
	require.NoError(t, err)
	assert.Len(t, store.products, 1)
	assert.Len(t, store.prices, 2)
	assert.Equal(t, productID, store.products["prod_pro"].ID)

	products, err := service.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Len(t, products[0].Prices, 2)
}

func TestCatalogService_SyncProviderFailure(t *testing.T) {
	billing := new(MockBillingProvider)
	billing.On("ListActiveCatalog", mock.Anything).Return(nil, errors.New("stripe: unauthorized")).Once()

	service := usecase.NewCatalogService(fakeCatalog{newMemStore()}, fakeCoupons{newMemStore()}, billing, usecase.Timeouts{}, zap.NewNop())
	_, err := service.SyncFromProvider(context.Background())
	require.Error(t, err)
}

func TestCatalogService_SaveCouponKeepsUsage(t *testing.T) {
	store := newMemStore()
	service := usecase.NewCatalogService(fakeCatalog{store}, fakeCoupons{store}, new(MockBillingProvider), usecase.Timeouts{}, zap.NewNop())

	require.NoError(t, service.SaveCoupon(context.Background(), &model.Coupon{Code: "SPRING", ProviderCouponID: "co_spring", Active: true}))
	store.coupons["SPRING"].TimesUsed = 4

	require.NoError(t, service.SaveCoupon(context.Background(), &model.Coupon{Code: "SPRING", ProviderCouponID: "co_spring", Active: false}))
	saved := store.coupon("SPRING")
	assert.False(t, saved.Active)
	assert.Equal(t, 4, saved.TimesUsed)
}
