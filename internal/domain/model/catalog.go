package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceInterval is the billing interval of a recurring price.
type PriceInterval string

const (
	PriceIntervalMonth PriceInterval = "month"
	PriceIntervalYear  PriceInterval = "year"
)

// Scan implements sql.Scanner interface
func (i *PriceInterval) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*i = PriceInterval(v)
	case []byte:
		*i = PriceInterval(v)
	default:
		*i = PriceIntervalMonth
	}
	return nil
}

// Value implements driver.Valuer interface
func (i PriceInterval) Value() (driver.Value, error) {
	return string(i), nil
}

// Product is a catalog entry mirrored from the provider.
type Product struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProviderProductID string    `gorm:"column:provider_product_id;size:100;uniqueIndex;not null" json:"provider_product_id"`
	Name              string    `gorm:"size:255;not null" json:"name"`
	Description       *string   `json:"description,omitempty"`
	Active            bool      `gorm:"not null;default:true;index" json:"active"`
	CreatedAt         time.Time `gorm:"default:now()" json:"created_at"`
	UpdatedAt         time.Time `gorm:"default:now()" json:"updated_at"`

	Prices []Price `gorm:"foreignKey:ProductID" json:"prices,omitempty"`
}

// TableName specifies the table name for GORM
func (Product) TableName() string {
	return "products"
}

// Price is a purchasable plan under a product.
type Price struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	ProviderPriceID string          `gorm:"column:provider_price_id;size:100;uniqueIndex;not null" json:"provider_price_id"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency        string          `gorm:"size:3;not null" json:"currency"`
	Interval        PriceInterval   `gorm:"type:price_interval;not null" json:"interval"`
	TrialPeriodDays int             `gorm:"not null;default:0" json:"trial_period_days"`
	Active          bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt       time.Time       `gorm:"default:now()" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Price) TableName() string {
	return "prices"
}
