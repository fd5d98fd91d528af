package model

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the internal user. ID equals the auth subject.
type Profile struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email              string    `gorm:"size:320;index" json:"email"`
	FullName           *string   `gorm:"size:255" json:"full_name,omitempty"`
	ProviderCustomerID *string   `gorm:"column:provider_customer_id;size:100;uniqueIndex" json:"provider_customer_id,omitempty"`
	CreatedAt          time.Time `gorm:"default:now()" json:"created_at"`
	UpdatedAt          time.Time `gorm:"default:now()" json:"updated_at"`
}

// HasCustomer reports whether a provider customer is linked.
func (p *Profile) HasCustomer() bool {
	return p.ProviderCustomerID != nil && *p.ProviderCustomerID != ""
}

// TableName specifies the table name for GORM
func (Profile) TableName() string {
	return "profiles"
}
