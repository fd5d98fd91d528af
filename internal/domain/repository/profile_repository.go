package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/neverMEH/Personabl-Developed/internal/domain/model"
)

// ProfileRepository reads profiles and links provider customers.
// Lookups return nil, nil when no row matches.
type ProfileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	GetByProviderCustomerID(ctx context.Context, customerID string) (*model.Profile, error)
	GetByEmail(ctx context.Context, email string) (*model.Profile, error)

	// LinkProviderCustomer stores customerID only while the profile has none.
	// It reports whether this call performed the link.
	LinkProviderCustomer(ctx context.Context, id uuid.UUID, customerID string) (bool, error)
}
