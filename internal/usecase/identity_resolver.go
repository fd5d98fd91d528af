package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainErrors "github.com/neverMEH/Personabl-Developed/internal/domain/errors"
	"github.com/neverMEH/Personabl-Developed/internal/domain/model"
	"github.com/neverMEH/Personabl-Developed/internal/domain/repository"
)

// IdentityResolver maps a provider customer to the internal user.
type IdentityResolver struct {
	profiles repository.ProfileRepository
	timeouts Timeouts
	logger   *zap.Logger
}

// NewIdentityResolver creates a new identity resolver
func NewIdentityResolver(profiles repository.ProfileRepository, timeouts Timeouts, logger *zap.Logger) *IdentityResolver {
	return &IdentityResolver{
		profiles: profiles,
		timeouts: timeouts,
		logger:   logger,
	}
}

// Resolve looks up the profile by provider customer id, then by email.
// It never guesses: no match is a resolution error.
func (r *IdentityResolver) Resolve(ctx context.Context, customerID, email string) (uuid.UUID, error) {
	if customerID != "" {
		profile, err := r.lookup(ctx, func(ctx context.Context) (*model.Profile, error) {
			return r.profiles.GetByProviderCustomerID(ctx, customerID)
		})
		if err != nil {
			return uuid.Nil, err
		}
		if profile != nil {
			return profile.ID, nil
		}
	}

	if email != "" {
		profile, err := r.lookup(ctx, func(ctx context.Context) (*model.Profile, error) {
			return r.profiles.GetByEmail(ctx, email)
		})
		if err != nil {
			return uuid.Nil, err
		}
		if profile != nil {
			r.logger.Info("Resolved user by billing email",
				zap.String("customer_id", customerID),
				zap.String("user_id", profile.ID.String()))
			return profile.ID, nil
		}
	}

	r.logger.Warn("No profile matches provider customer",
		zap.String("customer_id", customerID),
		zap.Bool("email_supplied", email != ""))
	return uuid.Nil, domainErrors.Resolution(
		"could not resolve user for customer",
		fmt.Errorf("customer %q: %w", customerID, domainErrors.ErrProfileNotFound),
	)
}

func (r *IdentityResolver) lookup(ctx context.Context, fn func(context.Context) (*model.Profile, error)) (*model.Profile, error) {
	ctx, cancel := r.timeouts.datastore(ctx)
	defer cancel()

	profile, err := fn(ctx)
	if err != nil {
		return nil, domainErrors.TransientProvider("profile lookup failed", err)
	}
	return profile, nil
}
