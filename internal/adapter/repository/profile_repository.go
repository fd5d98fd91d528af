package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/neverMEH/Personabl-Developed/internal/domain/model"
	domainRepo "github.com/neverMEH/Personabl-Developed/internal/domain/repository"
)

type profileRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *gorm.DB, logger *zap.Logger) domainRepo.ProfileRepository {
	return &profileRepository{
		db:     db,
		logger: logger,
	}
}

func (r *profileRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *profileRepository) GetByProviderCustomerID(ctx context.Context, customerID string) (*model.Profile, error) {
	if customerID == "" {
		return nil, nil
	}
	return r.first(ctx, "provider_customer_id = ?", customerID)
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	if email == "" {
		return nil, nil
	}
	return r.first(ctx, "lower(email) = lower(?)", email)
}

func (r *profileRepository) first(ctx context.Context, query string, arg interface{}) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.WithContext(ctx).Where(query, arg).Order("created_at ASC").First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get profile",
			zap.String("query", query),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

// LinkProviderCustomer only writes when provider_customer_id is still NULL so the first link wins.
func (r *profileRepository) LinkProviderCustomer(ctx context.Context, id uuid.UUID, customerID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Profile{}).
		Where("id = ? AND provider_customer_id IS NULL", id).
		Updates(map[string]interface{}{
			"provider_customer_id": customerID,
			"updated_at":           gorm.Expr("now()"),
		})
	if result.Error != nil {
		r.logger.Error("Failed to link provider customer",
			zap.String("user_id", id.String()),
			zap.String("customer_id", customerID),
			zap.Error(result.Error))
		return false, fmt.Errorf("failed to link provider customer: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}
