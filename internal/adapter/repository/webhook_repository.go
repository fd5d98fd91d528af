package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/neverMEH/Personabl-Developed/internal/domain/model"
	domainRepo "github.com/neverMEH/Personabl-Developed/internal/domain/repository"
)

const maxLastErrorLength = 2000

type webhookRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewWebhookRepository creates a new webhook event log repository
func NewWebhookRepository(db *gorm.DB, logger *zap.Logger) domainRepo.WebhookEventRepository {
	return &webhookRepository{
		db:     db,
		logger: logger,
	}
}

// Record saves a new webhook event; duplicates keep the first row.
func (r *webhookRepository) Record(ctx context.Context, event *model.ProviderWebhookEvent) (*model.ProviderWebhookEvent, error) {
	if event.Status == "" {
		event.Status = model.WebhookStatusPending
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider_event_id"}},
			DoNothing: true,
		}).
		Create(event).Error
	if err != nil {
		r.logger.Error("Failed to save webhook event",
			zap.String("event_id", event.ProviderEventID),
			zap.String("event_type", event.EventType),
			zap.Error(err))
		return nil, fmt.Errorf("failed to save webhook event: %w", err)
	}

	var stored model.ProviderWebhookEvent
	err = r.db.WithContext(ctx).
		Where("provider_event_id = ?", event.ProviderEventID).
		First(&stored).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("webhook event not found after save: %s", event.ProviderEventID)
		}
		r.logger.Error("Failed to get webhook event",
			zap.String("event_id", event.ProviderEventID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get webhook event: %w", err)
	}

	return &stored, nil
}

func (r *webhookRepository) MarkProcessing(ctx context.Context, providerEventID string) error {
	return r.update(ctx, providerEventID, map[string]interface{}{
		"status":              model.WebhookStatusProcessing,
		"processing_attempts": gorm.Expr("processing_attempts + 1"),
	})
}

func (r *webhookRepository) MarkCompleted(ctx context.Context, providerEventID string) error {
	return r.update(ctx, providerEventID, map[string]interface{}{
		"status":       model.WebhookStatusCompleted,
		"processed_at": time.Now().UTC(),
		"last_error":   nil,
	})
}

func (r *webhookRepository) MarkFailed(ctx context.Context, providerEventID string, errMsg string) error {
	if len(errMsg) > maxLastErrorLength {
		errMsg = errMsg[:maxLastErrorLength]
	}
	return r.update(ctx, providerEventID, map[string]interface{}{
		"status":     model.WebhookStatusFailed,
		"last_error": errMsg,
	})
}

func (r *webhookRepository) update(ctx context.Context, providerEventID string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&model.ProviderWebhookEvent{}).
		Where("provider_event_id = ?", providerEventID).
		Updates(updates)
	if result.Error != nil {
		r.logger.Error("Failed to update webhook event",
			zap.String("event_id", providerEventID),
			zap.Any("status", updates["status"]),
			zap.Error(result.Error))
		return fmt.Errorf("failed to update webhook event: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("webhook event not found: %s", providerEventID)
	}
	return nil
}
