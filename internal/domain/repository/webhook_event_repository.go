package repository

import (
	"context"

	"github.com/neverMEH/Personabl-Developed/internal/domain/model"
)

// WebhookEventRepository keeps the delivery log of provider events.
type WebhookEventRepository interface {
	// Record inserts event if its provider id is new and returns the stored row.
	Record(ctx context.Context, event *model.ProviderWebhookEvent) (*model.ProviderWebhookEvent, error)
	// MarkProcessing sets status processing and counts the attempt.
	MarkProcessing(ctx context.Context, providerEventID string) error
	MarkCompleted(ctx context.Context, providerEventID string) error
	MarkFailed(ctx context.Context, providerEventID string, errMsg string) error
}
