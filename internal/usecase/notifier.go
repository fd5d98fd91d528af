package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/neverMEH/Personabl-Developed/internal/domain/model"
	"github.com/neverMEH/Personabl-Developed/pkg/messaging"
)

// SubscriptionChangedType is the message type published after a committed write.
const SubscriptionChangedType = "subscription.changed"

// SubscriptionChanged is published on the change channel.
type SubscriptionChanged struct {
	Type                   string    `json:"type"`
	EventType              string    `json:"event_type"`
	UserID                 string    `json:"user_id"`
	SubscriptionID         string    `json:"subscription_id"`
	ProviderSubscriptionID string    `json:"provider_subscription_id"`
	Status                 string    `json:"status"`
	OccurredAt             time.Time `json:"occurred_at"`
}

// ChangeNotifier publishes subscription changes. Failures are logged, never returned.
type ChangeNotifier struct {
	publisher messaging.Publisher
	channel   string
	timeout   time.Duration
	logger    *zap.Logger
}

// NewChangeNotifier creates a notifier; a nil publisher disables it.
func NewChangeNotifier(publisher messaging.Publisher, channel string, timeout time.Duration, logger *zap.Logger) *ChangeNotifier {
	if publisher == nil {
		publisher = messaging.NoopPublisher{}
	}
	return &ChangeNotifier{
		publisher: publisher,
		channel:   channel,
		timeout:   timeout,
		logger:    logger,
	}
}

func (n *ChangeNotifier) SubscriptionChanged(ctx context.Context, eventType string, sub *model.Subscription) {
	if n == nil || sub == nil {
		return
	}

	ctx, cancel := withTimeout(ctx, n.timeout)
	defer cancel()

	msg := SubscriptionChanged{
		Type:                   SubscriptionChangedType,
		EventType:              eventType,
		UserID:                 sub.UserID.String(),
		SubscriptionID:         sub.ID.String(),
		ProviderSubscriptionID: sub.ProviderSubscriptionID,
		Status:                 string(sub.Status),
		OccurredAt:             time.Now().UTC(),
	}
	if err := n.publisher.Publish(ctx, n.channel, msg); err != nil {
		n.logger.Warn("Failed to publish subscription change",
			zap.String("channel", n.channel),
			zap.String("provider_subscription_id", sub.ProviderSubscriptionID),
			zap.Error(err))
	}
}
