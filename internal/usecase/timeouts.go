package usecase

import (
	"context"
	"time"
)

// Timeouts bounds outbound calls. A zero value leaves the call unbounded.
type Timeouts struct {
	Datastore time.Duration
	Provider  time.Duration
}

func (t Timeouts) datastore(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, t.Datastore)
}

func (t Timeouts) provider(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, t.Provider)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
