package providers

import (
	"context"

	"github.com/zatekoja/healia/backend/internal/domain/entities"
)

// NotificationSink receives user-visible notifications. Delivery is fire and
// forget: sinks log their own failures.
type NotificationSink interface {
	Notify(ctx context.Context, n entities.Notification)
}

// NotificationSinkFunc adapts a function to NotificationSink
type NotificationSinkFunc func(ctx context.Context, n entities.Notification)

// Notify calls f(ctx, n)
func (f NotificationSinkFunc) Notify(ctx context.Context, n entities.Notification) {
	f(ctx, n)
}
