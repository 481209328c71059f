package providers

import (
	"context"

	"github.com/zatekoja/healia/backend/internal/domain/entities"
)

// NotificationBus fans notifications out to live subscribers
type NotificationBus interface {
	// Publish publishes a notification to all subscribers of channel
	Publish(ctx context.Context, channel string, n *entities.Notification) error

	// Subscribe subscribes to a channel. The returned channel is closed when
	// ctx is done or the bus is closed.
	Subscribe(ctx context.Context, channel string) (<-chan *entities.Notification, error)

	// Close closes the bus and all subscriptions
	Close() error
}

const (
	// NotificationChannelPrefix is the prefix for per-workspace channels
	NotificationChannelPrefix = "workspace:"
)

// WorkspaceChannel returns the channel name for a workspace's notifications
func WorkspaceChannel(workspaceID string) string {
	return NotificationChannelPrefix + workspaceID + ":notifications"
}
