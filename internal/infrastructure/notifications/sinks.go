package notifications

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/zatekoja/healia/backend/internal/domain/entities"
	"github.com/zatekoja/healia/backend/internal/domain/providers"
	"github.com/zatekoja/healia/backend/internal/infrastructure/observability"
)

// LogSink writes every notification to the log
type LogSink struct{}

// NewLogSink creates a log sink
func NewLogSink() *LogSink {
	return &LogSink{}
}

// Notify logs n at info level, or warn for destructive notifications
func (s *LogSink) Notify(ctx context.Context, n entities.Notification) {
	logger := observability.LoggerFromContext(ctx)
	var event *zerolog.Event
	if n.Variant == entities.VariantDestructive {
		event = logger.Warn()
	} else {
		event = logger.Info()
	}
	event.
		Str("workspace_id", n.WorkspaceID).
		Str("kind", string(n.Kind)).
		Str("title", n.Title).
		Str("description", n.Description).
		Msg("Notification")
}

// BusSink publishes notifications on the workspace's bus channel
type BusSink struct {
	bus providers.NotificationBus
}

// NewBusSink creates a sink publishing to bus
func NewBusSink(bus providers.NotificationBus) *BusSink {
	return &BusSink{bus: bus}
}

// Notify publishes n. Failures are logged, never returned.
func (s *BusSink) Notify(ctx context.Context, n entities.Notification) {
	if n.WorkspaceID == "" {
		return
	}
	if err := s.bus.Publish(ctx, providers.WorkspaceChannel(n.WorkspaceID), &n); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).
			Str("workspace_id", n.WorkspaceID).
			Str("kind", string(n.Kind)).
			Msg("Failed to publish notification")
	}
}

// FanoutSink forwards each notification to several sinks in order
type FanoutSink []providers.NotificationSink

// Notify calls every sink
func (f FanoutSink) Notify(ctx context.Context, n entities.Notification) {
	for _, sink := range f {
		sink.Notify(ctx, n)
	}
}

// MetricsSink counts notifications by kind
type MetricsSink struct {
	metrics *observability.Metrics
}

// NewMetricsSink creates a counting sink. A nil metrics set makes it a no-op.
func NewMetricsSink(metrics *observability.Metrics) *MetricsSink {
	return &MetricsSink{metrics: metrics}
}

// Notify records n
func (s *MetricsSink) Notify(ctx context.Context, n entities.Notification) {
	observability.RecordNotification(ctx, s.metrics, string(n.Kind))
}
