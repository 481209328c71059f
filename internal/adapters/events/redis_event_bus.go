package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/healia/backend/internal/domain/entities"
	"github.com/zatekoja/healia/backend/internal/domain/providers"
	redisclient "github.com/zatekoja/healia/backend/internal/infrastructure/clients/redis"
)

// RedisEventBus implements NotificationBus using Redis Pub/Sub, so that any
// instance can deliver a workspace's notifications to its stream
type RedisEventBus struct {
	client        *redisclient.Client
	subscriptions map[string]*redis.PubSub
	subscribers   *subscriberSet
	mu            sync.Mutex
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redisclient.Client) providers.NotificationBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		client:        client,
		subscriptions: make(map[string]*redis.PubSub),
		subscribers:   newSubscriberSet(),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Publish publishes a notification to all subscribers
func (b *RedisEventBus) Publish(ctx context.Context, channel string, n *entities.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	if err := b.client.Client().Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	log.Debug().Str("channel", channel).Str("notification_id", n.ID).Msg("Published notification")
	return nil
}

// Subscribe subscribes to notifications on a channel. The Redis subscription
// and the local subscriber set change together under b.mu, so a subscriber
// never ends up attached to a channel whose Redis subscription is closing.
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.Notification, error) {
	b.mu.Lock()
	if b.ctx.Err() != nil {
		b.mu.Unlock()
		return nil, ErrBusClosed
	}
	if _, exists := b.subscriptions[channel]; !exists {
		pubsub := b.client.Client().Subscribe(b.ctx, channel)
		b.subscriptions[channel] = pubsub
		go b.receiveMessages(channel, pubsub)
	}
	sub, count := b.subscribers.add(channel)
	b.mu.Unlock()

	log.Debug().Str("channel", channel).Int("subscribers", count).Msg("Subscribed to channel")

	go func() {
		select {
		case <-ctx.Done():
		case <-b.ctx.Done():
		}
		b.unsubscribe(channel, sub)
	}()

	return sub, nil
}

// unsubscribe drops sub and closes the Redis subscription once channel has
// no local subscribers left
func (b *RedisEventBus) unsubscribe(channel string, sub chan *entities.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subscribers.remove(channel, sub) == 0 {
		b.closeSubscriptionLocked(channel, nil)
	}
}

// receiveMessages receives messages from Redis and broadcasts them to subscribers
func (b *RedisEventBus) receiveMessages(channel string, pubsub *redis.PubSub) {
	defer func() {
		b.mu.Lock()
		b.closeSubscriptionLocked(channel, pubsub)
		b.mu.Unlock()
	}()

	ch := pubsub.Channel()
	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var n entities.Notification
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				log.Warn().Err(err).Str("channel", channel).Msg("Failed to unmarshal notification")
				continue
			}
			b.subscribers.broadcast(channel, &n)
		}
	}
}

// closeSubscriptionLocked closes the Redis subscription of channel. With a
// non-nil pubsub it only acts if that is still the registered subscription.
// b.mu must be held.
func (b *RedisEventBus) closeSubscriptionLocked(channel string, pubsub *redis.PubSub) {
	current, ok := b.subscriptions[channel]
	if !ok || (pubsub != nil && current != pubsub) {
		return
	}
	delete(b.subscriptions, channel)
	if err := current.Close(); err != nil {
		log.Warn().Err(err).Str("channel", channel).Msg("Failed to close subscription")
	}
}

// Close closes the event bus and all subscriptions
func (b *RedisEventBus) Close() error {
	b.cancel()

	b.mu.Lock()
	var errs []error
	for channel, pubsub := range b.subscriptions {
		if err := pubsub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close subscription %s: %w", channel, err))
		}
		delete(b.subscriptions, channel)
	}
	b.mu.Unlock()

	b.subscribers.closeAll()

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	log.Info().Msg("Event bus closed")
	return nil
}
