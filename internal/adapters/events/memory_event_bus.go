package events

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/healia/backend/internal/domain/entities"
	"github.com/zatekoja/healia/backend/internal/domain/providers"
)

// ErrBusClosed is returned when subscribing to a closed bus
var ErrBusClosed = errors.New("event bus is closed")

// subscriberBuffer is how many notifications a slow subscriber may lag behind
const subscriberBuffer = 100

// subscriberSet tracks local subscriber channels per bus channel
type subscriberSet struct {
	mu     sync.RWMutex
	subs   map[string]map[chan *entities.Notification]struct{}
	closed bool
}

func newSubscriberSet() *subscriberSet {
	return &subscriberSet{subs: make(map[string]map[chan *entities.Notification]struct{})}
}

func (s *subscriberSet) add(channel string) (chan *entities.Notification, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan *entities.Notification, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, 0
	}
	if s.subs[channel] == nil {
		s.subs[channel] = make(map[chan *entities.Notification]struct{})
	}
	s.subs[channel][ch] = struct{}{}
	return ch, len(s.subs[channel])
}

// remove closes ch and returns how many subscribers channel has left
func (s *subscriberSet) remove(channel string, ch chan *entities.Notification) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs, ok := s.subs[channel]
	if !ok {
		return 0
	}
	if _, ok := subs[ch]; ok {
		delete(subs, ch)
		close(ch)
	}
	if len(subs) == 0 {
		delete(s.subs, channel)
	}
	return len(subs)
}

func (s *subscriberSet) broadcast(channel string, n *entities.Notification) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for sub := range s.subs[channel] {
		select {
		case sub <- n:
		default:
			log.Warn().Str("channel", channel).Str("notification_id", n.ID).Msg("Subscriber channel full, skipping notification")
		}
	}
}

func (s *subscriberSet) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for channel, subs := range s.subs {
		for sub := range subs {
			close(sub)
		}
		delete(s.subs, channel)
	}
}

// MemoryEventBus is an in-process NotificationBus for single-instance
// deployments and for when Redis is disabled
type MemoryEventBus struct {
	subscribers *subscriberSet
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewMemoryEventBus creates an in-process bus
func NewMemoryEventBus() providers.NotificationBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &MemoryEventBus{subscribers: newSubscriberSet(), ctx: ctx, cancel: cancel}
}

// Publish delivers n to the current subscribers of channel
func (b *MemoryEventBus) Publish(ctx context.Context, channel string, n *entities.Notification) error {
	if b.ctx.Err() != nil {
		return ErrBusClosed
	}
	b.subscribers.broadcast(channel, n)
	return nil
}

// Subscribe subscribes to notifications on a channel
func (b *MemoryEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.Notification, error) {
	if b.ctx.Err() != nil {
		return nil, ErrBusClosed
	}

	sub, _ := b.subscribers.add(channel)
	go func() {
		select {
		case <-ctx.Done():
			b.subscribers.remove(channel, sub)
		case <-b.ctx.Done():
		}
	}()
	return sub, nil
}

// Close closes every subscription
func (b *MemoryEventBus) Close() error {
	b.cancel()
	b.subscribers.closeAll()
	return nil
}
