package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
	"github.com/zatekoja/propertymarket/backend/internal/domain/providers"
	redisclient "github.com/zatekoja/propertymarket/backend/internal/infrastructure/clients/redis"
)

// ErrBusClosed is returned by Subscribe after Close.
var ErrBusClosed = errors.New("event bus closed")

// RedisEventBus implements EventBus over Redis Pub/Sub. All channels share
// one subscription connection; a single dispatcher routes each message to
// the subscribers of its channel.
type RedisEventBus struct {
	client *redisclient.Client

	mu     sync.RWMutex
	pubsub *redis.PubSub
	subs   map[string]map[*subscriber]struct{}
	closed bool
	done   chan struct{}
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redisclient.Client) providers.EventBus {
	return &RedisEventBus{
		client: client,
		subs:   make(map[string]map[*subscriber]struct{}),
	}
}

// Publish validates and publishes an event
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.ListingEvent) error {
	data, err := encodeEvent(event)
	if err != nil {
		return err
	}

	receivers, err := b.client.Client().Publish(ctx, channel, data).Result()
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Debug().
		Str("channel", channel).
		Str("event_id", event.ID).
		Str("event_type", string(event.EventType)).
		Str("listing_id", event.ListingID).
		Int64("receivers", receivers).
		Msg("Published listing event")
	return nil
}

// Subscribe joins channel on the shared connection, opening it on first use
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string, types ...entities.ListingEventType) (<-chan *entities.ListingEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBusClosed
	}

	if _, listening := b.subs[channel]; !listening {
		if err := b.listen(ctx, channel); err != nil {
			return nil, err
		}
		b.subs[channel] = make(map[*subscriber]struct{})
	}

	sub := newSubscriber(types)
	b.subs[channel][sub] = struct{}{}
	log.Info().Str("channel", channel).Int("subscribers", len(b.subs[channel])).Msg("Subscribed to channel")

	go func() {
		<-ctx.Done()
		b.remove(channel, sub)
	}()

	return sub.ch, nil
}

// listen must be called with mu held.
func (b *RedisEventBus) listen(ctx context.Context, channel string) error {
	if b.pubsub != nil {
		if err := b.pubsub.Subscribe(ctx, channel); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
		}
		return nil
	}

	pubsub := b.client.Client().Subscribe(context.Background(), channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	b.pubsub = pubsub
	b.done = make(chan struct{})
	go b.dispatch(pubsub, b.done)
	return nil
}

func (b *RedisEventBus) dispatch(pubsub *redis.PubSub, done chan struct{}) {
	defer close(done)

	for msg := range pubsub.Channel() {
		event, err := decodeEvent(msg.Payload)
		if err != nil {
			log.Warn().Err(err).Str("channel", msg.Channel).Msg("Discarding listing event")
			continue
		}

		b.mu.RLock()
		for sub := range b.subs[msg.Channel] {
			sub.offer(msg.Channel, event)
		}
		b.mu.RUnlock()
	}
}

func (b *RedisEventBus) remove(channel string, sub *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.subs[channel]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	close(sub.ch)

	if len(subs) == 0 {
		b.dropChannel(context.Background(), channel)
	}
}

// dropChannel must be called with mu held.
func (b *RedisEventBus) dropChannel(ctx context.Context, channel string) error {
	for sub := range b.subs[channel] {
		close(sub.ch)
	}
	delete(b.subs, channel)

	if b.pubsub == nil || b.closed {
		return nil
	}
	if err := b.pubsub.Unsubscribe(ctx, channel); err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("Failed to unsubscribe channel")
		return fmt.Errorf("failed to unsubscribe %s: %w", channel, err)
	}
	log.Info().Str("channel", channel).Msg("Closed subscription")
	return nil
}

// Unsubscribe drops every subscriber of a channel
func (b *RedisEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[channel]; !ok {
		return nil
	}
	return b.dropChannel(ctx, channel)
}

// Close closes every subscriber and the shared connection
func (b *RedisEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true

	for channel := range b.subs {
		_ = b.dropChannel(context.Background(), channel)
	}

	var err error
	pubsub, done := b.pubsub, b.done
	if pubsub != nil {
		err = pubsub.Close()
		b.pubsub = nil
	}
	b.mu.Unlock()

	if done != nil {
		<-done
	}
	if err != nil {
		return fmt.Errorf("failed to close event bus: %w", err)
	}

	log.Info().Msg("Event bus closed")
	return nil
}
