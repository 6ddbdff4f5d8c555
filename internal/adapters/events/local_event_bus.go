package events

import (
	"context"
	"sync"

	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
	"github.com/zatekoja/propertymarket/backend/internal/domain/providers"
)

// LocalEventBus is an in-process EventBus used when Redis is disabled. It
// only reaches subscribers in the same process.
type LocalEventBus struct {
	mu     sync.RWMutex
	subs   map[string]map[*subscriber]struct{}
	closed bool
}

// NewLocalEventBus creates an in-process event bus
func NewLocalEventBus() providers.EventBus {
	return &LocalEventBus{subs: make(map[string]map[*subscriber]struct{})}
}

// Publish validates the event and delivers it without blocking
func (b *LocalEventBus) Publish(_ context.Context, channel string, event *entities.ListingEvent) error {
	if _, err := encodeEvent(event); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs[channel] {
		sub.offer(channel, event)
	}
	return nil
}

// Subscribe registers a subscriber until ctx is cancelled
func (b *LocalEventBus) Subscribe(ctx context.Context, channel string, types ...entities.ListingEventType) (<-chan *entities.ListingEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBusClosed
	}
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[*subscriber]struct{})
	}
	sub := newSubscriber(types)
	b.subs[channel][sub] = struct{}{}

	go func() {
		<-ctx.Done()
		b.remove(channel, sub)
	}()

	return sub.ch, nil
}

func (b *LocalEventBus) remove(channel string, sub *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[channel][sub]; !ok {
		return
	}
	delete(b.subs[channel], sub)
	close(sub.ch)
	if len(b.subs[channel]) == 0 {
		delete(b.subs, channel)
	}
}

// Unsubscribe drops every subscriber of the channel
func (b *LocalEventBus) Unsubscribe(_ context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs[channel] {
		close(sub.ch)
	}
	delete(b.subs, channel)
	return nil
}

// Close drops every subscriber
func (b *LocalEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for channel, subs := range b.subs {
		for sub := range subs {
			close(sub.ch)
		}
		delete(b.subs, channel)
	}
	b.closed = true
	return nil
}
