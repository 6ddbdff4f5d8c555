package events

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
)

const subscriberBuffer = 100

// subscriber is one Subscribe call: a buffered channel plus the event
// types it asked for. An empty type set accepts everything.
type subscriber struct {
	ch    chan *entities.ListingEvent
	types map[entities.ListingEventType]struct{}
}

func newSubscriber(types []entities.ListingEventType) *subscriber {
	s := &subscriber{ch: make(chan *entities.ListingEvent, subscriberBuffer)}
	if len(types) > 0 {
		s.types = make(map[entities.ListingEventType]struct{}, len(types))
		for _, t := range types {
			s.types[t] = struct{}{}
		}
	}
	return s
}

func (s *subscriber) wants(t entities.ListingEventType) bool {
	if s.types == nil {
		return true
	}
	_, ok := s.types[t]
	return ok
}

// offer delivers without blocking. A full buffer drops the event; the index
// catches up on the next change to that listing or the next reindex.
func (s *subscriber) offer(channel string, event *entities.ListingEvent) bool {
	if !s.wants(event.EventType) {
		return false
	}
	select {
	case s.ch <- event:
		return true
	default:
		log.Warn().Str("channel", channel).Str("event_id", event.ID).Str("listing_id", event.ListingID).Msg("Subscriber channel full, dropping event")
		return false
	}
}

func encodeEvent(event *entities.ListingEvent) ([]byte, error) {
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("refusing to publish: %w", err)
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return data, nil
}

func decodeEvent(payload string) (*entities.ListingEvent, error) {
	var event entities.ListingEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	return &event, nil
}
