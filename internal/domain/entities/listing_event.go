package entities

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ListingEventType represents the type of listing event
type ListingEventType string

const (
	ListingEventCreated       ListingEventType = "listing.created"
	ListingEventUpdated       ListingEventType = "listing.updated"
	ListingEventRatingUpdated ListingEventType = "listing.rating_updated"
	ListingEventModerated     ListingEventType = "listing.moderated"
	ListingEventDeleted       ListingEventType = "listing.deleted"
)

// ListingEventVersion is the payload version this build publishes and
// accepts.
const ListingEventVersion = 1

// Known reports whether t is one of the published event types.
func (t ListingEventType) Known() bool {
	switch t {
	case ListingEventCreated, ListingEventUpdated, ListingEventRatingUpdated,
		ListingEventModerated, ListingEventDeleted:
		return true
	}
	return false
}

// ListingEvent announces a change to a listing so that secondary views
// (the search index) can refresh it. Subscribers re-read the listing; the
// event carries no listing body.
type ListingEvent struct {
	Version       int                    `json:"version"`
	ID            string                 `json:"id"`
	ListingID     string                 `json:"listingId"`
	EventType     ListingEventType       `json:"eventType"`
	Timestamp     time.Time              `json:"timestamp"`
	ChangedFields map[string]interface{} `json:"changedFields,omitempty"`
}

// NewListingEvent creates a new listing event
func NewListingEvent(listingID string, eventType ListingEventType, changedFields map[string]interface{}) *ListingEvent {
	return &ListingEvent{
		Version:       ListingEventVersion,
		ID:            uuid.NewString(),
		ListingID:     listingID,
		EventType:     eventType,
		Timestamp:     time.Now().UTC(),
		ChangedFields: changedFields,
	}
}

// Validate checks an event before it is published or after it is received.
func (e *ListingEvent) Validate() error {
	switch {
	case e == nil:
		return errors.New("nil listing event")
	case e.Version != ListingEventVersion:
		return fmt.Errorf("unsupported listing event version %d", e.Version)
	case e.ListingID == "":
		return errors.New("listing event without listing id")
	case !e.EventType.Known():
		return fmt.Errorf("unknown listing event type %q", e.EventType)
	}
	return nil
}
