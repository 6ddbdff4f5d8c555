package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
	"github.com/zatekoja/propertymarket/backend/internal/domain/providers"
	"github.com/zatekoja/propertymarket/backend/internal/domain/repositories"
	"github.com/zatekoja/propertymarket/backend/internal/query/listingsearch"
	apperrors "github.com/zatekoja/propertymarket/backend/pkg/errors"
)

// indexedEventTypes are the listing changes that can alter an index entry
var indexedEventTypes = []entities.ListingEventType{
	entities.ListingEventCreated,
	entities.ListingEventUpdated,
	entities.ListingEventModerated,
	entities.ListingEventRatingUpdated,
	entities.ListingEventDeleted,
}

// IndexSyncService keeps the search index in step with listing events
type IndexSyncService struct {
	listings repositories.ListingRepository
	index    repositories.ListingSearchIndex
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewIndexSyncService creates a new index sync service
func NewIndexSyncService(listings repositories.ListingRepository, index repositories.ListingSearchIndex, eventBus providers.EventBus) *IndexSyncService {
	ctx, cancel := context.WithCancel(context.Background())
	return &IndexSyncService{
		listings: listings,
		index:    index,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start begins listening for listing events
func (s *IndexSyncService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelListingUpdates, indexedEventTypes...)
	if err != nil {
		return fmt.Errorf("failed to subscribe to listing updates: %w", err)
	}

	go s.processEvents(eventChan)
	log.Info().Msg("Index sync service started")
	return nil
}

// Stop stops the service and waits for the event loop to exit
func (s *IndexSyncService) Stop() {
	s.cancel()
	<-s.done
	log.Info().Msg("Index sync service stopped")
}

func (s *IndexSyncService) processEvents(eventChan <-chan *entities.ListingEvent) {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
			if err := s.HandleEvent(ctx, event); err != nil {
				log.Warn().Err(err).Str("listing_id", event.ListingID).Str("event", string(event.EventType)).Msg("Failed to sync search index")
			}
			cancel()
		}
	}
}

// HandleEvent re-reads the listing named by the event and indexes it if it
// is public, or removes it from the index otherwise.
func (s *IndexSyncService) HandleEvent(ctx context.Context, event *entities.ListingEvent) error {
	if event.EventType == entities.ListingEventDeleted {
		return s.index.Delete(ctx, event.ListingID)
	}
	return s.Sync(ctx, event.ListingID)
}

// Sync brings the index entry of one listing up to date
func (s *IndexSyncService) Sync(ctx context.Context, listingID string) error {
	l, err := s.listings.GetByID(ctx, listingID)
	if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		return s.index.Delete(ctx, listingID)
	}
	if err != nil {
		return err
	}
	if !l.Visible() {
		return s.index.Delete(ctx, listingID)
	}
	return s.index.Index(ctx, l)
}

// Reindex walks every public listing in creation order and indexes it in
// batches. It returns the number of listings indexed.
func (s *IndexSyncService) Reindex(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}

	gate := listingsearch.ModerationGate()
	order := listingsearch.ResolveSort(listingsearch.SortOldest)
	indexed := 0

	for offset := 0; ; offset += batchSize {
		batch, err := s.listings.Find(ctx, listingsearch.Query{
			Predicate: gate,
			Ordering:  order,
			Offset:    offset,
			Limit:     batchSize,
		})
		if err != nil {
			return indexed, fmt.Errorf("failed to load listings at offset %d: %w", offset, err)
		}

		for _, l := range batch {
			if err := s.index.Index(ctx, l); err != nil {
				return indexed, fmt.Errorf("failed to index listing %s: %w", l.ID, err)
			}
			indexed++
		}

		log.Info().Int("indexed", indexed).Msg("Reindex progress")
		if len(batch) < batchSize {
			return indexed, nil
		}
	}
}
