// Package memory holds map-backed repositories for the "memory" storage
// driver and for tests. They evaluate the same compiled predicates the SQL
// adapters translate.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
	"github.com/zatekoja/propertymarket/backend/internal/domain/repositories"
	"github.com/zatekoja/propertymarket/backend/internal/query/listingsearch"
	apperrors "github.com/zatekoja/propertymarket/backend/pkg/errors"
)

// ListingStore is an in-memory ListingRepository
type ListingStore struct {
	mu       sync.RWMutex
	listings map[string]*entities.Listing
	// order keeps insertion order so ties sort the same way every time
	order []string
}

var _ repositories.ListingRepository = (*ListingStore)(nil)

// NewListingStore creates an empty listing store
func NewListingStore() *ListingStore {
	return &ListingStore{listings: make(map[string]*entities.Listing)}
}

func copyListing(l *entities.Listing) *entities.Listing {
	c := *l
	c.Images = append([]string(nil), l.Images...)
	c.Features = append([]string(nil), l.Features...)
	if l.Bedrooms != nil {
		n := *l.Bedrooms
		c.Bedrooms = &n
	}
	if l.Bathrooms != nil {
		n := *l.Bathrooms
		c.Bathrooms = &n
	}
	return &c
}

// Create creates a new listing
func (s *ListingStore) Create(_ context.Context, listing *entities.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.listings[listing.ID]; exists {
		return apperrors.NewConflictError(fmt.Sprintf("listing with id %s already exists", listing.ID))
	}
	s.listings[listing.ID] = copyListing(listing)
	s.order = append(s.order, listing.ID)
	return nil
}

// GetByID retrieves a listing by ID
func (s *ListingStore) GetByID(_ context.Context, id string) (*entities.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.listings[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("listing with id %s not found", id))
	}
	return copyListing(l), nil
}

func (s *ListingStore) matching(p listingsearch.Predicate) []*entities.Listing {
	var out []*entities.Listing
	for _, id := range s.order {
		if l := s.listings[id]; listingsearch.Matches(p, l) {
			out = append(out, l)
		}
	}
	return out
}

// Find returns one window of listings matching the predicate
func (s *ListingStore) Find(_ context.Context, q listingsearch.Query) ([]*entities.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := s.matching(q.Predicate)
	sort.SliceStable(matches, func(i, j int) bool {
		return listingsearch.Compare(matches[i], matches[j], q.Ordering) < 0
	})

	if q.Offset < 0 || q.Offset >= len(matches) {
		return []*entities.Listing{}, nil
	}
	end := len(matches)
	if q.Limit > 0 && q.Offset+q.Limit < end {
		end = q.Offset + q.Limit
	}

	out := make([]*entities.Listing, 0, end-q.Offset)
	for _, l := range matches[q.Offset:end] {
		out = append(out, copyListing(l))
	}
	return out, nil
}

// Count counts listings matching the predicate
func (s *ListingStore) Count(_ context.Context, p listingsearch.Predicate) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.matching(p)), nil
}

func (s *ListingStore) mutate(id string, fn func(l *entities.Listing)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.listings[id]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("listing with id %s not found", id))
	}
	fn(l)
	return nil
}

// SetActive toggles the listing's active flag
func (s *ListingStore) SetActive(_ context.Context, id string, active bool) error {
	return s.mutate(id, func(l *entities.Listing) {
		l.IsActive = active
		l.UpdatedAt = time.Now().UTC()
	})
}

// SetApproval records a moderation decision
func (s *ListingStore) SetApproval(_ context.Context, id string, status entities.ApprovalStatus, reason string) error {
	return s.mutate(id, func(l *entities.Listing) {
		l.ApprovalStatus = status
		l.RejectionReason = reason
		l.UpdatedAt = time.Now().UTC()
	})
}

// IncrementViews bumps the view counter by one
func (s *ListingStore) IncrementViews(_ context.Context, id string) error {
	return s.mutate(id, func(l *entities.Listing) { l.Views++ })
}

// SetRatingAggregate overwrites the listing's stored aggregate
func (s *ListingStore) SetRatingAggregate(_ context.Context, id string, aggregate entities.RatingAggregate) error {
	return s.mutate(id, func(l *entities.Listing) {
		l.AverageRating = aggregate.AverageRating
		l.TotalRatings = aggregate.TotalRatings
	})
}

// SubjectExists reports whether a listing with the ID exists
func (s *ListingStore) SubjectExists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.listings[id]
	return ok, nil
}

// Delete deletes a listing
func (s *ListingStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.listings[id]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("listing with id %s not found", id))
	}
	delete(s.listings, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
