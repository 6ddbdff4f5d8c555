package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
	"github.com/zatekoja/propertymarket/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/propertymarket/backend/pkg/errors"
)

type ratingKey struct {
	subject entities.SubjectRef
	raterID string
}

// RatingStore is an in-memory RatingRepository
type RatingStore struct {
	mu      sync.RWMutex
	ratings map[ratingKey]*entities.Rating
	now     func() time.Time
}

var _ repositories.RatingRepository = (*RatingStore)(nil)

// NewRatingStore creates an empty rating store
func NewRatingStore() *RatingStore {
	return &RatingStore{
		ratings: make(map[ratingKey]*entities.Rating),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Upsert inserts the rating or replaces the rater's existing one
func (s *RatingStore) Upsert(_ context.Context, rating *entities.Rating) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	key := ratingKey{subject: rating.Subject(), raterID: rating.RaterID}

	if existing, ok := s.ratings[key]; ok {
		existing.Score = rating.Score
		existing.Review = rating.Review
		existing.RaterName = rating.RaterName
		existing.UpdatedAt = now
		*rating = *existing
		return false, nil
	}

	if rating.ID == "" {
		rating.ID = uuid.NewString()
	}
	rating.CreatedAt = now
	rating.UpdatedAt = now
	stored := *rating
	s.ratings[key] = &stored
	return true, nil
}

// Get retrieves the rater's rating for the subject
func (s *RatingStore) Get(_ context.Context, subject entities.SubjectRef, raterID string) (*entities.Rating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.ratings[ratingKey{subject: subject, raterID: raterID}]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("rating for %s by %s not found", subject, raterID))
	}
	c := *r
	return &c, nil
}

// Delete removes the rater's rating for the subject
func (s *RatingStore) Delete(_ context.Context, subject entities.SubjectRef, raterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ratingKey{subject: subject, raterID: raterID}
	if _, ok := s.ratings[key]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("rating for %s by %s not found", subject, raterID))
	}
	delete(s.ratings, key)
	return nil
}

// DeleteBySubject removes every rating of the subject
func (s *RatingStore) DeleteBySubject(_ context.Context, subject entities.SubjectRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.ratings {
		if key.subject == subject {
			delete(s.ratings, key)
		}
	}
	return nil
}

func (s *RatingStore) bySubject(subject entities.SubjectRef) []*entities.Rating {
	var out []*entities.Rating
	for key, r := range s.ratings {
		if key.subject == subject {
			out = append(out, r)
		}
	}
	return out
}

// ListBySubject retrieves ratings for a subject, newest first
func (s *RatingStore) ListBySubject(_ context.Context, subject entities.SubjectRef, limit, offset int) ([]*entities.Rating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ratings := s.bySubject(subject)
	sort.Slice(ratings, func(i, j int) bool {
		if ratings[i].CreatedAt.Equal(ratings[j].CreatedAt) {
			return ratings[i].ID > ratings[j].ID
		}
		return ratings[i].CreatedAt.After(ratings[j].CreatedAt)
	})

	out := []*entities.Rating{}
	if offset < 0 || offset >= len(ratings) {
		return out, nil
	}
	end := len(ratings)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	for _, r := range ratings[offset:end] {
		c := *r
		out = append(out, &c)
	}
	return out, nil
}

// CountBySubject counts ratings for a subject
func (s *RatingStore) CountBySubject(_ context.Context, subject entities.SubjectRef) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.bySubject(subject)), nil
}

// Tally returns the sum and count of the subject's current scores
func (s *RatingStore) Tally(_ context.Context, subject entities.SubjectRef) (entities.RatingTally, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tally entities.RatingTally
	for _, r := range s.bySubject(subject) {
		tally.Sum += r.Score
		tally.Count++
	}
	return tally, nil
}
