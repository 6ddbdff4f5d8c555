package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
	"github.com/zatekoja/propertymarket/backend/internal/domain/providers"
	"github.com/zatekoja/propertymarket/backend/internal/domain/repositories"
	"github.com/zatekoja/propertymarket/backend/internal/infrastructure/observability"
	"github.com/zatekoja/propertymarket/backend/internal/query/listingsearch"
	apperrors "github.com/zatekoja/propertymarket/backend/pkg/errors"
)

// RatingInput is a create-or-update request for the caller's rating
type RatingInput struct {
	Subject   entities.SubjectRef
	RaterID   string
	RaterName string
	Score     int
	Review    string
}

// RatingResult is the stored rating plus the aggregate written after it.
// Aggregate is nil when the recompute failed; the rating is stored anyway.
type RatingResult struct {
	Rating    *entities.Rating          `json:"rating"`
	Created   bool                      `json:"created"`
	Aggregate *entities.RatingAggregate `json:"aggregate,omitempty"`
}

// RatingService handles rating submission, removal and listing
type RatingService struct {
	ratings    repositories.RatingRepository
	subjects   map[entities.SubjectType]repositories.RatingSubjectRepository
	aggregator *RatingAggregator
	eventBus   providers.EventBus
	pages      *listingsearch.Normalizer
}

// NewRatingService creates a new rating service. subjects maps each rateable
// subject type to the store that owns it.
func NewRatingService(
	ratings repositories.RatingRepository,
	subjects map[entities.SubjectType]repositories.RatingSubjectRepository,
	eventBus providers.EventBus,
	metrics *observability.Metrics,
	pages *listingsearch.Normalizer,
) *RatingService {
	if pages == nil {
		pages = listingsearch.NewNormalizer(listingsearch.DefaultPageSize, listingsearch.MaxPageSize)
	}
	return &RatingService{
		ratings:    ratings,
		subjects:   subjects,
		aggregator: NewRatingAggregator(ratings, subjects, metrics),
		eventBus:   eventBus,
		pages:      pages,
	}
}

// ResolveSubject validates a subject reference from a request. An empty type
// means a listing.
func ResolveSubject(subjectType, subjectID string) (entities.SubjectRef, error) {
	t := entities.SubjectType(strings.TrimSpace(subjectType))
	if t == "" {
		t = entities.SubjectListing
	}
	if !t.Valid() {
		return entities.SubjectRef{}, &apperrors.AppError{
			Type:    apperrors.ErrorTypeValidation,
			Message: fmt.Sprintf("subjectType must be %q or %q", entities.SubjectListing, entities.SubjectAgent),
			Field:   "subjectType",
		}
	}
	id := strings.TrimSpace(subjectID)
	if id == "" {
		return entities.SubjectRef{}, &apperrors.AppError{
			Type:    apperrors.ErrorTypeValidation,
			Message: "subjectId is required",
			Field:   "subjectId",
		}
	}
	return entities.SubjectRef{Type: t, ID: id}, nil
}

func (s *RatingService) requireSubject(ctx context.Context, subject entities.SubjectRef) error {
	repo, ok := s.subjects[subject.Type]
	if !ok {
		return apperrors.NewSubjectNotFoundError(string(subject.Type), subject.ID)
	}
	exists, err := repo.SubjectExists(ctx, subject.ID)
	if err != nil {
		return apperrors.NewStorageUnavailableError("failed to look up rating subject", err)
	}
	if !exists {
		return apperrors.NewSubjectNotFoundError(string(subject.Type), subject.ID)
	}
	return nil
}

func validateRating(in RatingInput) error {
	if in.Score < entities.MinRatingScore || in.Score > entities.MaxRatingScore {
		return apperrors.NewInvalidRatingScoreError(in.Score, entities.MinRatingScore, entities.MaxRatingScore)
	}
	if utf8.RuneCountInString(in.Review) > entities.MaxReviewLength {
		return &apperrors.AppError{
			Type:    apperrors.ErrorTypeValidation,
			Message: fmt.Sprintf("review must be at most %d characters", entities.MaxReviewLength),
			Field:   "review",
		}
	}
	if in.Subject.Type == entities.SubjectAgent && in.Subject.ID == in.RaterID {
		return apperrors.NewValidationError("agents cannot rate themselves")
	}
	return nil
}

// Submit creates the caller's rating for a subject or replaces the score and
// review of the one they already have, then recomputes the subject's
// aggregate. Validation happens before any write.
func (s *RatingService) Submit(ctx context.Context, in RatingInput) (*RatingResult, error) {
	in.Review = strings.TrimSpace(in.Review)
	if err := validateRating(in); err != nil {
		return nil, err
	}
	if err := s.requireSubject(ctx, in.Subject); err != nil {
		return nil, err
	}

	rating := &entities.Rating{
		SubjectType: in.Subject.Type,
		SubjectID:   in.Subject.ID,
		RaterID:     in.RaterID,
		RaterName:   in.RaterName,
		Score:       in.Score,
		Review:      in.Review,
	}

	created, err := s.ratings.Upsert(ctx, rating)
	if err != nil {
		return nil, err
	}

	result := &RatingResult{Rating: rating, Created: created}
	if aggregate, ok := s.aggregator.RecomputeBestEffort(ctx, in.Subject); ok {
		result.Aggregate = &aggregate
		s.publishRatingUpdate(ctx, in.Subject, aggregate)
	}

	return result, nil
}

// Delete removes the caller's rating for a subject and recomputes the
// subject's aggregate.
func (s *RatingService) Delete(ctx context.Context, subject entities.SubjectRef, raterID string) (*entities.RatingAggregate, error) {
	if err := s.ratings.Delete(ctx, subject, raterID); err != nil {
		return nil, err
	}

	aggregate, ok := s.aggregator.RecomputeBestEffort(ctx, subject)
	if !ok {
		return nil, nil
	}
	s.publishRatingUpdate(ctx, subject, aggregate)
	return &aggregate, nil
}

// Mine returns the caller's rating for a subject
func (s *RatingService) Mine(ctx context.Context, subject entities.SubjectRef, raterID string) (*entities.Rating, error) {
	return s.ratings.Get(ctx, subject, raterID)
}

// List returns one page of a subject's ratings, newest first. Only the page
// and pageSize query parameters are accepted.
func (s *RatingService) List(ctx context.Context, subject entities.SubjectRef, raw map[string]string) (*entities.RatingPage, error) {
	paging := make(map[string]string, 2)
	for key, value := range raw {
		switch key {
		case listingsearch.ParamPage, listingsearch.ParamPageSize, "limit":
			paging[key] = value
		default:
			return nil, apperrors.NewInvalidFilterValueError(key, "unknown parameter")
		}
	}
	req, err := s.pages.Normalize(paging)
	if err != nil {
		return nil, err
	}
	page := req.Page

	if err := s.requireSubject(ctx, subject); err != nil {
		return nil, err
	}

	items, err := s.ratings.ListBySubject(ctx, subject, page.PageSize, page.Offset())
	if err != nil {
		return nil, err
	}
	total, err := s.ratings.CountBySubject(ctx, subject)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*entities.Rating{}
	}

	return &entities.RatingPage{
		Items:      items,
		Total:      total,
		Page:       page.Page,
		TotalPages: listingsearch.TotalPages(total, page.PageSize),
	}, nil
}

// Recompute forces an aggregate recompute for a subject, e.g. to heal one
// left stale by an earlier failure.
func (s *RatingService) Recompute(ctx context.Context, subject entities.SubjectRef) (entities.RatingAggregate, error) {
	return s.aggregator.Recompute(ctx, subject)
}

func (s *RatingService) publishRatingUpdate(ctx context.Context, subject entities.SubjectRef, aggregate entities.RatingAggregate) {
	if s.eventBus == nil || subject.Type != entities.SubjectListing {
		return
	}
	event := entities.NewListingEvent(subject.ID, entities.ListingEventRatingUpdated, map[string]interface{}{
		"averageRating": aggregate.AverageRating,
		"totalRatings":  aggregate.TotalRatings,
	})
	if err := s.eventBus.Publish(ctx, providers.EventChannelListingUpdates, event); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("listing_id", subject.ID).Msg("Failed to publish rating update")
	}
}
