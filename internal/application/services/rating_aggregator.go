package services

import (
	"context"
	"fmt"

	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
	"github.com/zatekoja/propertymarket/backend/internal/domain/repositories"
	"github.com/zatekoja/propertymarket/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/propertymarket/backend/pkg/errors"
)

// RatingAggregator recomputes the stored average and count of a subject
// from its current ratings.
type RatingAggregator struct {
	ratings  repositories.RatingRepository
	subjects map[entities.SubjectType]repositories.RatingSubjectRepository
	metrics  *observability.Metrics
}

// NewRatingAggregator creates a new rating aggregator
func NewRatingAggregator(
	ratings repositories.RatingRepository,
	subjects map[entities.SubjectType]repositories.RatingSubjectRepository,
	metrics *observability.Metrics,
) *RatingAggregator {
	return &RatingAggregator{
		ratings:  ratings,
		subjects: subjects,
		metrics:  metrics,
	}
}

// ComputeAggregate turns a tally into the stored aggregate. The average is
// rounded half-up to one decimal in integer tenths so that e.g. 4.25 becomes
// 4.3 regardless of float representation.
func ComputeAggregate(tally entities.RatingTally) entities.RatingAggregate {
	if tally.Count <= 0 {
		return entities.RatingAggregate{}
	}
	tenths := (20*tally.Sum + tally.Count) / (2 * tally.Count)
	return entities.RatingAggregate{
		AverageRating: float64(tenths) / 10,
		TotalRatings:  tally.Count,
	}
}

// Recompute reads the subject's tally and writes the aggregate back. It is
// idempotent: running it twice with no rating change writes the same values.
func (a *RatingAggregator) Recompute(ctx context.Context, subject entities.SubjectRef) (entities.RatingAggregate, error) {
	repo, ok := a.subjects[subject.Type]
	if !ok {
		return entities.RatingAggregate{}, apperrors.NewAggregationFailureError(string(subject.Type), subject.ID,
			fmt.Errorf("no subject store for %q", subject.Type))
	}

	tally, err := a.ratings.Tally(ctx, subject)
	if err != nil {
		return entities.RatingAggregate{}, apperrors.NewAggregationFailureError(string(subject.Type), subject.ID, err)
	}

	aggregate := ComputeAggregate(tally)
	if err := repo.SetRatingAggregate(ctx, subject.ID, aggregate); err != nil {
		return entities.RatingAggregate{}, apperrors.NewAggregationFailureError(string(subject.Type), subject.ID, err)
	}

	return aggregate, nil
}

// RecomputeBestEffort runs Recompute and only logs and counts a failure. The
// rating write that triggered it stays committed either way.
func (a *RatingAggregator) RecomputeBestEffort(ctx context.Context, subject entities.SubjectRef) (entities.RatingAggregate, bool) {
	aggregate, err := a.Recompute(ctx, subject)
	if err != nil {
		observability.LoggerFromContext(ctx).Error().
			Err(err).
			Str("subject", subject.String()).
			Msg("Failed to recompute rating aggregate")
		observability.RecordAggregationFailure(ctx, a.metrics, string(subject.Type))
		return entities.RatingAggregate{}, false
	}
	return aggregate, true
}
