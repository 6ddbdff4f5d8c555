package repositories

import (
	"context"

	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
)

// RatingRepository defines the interface for rating data operations.
// A rating is keyed by (subject, rater).
type RatingRepository interface {
	// Upsert inserts the rating or replaces the score and review of the
	// rater's existing rating for the subject. It reports whether a new
	// record was created and fills in the stored ID and timestamps.
	Upsert(ctx context.Context, rating *entities.Rating) (bool, error)

	// Get retrieves the rater's rating for the subject
	Get(ctx context.Context, subject entities.SubjectRef, raterID string) (*entities.Rating, error)

	// Delete removes the rater's rating for the subject
	Delete(ctx context.Context, subject entities.SubjectRef, raterID string) error

	// DeleteBySubject removes every rating of the subject
	DeleteBySubject(ctx context.Context, subject entities.SubjectRef) error

	// ListBySubject retrieves ratings for a subject, newest first
	ListBySubject(ctx context.Context, subject entities.SubjectRef, limit, offset int) ([]*entities.Rating, error)

	// CountBySubject counts ratings for a subject
	CountBySubject(ctx context.Context, subject entities.SubjectRef) (int, error)

	// Tally returns the sum and count of the subject's current scores
	Tally(ctx context.Context, subject entities.SubjectRef) (entities.RatingTally, error)
}

// RatingSubjectRepository is implemented by stores that hold rateable
// subjects and their derived rating aggregate.
type RatingSubjectRepository interface {
	// SubjectExists reports whether id names a rateable subject
	SubjectExists(ctx context.Context, id string) (bool, error)

	// SetRatingAggregate overwrites the subject's stored aggregate
	SetRatingAggregate(ctx context.Context, id string, aggregate entities.RatingAggregate) error
}
